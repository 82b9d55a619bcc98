package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/blacktop/threadpost/threads"
	"github.com/spf13/cobra"
)

var (
	fieldsFlag  []string
	limitFlag   int
	cursorFlag  string
	allFlag     bool
	commentFlag string
)

func newGetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <post-id>",
		Short: "Show a published post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(client *threads.Client) error {
				post, err := client.GetPost(cmd.Context(), args[0], fieldsFlag...)
				if err != nil {
					return err
				}
				printPost(cmd.OutOrStdout(), post)
				if post.IsReply() {
					fmt.Fprintf(cmd.OutOrStdout(), "  in reply to %s\n", post.ParentID())
				}
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&fieldsFlag, "fields", nil, "Fields to request (default: all known fields)")
	return cmd
}

func newListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the user's posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(client *threads.Client) error {
				opts := threads.ListOptions{Limit: limitFlag, Cursor: cursorFlag, Fields: fieldsFlag}
				out := cmd.OutOrStdout()
				if allFlag {
					for post, err := range client.AllUserPosts(cmd.Context(), opts) {
						if err != nil {
							return err
						}
						printPost(out, post)
					}
					return nil
				}

				page, err := client.ListUserPosts(cmd.Context(), opts)
				if err != nil {
					return err
				}
				for _, post := range page.Posts {
					printPost(out, post)
				}
				if page.NextCursor != "" {
					fmt.Fprintf(out, "next cursor: %s\n", page.NextCursor)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limitFlag, "limit", 0, "Posts per page (default 20, max 100)")
	cmd.Flags().StringVar(&cursorFlag, "cursor", "", "Resume after this cursor")
	cmd.Flags().BoolVar(&allFlag, "all", false, "Follow cursors until the last page")
	cmd.Flags().StringSliceVar(&fieldsFlag, "fields", nil, "Fields to request")
	return cmd
}

func newDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <post-id>...",
		Short: "Delete one or more posts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return eachPost(cmd, args, "deleted", func(ctx context.Context, post *threads.PublishedPost) error {
				return post.Delete(ctx)
			})
		},
	}
}

func newLikeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "like <post-id>...",
		Short: "Like one or more posts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return eachPost(cmd, args, "liked", func(ctx context.Context, post *threads.PublishedPost) error {
				return post.Like(ctx)
			})
		},
	}
}

func newUnlikeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unlike <post-id>...",
		Short: "Remove a like from one or more posts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return eachPost(cmd, args, "unliked", func(ctx context.Context, post *threads.PublishedPost) error {
				return post.Unlike(ctx)
			})
		},
	}
}

func newRepostCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repost <post-id>",
		Short: "Repost a post, optionally with a comment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(client *threads.Client) error {
				ctx := cmd.Context()
				post, err := client.GetPost(ctx, args[0], "id")
				if err != nil {
					return err
				}
				repost, err := post.Repost(ctx, commentFlag)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "reposted %s as %s\n", post.ID(), repost.ID())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&commentFlag, "comment", "", "Comment to add to the repost")
	return cmd
}

func newEditCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <post-id> [text]",
		Short: "Edit the text of a post",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := resolveText(cmd, textFlag, args[1:])
			if err != nil {
				return err
			}
			return withClient(func(client *threads.Client) error {
				ctx := cmd.Context()
				post, err := client.GetPost(ctx, args[0], "id")
				if err != nil {
					return err
				}
				if _, err := post.Edit(ctx, threads.EditOptions{Text: text}); err != nil {
					return err
				}
				if _, err := post.Refresh(ctx); err != nil {
					return err
				}
				printPost(cmd.OutOrStdout(), post)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&textFlag, "text", "t", "", "New post text")
	return cmd
}

// eachPost applies fn to every id and reports all failures together.
func eachPost(cmd *cobra.Command, ids []string, verb string, fn func(context.Context, *threads.PublishedPost) error) error {
	return withClient(func(client *threads.Client) error {
		ctx := cmd.Context()
		var errs []error
		for _, id := range ids {
			post, err := client.GetPost(ctx, id, "id")
			if err == nil {
				err = fn(ctx, post)
			}
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", id, err))
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", verb, id)
		}
		return errors.Join(errs...)
	})
}

func printPost(out io.Writer, post *threads.PublishedPost) {
	data := post.Data()
	var meta []string
	if data.MediaType != "" {
		meta = append(meta, data.MediaType)
	}
	if data.Username != "" {
		meta = append(meta, "@"+data.Username)
	}
	if data.Timestamp != "" {
		meta = append(meta, data.Timestamp)
	}
	fmt.Fprintf(out, "%s [%s] %q\n", post.ID(), strings.Join(meta, " "), data.Text)
	if data.Permalink != "" {
		fmt.Fprintf(out, "  %s\n", data.Permalink)
	}
}
