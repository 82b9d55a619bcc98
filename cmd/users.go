package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blacktop/threadpost/threads"
	"github.com/spf13/cobra"
)

var searchTypeFlag string

func newProfileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile [user-id]",
		Short: "Show a user profile (default: the configured user)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var userID string
			if len(args) > 0 {
				userID = args[0]
			}
			return withClient(func(client *threads.Client) error {
				profile, err := client.GetUserProfile(cmd.Context(), userID, fieldsFlag...)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s @%s", profile.ID, profile.Username)
				if profile.IsVerified {
					fmt.Fprint(out, " (verified)")
				}
				fmt.Fprintln(out)
				if profile.Name != "" {
					fmt.Fprintf(out, "  name: %s\n", profile.Name)
				}
				if profile.ThreadsBiography != "" {
					fmt.Fprintf(out, "  bio: %s\n", profile.ThreadsBiography)
				}
				fmt.Fprintf(out, "  followers: %d following: %d\n", profile.FollowersCount, profile.FollowingCount)
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&fieldsFlag, "fields", nil, "Fields to request")
	return cmd
}

func newSearchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search posts or users",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(client *threads.Client) error {
				page, err := client.Search(cmd.Context(), threads.SearchOptions{
					Query:  strings.Join(args, " "),
					Type:   threads.SearchType(searchTypeFlag),
					Limit:  limitFlag,
					Cursor: cursorFlag,
				})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, r := range page.Results {
					switch {
					case r.Username != "" && r.Text == "":
						fmt.Fprintf(out, "%s @%s %s\n", r.ID, r.Username, r.Name)
					default:
						fmt.Fprintf(out, "%s %q\n", r.ID, r.Text)
					}
				}
				if page.NextCursor != "" {
					fmt.Fprintf(out, "next cursor: %s\n", page.NextCursor)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&searchTypeFlag, "type", string(threads.SearchPosts), "Result type (posts or users)")
	cmd.Flags().IntVar(&limitFlag, "limit", 0, "Results per page (default 20, max 100)")
	cmd.Flags().StringVar(&cursorFlag, "cursor", "", "Resume after this cursor")
	return cmd
}

func newFollowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "follow <user-id>...",
		Short: "Follow one or more users",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return eachUser(cmd, args, func(ctx context.Context, client *threads.Client, id string) (*threads.RelationshipResult, error) {
				return client.FollowUser(ctx, id)
			})
		},
	}
}

func newUnfollowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unfollow <user-id>...",
		Short: "Unfollow one or more users",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return eachUser(cmd, args, func(ctx context.Context, client *threads.Client, id string) (*threads.RelationshipResult, error) {
				return client.UnfollowUser(ctx, id)
			})
		},
	}
}

type relationshipFunc func(context.Context, *threads.Client, string) (*threads.RelationshipResult, error)

func eachUser(cmd *cobra.Command, ids []string, fn relationshipFunc) error {
	return withClient(func(client *threads.Client) error {
		var errs []error
		for _, id := range ids {
			res, err := fn(cmd.Context(), client, id)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", id, err))
				continue
			}
			state := "not following"
			if res.Following {
				state = "following"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", res.UserID, state)
		}
		return errors.Join(errs...)
	})
}
