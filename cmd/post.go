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
	textFlag         string
	imageURLFlag     string
	videoURLFlag     string
	linkFlag         string
	topicFlag        string
	replyControlFlag string
	spoilerFlag      bool
	dryRun           bool
)

func addPostFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&textFlag, "text", "t", "", "Post text")
	cmd.Flags().StringVar(&topicFlag, "topic", "", "Topic tag ('.' and '&' are removed)")
	cmd.Flags().StringVar(&replyControlFlag, "reply-control", "", "Who may reply (everyone, accounts_you_follow, mentioned_only)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate and print the post without publishing")
}

func newPostCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post [text]",
		Short: "Publish a text, image or video post",
		RunE:  runPost,
	}
	addPostFlags(cmd)
	cmd.Flags().StringVar(&imageURLFlag, "image", "", "Public URL of an image to attach")
	cmd.Flags().StringVar(&videoURLFlag, "video", "", "Public URL of a video to attach")
	cmd.Flags().StringVar(&linkFlag, "link", "", "Link attachment (text posts only)")
	cmd.Flags().BoolVar(&spoilerFlag, "spoiler", false, "Mark the media as a spoiler")
	cmd.Flags().SortFlags = false
	return cmd
}

func newReplyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reply <post-id> [text]",
		Short: "Reply to a published post",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runReply,
	}
	addPostFlags(cmd)
	cmd.Flags().StringVar(&imageURLFlag, "image", "", "Public URL of an image to attach")
	cmd.Flags().StringVar(&videoURLFlag, "video", "", "Public URL of a video to attach")
	cmd.Flags().SortFlags = false
	return cmd
}

func newCarouselCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "carousel <TYPE=url>...",
		Short: "Publish a carousel of 2 to 20 images and videos",
		Example: `  threadpost carousel IMAGE=https://example.com/a.png IMAGE=https://example.com/b.png --text "two shots"
  threadpost carousel https://example.com/a.png video=https://example.com/b.mp4`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCarousel,
	}
	addPostFlags(cmd)
	cmd.Flags().SortFlags = false
	return cmd
}

func postOptions(text string) threads.PostOptions {
	opts := threads.PostOptions{
		Text:           text,
		ImageURL:       strings.TrimSpace(imageURLFlag),
		VideoURL:       strings.TrimSpace(videoURLFlag),
		LinkAttachment: strings.TrimSpace(linkFlag),
		TopicTag:       topicFlag,
		ReplyControl:   threads.ReplyControl(replyControlFlag),
		SpoilerMedia:   spoilerFlag,
	}
	switch {
	case opts.ImageURL != "":
		opts.MediaType = threads.MediaImage
	case opts.VideoURL != "":
		opts.MediaType = threads.MediaVideo
	}
	return opts
}

func runPost(cmd *cobra.Command, args []string) error {
	text, err := resolveText(cmd, textFlag, args)
	if err != nil {
		return err
	}
	return withClient(func(client *threads.Client) error {
		draft, err := client.CreatePost(postOptions(text))
		if err != nil {
			return err
		}
		return publish(cmd.Context(), cmd.OutOrStdout(), draft)
	})
}

func runReply(cmd *cobra.Command, args []string) error {
	parentID := args[0]
	text, err := resolveText(cmd, textFlag, args[1:])
	if err != nil {
		return err
	}
	return withClient(func(client *threads.Client) error {
		draft, err := client.CreatePost(postOptions(text))
		if err != nil {
			return err
		}
		if dryRun {
			describeDraft(cmd.OutOrStdout(), draft)
			fmt.Fprintf(cmd.OutOrStdout(), "[dry-run] reply to: %s\n", parentID)
			return nil
		}

		ctx := cmd.Context()
		parent, err := client.GetPost(ctx, parentID, "id")
		if err != nil {
			return err
		}
		reply, err := parent.Reply(ctx, draft)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "published reply %s to %s\n", reply.ID(), reply.ParentID())
		return nil
	})
}

func runCarousel(cmd *cobra.Command, args []string) error {
	items, err := parseCarouselItems(args)
	if err != nil {
		return err
	}
	text, err := resolveText(cmd, textFlag, nil)
	if err != nil {
		return err
	}
	return withClient(func(client *threads.Client) error {
		draft, err := client.CreateCarouselPost(threads.CarouselOptions{
			Items:        items,
			Text:         text,
			TopicTag:     topicFlag,
			ReplyControl: threads.ReplyControl(replyControlFlag),
		})
		if err != nil {
			return err
		}
		return publish(cmd.Context(), cmd.OutOrStdout(), draft)
	})
}

// parseCarouselItems turns TYPE=url arguments into carousel items. A bare
// URL is treated as an image.
func parseCarouselItems(args []string) ([]threads.CarouselItem, error) {
	items := make([]threads.CarouselItem, 0, len(args))
	var errs []error
	for i, raw := range args {
		raw = strings.TrimSpace(raw)
		kind, url, found := strings.Cut(raw, "=")
		if !found || strings.Contains(kind, "://") {
			kind, url = string(threads.MediaImage), raw
		}
		mediaType := threads.MediaType(strings.ToUpper(strings.TrimSpace(kind)))
		if mediaType != threads.MediaImage && mediaType != threads.MediaVideo {
			errs = append(errs, fmt.Errorf("item %d: unsupported media type %q", i+1, kind))
			continue
		}
		items = append(items, threads.CarouselItem{MediaType: mediaType, URL: strings.TrimSpace(url)})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return items, nil
}

func publish(ctx context.Context, out io.Writer, draft *threads.Draft) error {
	if dryRun {
		describeDraft(out, draft)
		return nil
	}

	fmt.Fprintf(out, "publishing %s post...\n", strings.ToLower(string(draft.MediaType())))
	post, err := draft.Publish(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "published %s\n", post.ID())
	return nil
}

func describeDraft(out io.Writer, draft *threads.Draft) {
	fmt.Fprintf(out, "[dry-run] would publish %s post as user %s: %q\n", draft.MediaType(), draft.UserID(), draft.Text())
	if tag := draft.TopicTag(); tag != "" {
		fmt.Fprintf(out, "[dry-run] topic: %s\n", tag)
	}
	for i, item := range draft.Items() {
		fmt.Fprintf(out, "[dry-run] item %d: %s %s\n", i+1, item.MediaType, item.URL)
	}
}
