package threads

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/blacktop/threadpost/internal/logutil"
)

// content is the immutable description a Draft publishes.
type content struct {
	userID         string
	mediaType      MediaType
	text           string
	imageURL       string
	videoURL       string
	items          []CarouselItem
	topicTag       string
	linkAttachment string
	gif            *GifAttachment
	replyToID      string
	replyControl   ReplyControl
	spoiler        bool
}

// Draft is content that has not been published yet. A Draft is consumed by
// the first call to Publish; publishing is not idempotent on the server.
type Draft struct {
	client   *Client
	content  content
	consumed atomic.Bool
}

func newDraft(client *Client, c content) *Draft {
	return &Draft{client: client, content: c}
}

// MediaType returns the kind of post the draft will create.
func (d *Draft) MediaType() MediaType { return d.content.mediaType }

// Text returns the post body.
func (d *Draft) Text() string { return d.content.text }

// TopicTag returns the sanitized topic tag.
func (d *Draft) TopicTag() string { return d.content.topicTag }

// ReplyToID returns the parent post id, or "" for a top-level post.
func (d *Draft) ReplyToID() string { return d.content.replyToID }

// UserID returns the account the draft publishes as.
func (d *Draft) UserID() string { return d.content.userID }

// Items returns a copy of the carousel items.
func (d *Draft) Items() []CarouselItem {
	return append([]CarouselItem(nil), d.content.items...)
}

// Consumed reports whether Publish has been called.
func (d *Draft) Consumed() bool { return d.consumed.Load() }

// Publish runs the two-step protocol: create the media container(s), then
// publish the container. Container creation is retried on transient failures;
// the publish step is not.
func (d *Draft) Publish(ctx context.Context) (*PublishedPost, error) {
	if !d.consumed.CompareAndSwap(false, true) {
		return nil, ErrDraftConsumed
	}

	c := d.content
	logutil.Debugf("publishing draft: media_type=%s user_id=%s reply_to=%s", c.mediaType, c.userID, c.replyToID)

	containerID, err := d.createContainers(ctx)
	if err != nil {
		return nil, err
	}
	logutil.Debugf("container ready: container_id=%s", containerID)

	postID, err := d.client.publishContainer(ctx, c.userID, containerID)
	if err != nil {
		return nil, err
	}
	logutil.Debugf("post published: post_id=%s", postID)

	post := d.client.newPublishedPost(Post{ID: postID}, c.replyToID)
	post.stale = true
	return post, nil
}

// asReplyTo consumes d and returns an unconsumed copy parented to parentID.
func (d *Draft) asReplyTo(parentID string) (*Draft, error) {
	if !d.consumed.CompareAndSwap(false, true) {
		return nil, ErrDraftConsumed
	}
	c := d.content
	c.items = d.Items()
	c.replyToID = parentID
	return newDraft(d.client, c), nil
}

func (d *Draft) createContainers(ctx context.Context) (string, error) {
	c := d.content
	if c.mediaType != MediaCarousel {
		return d.client.createContainer(ctx, c.userID, c.containerBody())
	}

	// children are created strictly in item order and before the parent
	children := make([]string, 0, len(c.items))
	for i, item := range c.items {
		id, err := d.client.createContainer(ctx, c.userID, itemBody(item))
		if err != nil {
			return "", err
		}
		logutil.Debugf("carousel item created: index=%d container_id=%s", i, id)
		children = append(children, id)
	}

	body := c.containerBody()
	body.Children = strings.Join(children, ",")
	return d.client.createContainer(ctx, c.userID, body)
}

type containerBody struct {
	MediaType      MediaType      `json:"media_type"`
	Text           string         `json:"text,omitempty"`
	ImageURL       string         `json:"image_url,omitempty"`
	VideoURL       string         `json:"video_url,omitempty"`
	IsCarouselItem bool           `json:"is_carousel_item,omitempty"`
	Children       string         `json:"children,omitempty"`
	ReplyToID      string         `json:"reply_to_id,omitempty"`
	ReplyControl   ReplyControl   `json:"reply_control,omitempty"`
	TopicTag       string         `json:"topic_tag,omitempty"`
	LinkAttachment string         `json:"link_attachment,omitempty"`
	GifAttachment  *GifAttachment `json:"gif_attachment,omitempty"`
	IsSpoilerMedia bool           `json:"is_spoiler_media,omitempty"`
}

func (c content) containerBody() containerBody {
	return containerBody{
		MediaType:      c.mediaType,
		Text:           c.text,
		ImageURL:       c.imageURL,
		VideoURL:       c.videoURL,
		ReplyToID:      c.replyToID,
		ReplyControl:   c.replyControl,
		TopicTag:       c.topicTag,
		LinkAttachment: c.linkAttachment,
		GifAttachment:  c.gif,
		IsSpoilerMedia: c.spoiler,
	}
}

func itemBody(item CarouselItem) containerBody {
	body := containerBody{MediaType: item.MediaType, IsCarouselItem: true}
	switch item.MediaType {
	case MediaImage:
		body.ImageURL = item.URL
	case MediaVideo:
		body.VideoURL = item.URL
	}
	return body
}
