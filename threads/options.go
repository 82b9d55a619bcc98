package threads

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	// MinCarouselItems is the smallest carousel the API accepts.
	MinCarouselItems = 2
	// MaxCarouselItems is the largest carousel the API accepts.
	MaxCarouselItems = 20

	maxTopicTagLength = 50
)

var validate = validator.New()

// PostOptions describes a single-media post.
type PostOptions struct {
	Text           string         `validate:"max=500"`
	MediaType      MediaType      `validate:"omitempty,oneof=TEXT IMAGE VIDEO"`
	ImageURL       string         `validate:"omitempty,url"`
	VideoURL       string         `validate:"omitempty,url"`
	LinkAttachment string         `validate:"omitempty,url"`
	GifAttachment  *GifAttachment `validate:"omitempty"`
	ReplyControl   ReplyControl   `validate:"omitempty,oneof=everyone accounts_you_follow mentioned_only"`

	TopicTag     string
	ReplyToID    string
	SpoilerMedia bool

	// UserID overrides the client's default user.
	UserID string
}

// CarouselItem is one image or video of a carousel.
type CarouselItem struct {
	MediaType MediaType `validate:"oneof=IMAGE VIDEO"`
	URL       string    `validate:"required,url"`
}

// CarouselOptions describes a carousel post.
type CarouselOptions struct {
	Items        []CarouselItem `validate:"dive"`
	Text         string         `validate:"max=500"`
	ReplyControl ReplyControl   `validate:"omitempty,oneof=everyone accounts_you_follow mentioned_only"`

	TopicTag  string
	ReplyToID string
	UserID    string
}

// SanitizeTopicTag strips '.' and '&' and truncates the tag to 50 characters.
func SanitizeTopicTag(tag string) string {
	tag = strings.NewReplacer(".", "", "&", "").Replace(tag)
	if utf8.RuneCountInString(tag) <= maxTopicTagLength {
		return tag
	}
	return string([]rune(tag)[:maxTopicTagLength])
}

func (o PostOptions) validate() error {
	if err := structError(validate.Struct(o)); err != nil {
		return err
	}

	switch o.mediaType() {
	case MediaText:
		if o.ImageURL != "" || o.VideoURL != "" {
			return &ValidationError{Field: "MediaType", Reason: "TEXT posts cannot carry an image or video URL"}
		}
		if strings.TrimSpace(o.Text) == "" && o.LinkAttachment == "" && o.GifAttachment == nil {
			return &ValidationError{Field: "Text", Reason: "TEXT posts need text, a link or a gif"}
		}
		if o.SpoilerMedia {
			return &ValidationError{Field: "SpoilerMedia", Reason: "spoiler media requires IMAGE or VIDEO"}
		}
	case MediaImage:
		if o.ImageURL == "" {
			return &ValidationError{Field: "ImageURL", Reason: "required for IMAGE posts"}
		}
		if o.VideoURL != "" {
			return &ValidationError{Field: "VideoURL", Reason: "not allowed on IMAGE posts"}
		}
	case MediaVideo:
		if o.VideoURL == "" {
			return &ValidationError{Field: "VideoURL", Reason: "required for VIDEO posts"}
		}
		if o.ImageURL != "" {
			return &ValidationError{Field: "ImageURL", Reason: "not allowed on VIDEO posts"}
		}
	}

	if o.LinkAttachment != "" && o.mediaType() != MediaText {
		return &ValidationError{Field: "LinkAttachment", Reason: "only TEXT posts accept a link attachment"}
	}
	return nil
}

func (o PostOptions) mediaType() MediaType {
	if o.MediaType == "" {
		return MediaText
	}
	return o.MediaType
}

func (o CarouselOptions) validate() error {
	if n := len(o.Items); n < MinCarouselItems || n > MaxCarouselItems {
		return &ValidationError{
			Field:  "Items",
			Reason: fmt.Sprintf("carousel needs %d to %d items, got %d", MinCarouselItems, MaxCarouselItems, n),
		}
	}
	return structError(validate.Struct(o))
}

// structError converts validator output into a *ValidationError naming the
// first offending field.
func structError(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		reason := fe.Tag()
		if fe.Param() != "" {
			reason += "=" + fe.Param()
		}
		return &ValidationError{Field: fe.Namespace(), Reason: fmt.Sprintf("failed %q check", reason)}
	}
	return &ValidationError{Reason: err.Error()}
}
