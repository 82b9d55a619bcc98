package threads

import (
	"fmt"
	"strings"
)

// MediaType is the kind of content a post carries.
type MediaType string

const (
	MediaText     MediaType = "TEXT"
	MediaImage    MediaType = "IMAGE"
	MediaVideo    MediaType = "VIDEO"
	MediaCarousel MediaType = "CAROUSEL"
)

// ReplyControl restricts who may reply to a post.
type ReplyControl string

const (
	ReplyEveryone          ReplyControl = "everyone"
	ReplyAccountsYouFollow ReplyControl = "accounts_you_follow"
	ReplyMentionedOnly     ReplyControl = "mentioned_only"
)

// GifAttachment references a GIF hosted by a provider such as Tenor.
type GifAttachment struct {
	GifID    string `json:"gif_id" validate:"required"`
	Provider string `json:"provider" validate:"required,oneof=TENOR"`
}

// Post is a server-side snapshot of a published post.
type Post struct {
	ID                string    `json:"id"`
	MediaProductType  string    `json:"media_product_type,omitempty"`
	MediaType         string    `json:"media_type,omitempty"`
	MediaURL          string    `json:"media_url,omitempty"`
	Permalink         string    `json:"permalink,omitempty"`
	Owner             *Owner    `json:"owner,omitempty"`
	Username          string    `json:"username,omitempty"`
	Text              string    `json:"text,omitempty"`
	Timestamp         string    `json:"timestamp,omitempty"`
	Shortcode         string    `json:"shortcode,omitempty"`
	ThumbnailURL      string    `json:"thumbnail_url,omitempty"`
	IsQuotePost       bool      `json:"is_quote_post,omitempty"`
	IsReply           bool      `json:"is_reply,omitempty"`
	RepliedTo         *PostRef  `json:"replied_to,omitempty"`
	RootPost          *PostRef  `json:"root_post,omitempty"`
	TopicTag          string    `json:"topic_tag,omitempty"`
	LinkAttachmentURL string    `json:"link_attachment_url,omitempty"`
	Children          *Children `json:"children,omitempty"`
	LikeCount         int       `json:"like_count,omitempty"`
	ReplyCount        int       `json:"reply_count,omitempty"`
	RepostCount       int       `json:"repost_count,omitempty"`
	QuoteCount        int       `json:"quote_count,omitempty"`
}

// Owner identifies the author of a post.
type Owner struct {
	ID string `json:"id"`
}

// PostRef is a bare reference to another post.
type PostRef struct {
	ID string `json:"id"`
}

// Children lists the items of a carousel post.
type Children struct {
	Data []PostRef `json:"data"`
}

// UserProfile is a user's public profile.
type UserProfile struct {
	ID                    string `json:"id"`
	Username              string `json:"username,omitempty"`
	Name                  string `json:"name,omitempty"`
	ThreadsProfilePicture string `json:"threads_profile_picture_url,omitempty"`
	ThreadsBiography      string `json:"threads_biography,omitempty"`
	IsVerified            bool   `json:"is_verified,omitempty"`
	FollowersCount        int    `json:"followers_count,omitempty"`
	FollowingCount        int    `json:"following_count,omitempty"`
}

// ActionResult is the body returned by like, unlike, delete and repost calls.
type ActionResult struct {
	ID      string `json:"id,omitempty"`
	Success bool   `json:"success,omitempty"`
}

// RelationshipResult is returned by follow and unfollow.
type RelationshipResult struct {
	UserID    string `json:"user_id,omitempty"`
	Following bool   `json:"following"`
}

// SearchResult is a single post or user match.
type SearchResult struct {
	ID       string `json:"id"`
	Type     string `json:"type,omitempty"`
	Text     string `json:"text,omitempty"`
	Username string `json:"username,omitempty"`
	Name     string `json:"name,omitempty"`
}

// Subscription is a registered webhook.
type Subscription struct {
	ID          string `json:"id,omitempty"`
	CallbackURL string `json:"callback_url,omitempty"`
	VerifyToken string `json:"verify_token,omitempty"`
	Status      string `json:"status,omitempty"`
}

// APIError is the error payload the Graph API returns alongside a non-2xx status.
type APIError struct {
	Message     string `json:"message,omitempty"`
	Type        string `json:"type,omitempty"`
	Code        int    `json:"code,omitempty"`
	Subcode     int    `json:"error_subcode,omitempty"`
	IsTransient bool   `json:"is_transient,omitempty"`
	UserTitle   string `json:"error_user_title,omitempty"`
	UserMessage string `json:"error_user_msg,omitempty"`
	FBTraceID   string `json:"fbtrace_id,omitempty"`
}

func (e APIError) String() string {
	parts := make([]string, 0, 4)
	if e.Type != "" {
		parts = append(parts, e.Type)
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.Code != 0 {
		code := fmt.Sprintf("code=%d", e.Code)
		if e.Subcode != 0 {
			code += fmt.Sprintf(" subcode=%d", e.Subcode)
		}
		parts = append(parts, code)
	}
	if e.FBTraceID != "" {
		parts = append(parts, "trace="+e.FBTraceID)
	}
	return strings.Join(parts, ": ")
}

type errorEnvelope struct {
	Error APIError `json:"error"`
}

type paging struct {
	Cursors struct {
		Before string `json:"before,omitempty"`
		After  string `json:"after,omitempty"`
	} `json:"cursors"`
	Previous string `json:"previous,omitempty"`
	Next     string `json:"next,omitempty"`
}

// nextCursor returns the token for the following page, or "" on the last page.
func (p paging) nextCursor() string {
	if p.Next == "" {
		return ""
	}
	if p.Cursors.After != "" {
		return p.Cursors.After
	}
	return p.Next
}

type idResponse struct {
	ID string `json:"id"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	ExpiresIn   int64  `json:"expires_in,omitempty"`
}
