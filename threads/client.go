package threads

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/blacktop/threadpost/internal/logutil"
)

const (
	// DefaultBaseURL is the production API host.
	DefaultBaseURL = "https://graph.threads.net"
	// DefaultTimeout bounds each individual HTTP call.
	DefaultTimeout = 10 * time.Second
)

// Config configures a Client.
type Config struct {
	AccessToken string
	// UserID is the default account for publishing and listing.
	UserID  string
	BaseURL string
	// Timeout applies to each HTTP call, not to a whole publish.
	Timeout    time.Duration
	HTTPClient *http.Client
	// Transport replaces the HTTP transport, mostly for tests.
	Transport Transport
	Retry     RetryPolicy
}

// Client owns a Transport and builds drafts and post handles on top of it.
// A Client is not safe for concurrent use unless its Transport is.
type Client struct {
	transport   Transport
	userID      string
	accessToken string
	retry       RetryPolicy
}

type tokenSetter interface {
	SetAccessToken(token string)
}

// NewClient validates cfg and constructs a Client. Call Close when done.
func NewClient(cfg Config) (*Client, error) {
	token := strings.TrimSpace(cfg.AccessToken)
	transport := cfg.Transport
	if transport == nil {
		if token == "" {
			return nil, &ValidationError{Field: "AccessToken", Reason: "required"}
		}
		baseURL := strings.TrimSpace(cfg.BaseURL)
		if baseURL == "" {
			baseURL = DefaultBaseURL
		}
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		transport = NewHTTPTransport(TransportConfig{
			BaseURL:     baseURL,
			AccessToken: token,
			Timeout:     timeout,
			HTTPClient:  cfg.HTTPClient,
		})
	}

	return &Client{
		transport:   transport,
		userID:      strings.TrimSpace(cfg.UserID),
		accessToken: token,
		retry:       cfg.Retry.withDefaults(),
	}, nil
}

// With runs fn with a fresh Client and closes it on every exit path.
func With(cfg Config, fn func(*Client) error) (err error) {
	client, err := NewClient(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := client.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()
	return fn(client)
}

// Close releases the transport's connections.
func (c *Client) Close() error {
	return c.transport.Close()
}

// UserID returns the default account id.
func (c *Client) UserID() string { return c.userID }

// RetryPolicy returns the effective container creation policy.
func (c *Client) RetryPolicy() RetryPolicy { return c.retry }

func (c *Client) resolveUser(userID string) (string, error) {
	if id := strings.TrimSpace(userID); id != "" {
		return id, nil
	}
	if c.userID != "" {
		return c.userID, nil
	}
	return "", &ValidationError{Field: "UserID", Reason: "must be provided or set on the client"}
}

// CreatePost validates opts and returns a draft. It never calls the API.
func (c *Client) CreatePost(opts PostOptions) (*Draft, error) {
	userID, err := c.resolveUser(opts.UserID)
	if err != nil {
		return nil, err
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return newDraft(c, content{
		userID:         userID,
		mediaType:      opts.mediaType(),
		text:           opts.Text,
		imageURL:       opts.ImageURL,
		videoURL:       opts.VideoURL,
		topicTag:       SanitizeTopicTag(opts.TopicTag),
		linkAttachment: opts.LinkAttachment,
		gif:            opts.GifAttachment,
		replyToID:      strings.TrimSpace(opts.ReplyToID),
		replyControl:   opts.ReplyControl,
		spoiler:        opts.SpoilerMedia,
	}), nil
}

// CreateCarouselPost validates opts and returns a CAROUSEL draft of 2 to 20 items.
func (c *Client) CreateCarouselPost(opts CarouselOptions) (*Draft, error) {
	userID, err := c.resolveUser(opts.UserID)
	if err != nil {
		return nil, err
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return newDraft(c, content{
		userID:       userID,
		mediaType:    MediaCarousel,
		text:         opts.Text,
		items:        append([]CarouselItem(nil), opts.Items...),
		topicTag:     SanitizeTopicTag(opts.TopicTag),
		replyToID:    strings.TrimSpace(opts.ReplyToID),
		replyControl: opts.ReplyControl,
	}), nil
}

// GetPost fetches a post by id. With no fields the default set is requested.
func (c *Client) GetPost(ctx context.Context, postID string, fields ...string) (*PublishedPost, error) {
	if strings.TrimSpace(postID) == "" {
		return nil, &ValidationError{Field: "postID", Reason: "required"}
	}
	q := fieldsQuery{Fields: defaultPostFields}
	if len(fields) > 0 {
		q.Fields = strings.Join(fields, ",")
	}
	var data Post
	if err := c.transport.Do(ctx, Request{Method: http.MethodGet, Path: postID, Query: q}, &data); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &NotFoundError{ID: postID, Err: err}
		}
		return nil, err
	}
	if data.ID == "" {
		data.ID = postID
	}
	return c.newPublishedPost(data, ""), nil
}

// GetUserProfile fetches a profile. An empty userID uses the client default.
func (c *Client) GetUserProfile(ctx context.Context, userID string, fields ...string) (*UserProfile, error) {
	userID, err := c.resolveUser(userID)
	if err != nil {
		return nil, err
	}
	var q any
	if len(fields) > 0 {
		q = fieldsQuery{Fields: strings.Join(fields, ",")}
	}
	var profile UserProfile
	if err := c.transport.Do(ctx, Request{Method: http.MethodGet, Path: userID, Query: q}, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// FollowUser follows targetUserID.
func (c *Client) FollowUser(ctx context.Context, targetUserID string) (*RelationshipResult, error) {
	return c.relationship(ctx, http.MethodPost, targetUserID)
}

// UnfollowUser unfollows targetUserID.
func (c *Client) UnfollowUser(ctx context.Context, targetUserID string) (*RelationshipResult, error) {
	return c.relationship(ctx, http.MethodDelete, targetUserID)
}

func (c *Client) relationship(ctx context.Context, method, targetUserID string) (*RelationshipResult, error) {
	if strings.TrimSpace(targetUserID) == "" {
		return nil, &ValidationError{Field: "targetUserID", Reason: "required"}
	}
	var res RelationshipResult
	if err := c.transport.Do(ctx, Request{Method: method, Path: targetUserID + "/follow"}, &res); err != nil {
		return nil, err
	}
	if res.UserID == "" {
		res.UserID = targetUserID
	}
	return &res, nil
}

// WebhookOptions describes a webhook subscription.
type WebhookOptions struct {
	CallbackURL string   `json:"callback_url"`
	VerifyToken string   `json:"verify_token"`
	Fields      []string `json:"fields,omitempty"`
}

// SubscribeWebhook registers a callback for account events.
func (c *Client) SubscribeWebhook(ctx context.Context, opts WebhookOptions) (*Subscription, error) {
	if opts.CallbackURL == "" || opts.VerifyToken == "" {
		return nil, &ValidationError{Field: "WebhookOptions", Reason: "callback URL and verify token are required"}
	}
	var sub Subscription
	if err := c.transport.Do(ctx, Request{Method: http.MethodPost, Path: "webhooks", Body: opts}, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// Token is an access token issued by the API.
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresIn   time.Duration
}

type tokenQuery struct {
	GrantType    string `url:"grant_type"`
	AccessToken  string `url:"access_token"`
	ClientSecret string `url:"client_secret,omitempty"`
}

// ExchangeLongLivedToken trades the client's short-lived token for a
// long-lived one. The client keeps using its current token.
func (c *Client) ExchangeLongLivedToken(ctx context.Context, clientSecret string) (*Token, error) {
	if c.accessToken == "" {
		return nil, &ValidationError{Field: "AccessToken", Reason: "client has no token to exchange"}
	}
	if clientSecret == "" {
		return nil, &ValidationError{Field: "clientSecret", Reason: "required"}
	}
	q := tokenQuery{GrantType: "th_exchange_token", AccessToken: c.accessToken, ClientSecret: clientSecret}
	return c.token(ctx, "access_token", q)
}

// RefreshAccessToken refreshes the long-lived token and switches the client
// to the new one.
func (c *Client) RefreshAccessToken(ctx context.Context) (*Token, error) {
	if c.accessToken == "" {
		return nil, &ValidationError{Field: "AccessToken", Reason: "client has no token to refresh"}
	}
	tok, err := c.token(ctx, "refresh_access_token", tokenQuery{GrantType: "th_refresh_token", AccessToken: c.accessToken})
	if err != nil {
		return nil, err
	}
	c.accessToken = tok.AccessToken
	if setter, ok := c.transport.(tokenSetter); ok {
		setter.SetAccessToken(tok.AccessToken)
	}
	logutil.Debugf("access token refreshed: expires_in=%s", tok.ExpiresIn)
	return tok, nil
}

func (c *Client) token(ctx context.Context, path string, q tokenQuery) (*Token, error) {
	var resp tokenResponse
	if err := c.transport.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: q}, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, &RemoteError{Class: ClassPermanent, Method: http.MethodGet, Path: path, Err: errors.New("response carried no access_token")}
	}
	return &Token{
		AccessToken: resp.AccessToken,
		TokenType:   resp.TokenType,
		ExpiresIn:   time.Duration(resp.ExpiresIn) * time.Second,
	}, nil
}
