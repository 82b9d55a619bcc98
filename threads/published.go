package threads

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

const defaultPostFields = "id,media_product_type,media_type,media_url,permalink,owner,username,text," +
	"timestamp,shortcode,thumbnail_url,children,is_quote_post,is_reply,replied_to,root_post," +
	"topic_tag,link_attachment_url"

// PublishedPost is a handle on a live post. The id never changes; the
// snapshot returned by Data is only as fresh as the last Refresh.
type PublishedPost struct {
	client   *Client
	id       string
	data     Post
	parentID string
	stale    bool
	deleted  bool
}

// EditOptions lists the fields Edit may change.
type EditOptions struct {
	Text     string   `json:"text,omitempty"`
	MediaIDs []string `json:"media_ids,omitempty"`
}

type fieldsQuery struct {
	Fields string `url:"fields,omitempty"`
}

type repostBody struct {
	PostID  string `json:"post_id"`
	Comment string `json:"comment,omitempty"`
}

func (c *Client) newPublishedPost(data Post, parentID string) *PublishedPost {
	if parentID == "" && data.RepliedTo != nil {
		parentID = data.RepliedTo.ID
	}
	return &PublishedPost{client: c, id: data.ID, data: data, parentID: parentID}
}

// ID returns the remote post id.
func (p *PublishedPost) ID() string { return p.id }

// Data returns the last fetched server snapshot.
func (p *PublishedPost) Data() Post { return p.data }

// ParentID returns the id of the post this one replies to, or "".
func (p *PublishedPost) ParentID() string { return p.parentID }

// IsReply reports whether the post has a parent.
func (p *PublishedPost) IsReply() bool { return p.parentID != "" }

// Stale reports whether the snapshot may be out of date: the handle was
// built from an id only, or a mutating call happened since the last Refresh.
func (p *PublishedPost) Stale() bool { return p.stale }

// Deleted reports whether Delete succeeded on this handle.
func (p *PublishedPost) Deleted() bool { return p.deleted }

// Parent looks up the parent post. It returns nil, nil for top-level posts.
func (p *PublishedPost) Parent(ctx context.Context) (*PublishedPost, error) {
	if err := p.usable(); err != nil {
		return nil, err
	}
	if p.parentID == "" {
		return nil, nil
	}
	return p.client.GetPost(ctx, p.parentID)
}

// Refresh replaces the local snapshot with the server's current fields.
func (p *PublishedPost) Refresh(ctx context.Context) (*PublishedPost, error) {
	if err := p.usable(); err != nil {
		return nil, err
	}
	var data Post
	req := Request{Method: http.MethodGet, Path: p.id, Query: fieldsQuery{Fields: defaultPostFields}}
	if err := p.client.transport.Do(ctx, req, &data); err != nil {
		return nil, p.wrap("refresh", err)
	}
	data.ID = p.id
	p.data = data
	p.stale = false
	if p.parentID == "" && data.RepliedTo != nil {
		p.parentID = data.RepliedTo.ID
	}
	return p, nil
}

// Edit changes the text or media of the post. The response may be partial,
// so the snapshot is marked stale; call Refresh to observe the result.
func (p *PublishedPost) Edit(ctx context.Context, opts EditOptions) (*PublishedPost, error) {
	if err := p.usable(); err != nil {
		return nil, err
	}
	if opts.Text == "" && len(opts.MediaIDs) == 0 {
		return nil, &ValidationError{Field: "EditOptions", Reason: "nothing to edit"}
	}
	var updated Post
	req := Request{Method: http.MethodPatch, Path: "threads/" + p.id, Body: opts}
	if err := p.client.transport.Do(ctx, req, &updated); err != nil {
		return nil, p.wrap("edit", err)
	}
	if updated.Text != "" {
		p.data.Text = updated.Text
	}
	p.stale = true
	return p, nil
}

// Delete removes the post. The handle is unusable afterwards.
func (p *PublishedPost) Delete(ctx context.Context) error {
	if err := p.usable(); err != nil {
		return err
	}
	var res ActionResult
	if err := p.client.transport.Do(ctx, Request{Method: http.MethodDelete, Path: "threads/" + p.id}, &res); err != nil {
		return p.wrap("delete", err)
	}
	p.deleted = true
	return nil
}

// Like likes the post. Like state is not tracked locally.
func (p *PublishedPost) Like(ctx context.Context) error {
	return p.action(ctx, "like", http.MethodPost)
}

// Unlike removes a like from the post.
func (p *PublishedPost) Unlike(ctx context.Context) error {
	return p.action(ctx, "unlike", http.MethodDelete)
}

func (p *PublishedPost) action(ctx context.Context, name, method string) error {
	if err := p.usable(); err != nil {
		return err
	}
	var res ActionResult
	if err := p.client.transport.Do(ctx, Request{Method: method, Path: "threads/" + p.id + "/likes"}, &res); err != nil {
		return p.wrap(name, err)
	}
	p.stale = true
	return nil
}

// Repost shares the post, optionally with a comment, and returns the new post.
func (p *PublishedPost) Repost(ctx context.Context, comment string) (*PublishedPost, error) {
	if err := p.usable(); err != nil {
		return nil, err
	}
	var res ActionResult
	req := Request{
		Method: http.MethodPost,
		Path:   "threads/" + p.id + "/reposts",
		Body:   repostBody{PostID: p.id, Comment: comment},
	}
	if err := p.client.transport.Do(ctx, req, &res); err != nil {
		return nil, p.wrap("repost", err)
	}
	if res.ID == "" {
		return nil, &RemoteError{Class: ClassPermanent, Method: req.Method, Path: req.Path, Err: errors.New("response carried no repost id")}
	}
	repost := p.client.newPublishedPost(Post{ID: res.ID}, "")
	repost.stale = true
	return repost, nil
}

// Reply publishes draft as a reply to this post. The draft is consumed.
func (p *PublishedPost) Reply(ctx context.Context, draft *Draft) (*PublishedPost, error) {
	if err := p.usable(); err != nil {
		return nil, err
	}
	if draft == nil {
		return nil, &ValidationError{Field: "draft", Reason: "required"}
	}
	reply, err := draft.asReplyTo(p.id)
	if err != nil {
		return nil, err
	}
	return reply.Publish(ctx)
}

func (p *PublishedPost) usable() error {
	if p.deleted {
		return &NotFoundError{ID: p.id}
	}
	return nil
}

// wrap turns remote not-found failures into a *NotFoundError for this post.
func (p *PublishedPost) wrap(op string, err error) error {
	var nf *NotFoundError
	if errors.Is(err, ErrNotFound) && !errors.As(err, &nf) {
		return &NotFoundError{ID: p.id, Err: err}
	}
	return fmt.Errorf("%s post %s: %w", op, p.id, err)
}
