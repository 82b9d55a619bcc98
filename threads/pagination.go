package threads

import (
	"context"
	"iter"
	"net/http"
	"strings"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// ListOptions selects a page of a user's posts.
type ListOptions struct {
	// UserID defaults to the client's user.
	UserID string
	Limit  int
	Cursor string
	Fields []string
}

// PostsPage is one page of posts. NextCursor is empty on the last page.
type PostsPage struct {
	Posts      []*PublishedPost
	NextCursor string
}

// SearchType chooses between post and user results.
type SearchType string

const (
	SearchPosts SearchType = "posts"
	SearchUsers SearchType = "users"
)

// SearchOptions describes a search query.
type SearchOptions struct {
	Query  string
	Type   SearchType
	Limit  int
	Cursor string
}

// SearchPage is one page of search results.
type SearchPage struct {
	Results    []SearchResult
	NextCursor string
}

type listQuery struct {
	Fields string `url:"fields,omitempty"`
	Limit  int    `url:"limit"`
	Cursor string `url:"cursor,omitempty"`
}

type searchQuery struct {
	Q      string     `url:"q"`
	Type   SearchType `url:"type"`
	Limit  int        `url:"limit"`
	Cursor string     `url:"cursor,omitempty"`
}

type postsResponse struct {
	Data   []Post `json:"data"`
	Paging paging `json:"paging"`
}

type searchResponse struct {
	Data   []SearchResult `json:"data"`
	Paging paging         `json:"paging"`
}

func pageLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultPageLimit
	case limit > maxPageLimit:
		return maxPageLimit
	}
	return limit
}

// ListUserPosts fetches one page of a user's posts.
func (c *Client) ListUserPosts(ctx context.Context, opts ListOptions) (*PostsPage, error) {
	userID, err := c.resolveUser(opts.UserID)
	if err != nil {
		return nil, err
	}
	q := listQuery{Limit: pageLimit(opts.Limit), Cursor: opts.Cursor}
	if len(opts.Fields) > 0 {
		q.Fields = strings.Join(opts.Fields, ",")
	}

	var resp postsResponse
	if err := c.transport.Do(ctx, Request{Method: http.MethodGet, Path: userID + "/threads", Query: q}, &resp); err != nil {
		return nil, err
	}

	page := &PostsPage{
		Posts:      make([]*PublishedPost, 0, len(resp.Data)),
		NextCursor: resp.Paging.nextCursor(),
	}
	for _, data := range resp.Data {
		page.Posts = append(page.Posts, c.newPublishedPost(data, ""))
	}
	return page, nil
}

// AllUserPosts walks every page starting at opts.Cursor. Iteration stops at
// the first error, which is yielded with a nil post.
func (c *Client) AllUserPosts(ctx context.Context, opts ListOptions) iter.Seq2[*PublishedPost, error] {
	return func(yield func(*PublishedPost, error) bool) {
		for {
			page, err := c.ListUserPosts(ctx, opts)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, post := range page.Posts {
				if !yield(post, nil) {
					return
				}
			}
			if page.NextCursor == "" || page.NextCursor == opts.Cursor {
				return
			}
			opts.Cursor = page.NextCursor
		}
	}
}

// Search looks up posts or users matching opts.Query.
func (c *Client) Search(ctx context.Context, opts SearchOptions) (*SearchPage, error) {
	if strings.TrimSpace(opts.Query) == "" {
		return nil, &ValidationError{Field: "Query", Reason: "required"}
	}
	searchType := opts.Type
	if searchType == "" {
		searchType = SearchPosts
	}
	if searchType != SearchPosts && searchType != SearchUsers {
		return nil, &ValidationError{Field: "Type", Reason: "must be posts or users"}
	}

	q := searchQuery{Q: opts.Query, Type: searchType, Limit: pageLimit(opts.Limit), Cursor: opts.Cursor}
	var resp searchResponse
	if err := c.transport.Do(ctx, Request{Method: http.MethodGet, Path: "search", Query: q}, &resp); err != nil {
		return nil, err
	}
	return &SearchPage{Results: resp.Data, NextCursor: resp.Paging.nextCursor()}, nil
}
