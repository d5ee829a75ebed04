// Package devhub binds the query layer to the DevHub Data API: the endpoint
// table, typed accessors and the client-side form rules.
//
// Results are shared with the cache and with concurrent callers; treat them
// as read-only.
package devhub

import (
	"context"
	"time"

	"github.com/joestump/devhub/internal/query"
	"github.com/joestump/devhub/internal/store"
)

// Client is the typed DevHub data client.
type Client struct {
	q   *query.Client
	now func() time.Time
}

// New wraps a query client built over Registry().
func New(q *query.Client) *Client {
	return &Client{q: q, now: time.Now}
}

// NewClient builds the registry and query client over transport.
func NewClient(transport query.Transport) *Client {
	return New(query.New(Registry(), transport))
}

// Query exposes the underlying query client for Invalidate, Reset and Stats.
func (c *Client) Query() *query.Client { return c.q }

// Developers returns one page of the directory. Zero Page and Limit take the
// defaults.
func (c *Client) Developers(ctx context.Context, args DeveloperListArgs) (*DeveloperPage, error) {
	return query.Get[*DeveloperPage](ctx, c.q, GetDevelopers, args.normalize())
}

// Developer returns one profile.
func (c *Client) Developer(ctx context.Context, id int64) (*store.Developer, error) {
	return query.Get[*store.Developer](ctx, c.q, GetDeveloperByID, idArgs{ID: id})
}

// Blogs returns every blog.
func (c *Client) Blogs(ctx context.Context) ([]*store.Blog, error) {
	return query.Get[[]*store.Blog](ctx, c.q, GetAllBlogs, nil)
}

// Blog returns one blog with its comments.
func (c *Client) Blog(ctx context.Context, id int64) (*store.Blog, error) {
	return query.Get[*store.Blog](ctx, c.q, GetBlogByID, idArgs{ID: id})
}

// CreateBlog validates in and creates the blog dated now.
func (c *Client) CreateBlog(ctx context.Context, in BlogInput) (*store.Blog, error) {
	if err := check(&in); err != nil {
		return nil, err
	}
	args := createBlogArgs{
		BlogInput: in,
		Date:      c.now().UTC(),
		Comments:  []store.Comment{},
	}
	return query.Do[*store.Blog](ctx, c.q, CreateBlogPost, args)
}

// UpdateBlog validates in and replaces blog id's fields. The author id is
// kept by the server.
func (c *Client) UpdateBlog(ctx context.Context, id int64, in BlogInput) (*store.Blog, error) {
	if err := check(&in); err != nil {
		return nil, err
	}
	return query.Do[*store.Blog](ctx, c.q, UpdateBlogPost, updateBlogArgs{ID: id, BlogInput: in})
}

// DeleteBlog removes blog id. Its comments stay on the server.
func (c *Client) DeleteBlog(ctx context.Context, id int64) error {
	_, err := c.q.Mutate(ctx, DeleteBlogPost, idArgs{ID: id})
	return err
}

// AddComment validates in and posts it dated now.
func (c *Client) AddComment(ctx context.Context, in CommentInput) (*store.Comment, error) {
	if err := check(&in); err != nil {
		return nil, err
	}
	args := addCommentArgs{CommentInput: in, Date: c.now().UTC()}
	return query.Do[*store.Comment](ctx, c.q, AddComment, args)
}
