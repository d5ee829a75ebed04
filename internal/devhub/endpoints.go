package devhub

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/joestump/devhub/internal/query"
	"github.com/joestump/devhub/internal/store"
)

// Endpoint names.
const (
	GetDevelopers    = "getDevelopers"
	GetDeveloperByID = "getDeveloperById"
	GetAllBlogs      = "getAllBlogs"
	GetBlogByID      = "getBlogById"
	CreateBlogPost   = "createBlogPost"
	UpdateBlogPost   = "updateBlogPost"
	DeleteBlogPost   = "deleteBlogPost"
	AddComment       = "addComment"
)

// Tag types.
const (
	TagDeveloper = "Developer"
	TagBlog      = "Blog"
	TagComment   = "Comment"
)

// Registry returns the DevHub endpoint table. Args may be passed by value
// or by pointer; any other shape fails the call with an error.
func Registry() *query.Registry {
	return query.MustRegistry(
		query.Endpoint{
			Name: GetDevelopers,
			Kind: query.KindQuery,
			Request: func(args any) (query.Request, error) {
				a, err := argsAs[DeveloperListArgs](GetDevelopers, args)
				if err != nil {
					return query.Request{}, err
				}
				a = a.normalize()
				q := url.Values{}
				q.Set("_page", strconv.Itoa(a.Page))
				q.Set("_limit", strconv.Itoa(a.Limit))
				if a.Search != "" {
					q.Set("name_like", a.Search)
				}
				if a.Language != "" {
					q.Set("skills_like", a.Language)
				}
				return query.Request{Method: http.MethodGet, Path: "/developers", Query: q}, nil
			},
			Transform: func(resp *query.Response, args any) (any, error) {
				a, err := argsAs[DeveloperListArgs](GetDevelopers, args)
				if err != nil {
					return nil, err
				}
				a = a.normalize()
				devs, err := query.DecodeJSON[[]*store.Developer](resp)
				if err != nil {
					return nil, err
				}
				total, err := strconv.Atoi(resp.Header.Get("X-Total-Count"))
				if err != nil {
					total = len(devs)
				}
				return &DeveloperPage{Developers: devs, TotalCount: total, Page: a.Page, Limit: a.Limit}, nil
			},
			Provides: func(result, _ any) []query.Tag {
				tags := []query.Tag{query.Bare(TagDeveloper)}
				if page, ok := result.(*DeveloperPage); ok {
					for _, d := range page.Developers {
						tags = append(tags, query.ID(TagDeveloper, d.ID))
					}
				}
				return tags
			},
		},
		query.Endpoint{
			Name: GetDeveloperByID,
			Kind: query.KindQuery,
			Request: func(args any) (query.Request, error) {
				a, err := argsAs[idArgs](GetDeveloperByID, args)
				if err != nil {
					return query.Request{}, err
				}
				return get(fmt.Sprintf("/developers/%d", a.ID)), nil
			},
			Transform: func(resp *query.Response, _ any) (any, error) {
				return query.DecodeJSON[*store.Developer](resp)
			},
			Provides: func(result, _ any) []query.Tag {
				if d, ok := result.(*store.Developer); ok && d != nil {
					return []query.Tag{query.ID(TagDeveloper, d.ID)}
				}
				return []query.Tag{query.Bare(TagDeveloper)}
			},
		},
		query.Endpoint{
			Name: GetAllBlogs,
			Kind: query.KindQuery,
			Request: func(any) (query.Request, error) {
				return get("/blogs"), nil
			},
			Transform: func(resp *query.Response, _ any) (any, error) {
				return query.DecodeJSON[[]*store.Blog](resp)
			},
			Provides: func(result, _ any) []query.Tag {
				tags := []query.Tag{query.Bare(TagBlog)}
				if blogs, ok := result.([]*store.Blog); ok {
					for _, b := range blogs {
						tags = append(tags, query.ID(TagBlog, b.ID))
					}
				}
				return tags
			},
		},
		query.Endpoint{
			Name:    GetBlogByID,
			Kind:    query.KindQuery,
			Resolve: resolveBlog,
			Provides: func(result, _ any) []query.Tag {
				if b, ok := result.(*store.Blog); ok && b != nil {
					return []query.Tag{query.ID(TagBlog, b.ID), query.Bare(TagComment)}
				}
				return []query.Tag{query.Bare(TagBlog), query.Bare(TagComment)}
			},
		},
		query.Endpoint{
			Name: CreateBlogPost,
			Kind: query.KindMutation,
			Request: func(args any) (query.Request, error) {
				a, err := argsAs[createBlogArgs](CreateBlogPost, args)
				if err != nil {
					return query.Request{}, err
				}
				return query.Request{Method: http.MethodPost, Path: "/blogs", Body: a}, nil
			},
			Transform: func(resp *query.Response, _ any) (any, error) {
				return query.DecodeJSON[*store.Blog](resp)
			},
			Invalidates: func(_, _ any) []query.Tag {
				return []query.Tag{query.Bare(TagBlog)}
			},
		},
		query.Endpoint{
			Name: UpdateBlogPost,
			Kind: query.KindMutation,
			Request: func(args any) (query.Request, error) {
				a, err := argsAs[updateBlogArgs](UpdateBlogPost, args)
				if err != nil {
					return query.Request{}, err
				}
				return query.Request{Method: http.MethodPut, Path: fmt.Sprintf("/blogs/%d", a.ID), Body: a.BlogInput}, nil
			},
			Transform: func(resp *query.Response, _ any) (any, error) {
				return query.DecodeJSON[*store.Blog](resp)
			},
			Invalidates: func(result, args any) []query.Tag {
				if a, err := argsAs[updateBlogArgs](UpdateBlogPost, args); err == nil {
					return []query.Tag{query.ID(TagBlog, a.ID)}
				}
				if b, ok := result.(*store.Blog); ok && b != nil {
					return []query.Tag{query.ID(TagBlog, b.ID)}
				}
				return []query.Tag{query.Bare(TagBlog)}
			},
		},
		query.Endpoint{
			Name: DeleteBlogPost,
			Kind: query.KindMutation,
			Request: func(args any) (query.Request, error) {
				a, err := argsAs[idArgs](DeleteBlogPost, args)
				if err != nil {
					return query.Request{}, err
				}
				return query.Request{Method: http.MethodDelete, Path: fmt.Sprintf("/blogs/%d", a.ID)}, nil
			},
			Invalidates: func(_, _ any) []query.Tag {
				return []query.Tag{query.Bare(TagBlog)}
			},
		},
		query.Endpoint{
			Name: AddComment,
			Kind: query.KindMutation,
			Request: func(args any) (query.Request, error) {
				a, err := argsAs[addCommentArgs](AddComment, args)
				if err != nil {
					return query.Request{}, err
				}
				return query.Request{Method: http.MethodPost, Path: "/comments", Body: a}, nil
			},
			Transform: func(resp *query.Response, _ any) (any, error) {
				return query.DecodeJSON[*store.Comment](resp)
			},
			Invalidates: func(result, args any) []query.Tag {
				if a, err := argsAs[addCommentArgs](AddComment, args); err == nil {
					return []query.Tag{query.ID(TagBlog, a.BlogID), query.Bare(TagComment)}
				}
				if c, ok := result.(*store.Comment); ok && c != nil {
					return []query.Tag{query.ID(TagBlog, c.BlogID), query.Bare(TagComment)}
				}
				return []query.Tag{query.Bare(TagBlog), query.Bare(TagComment)}
			},
		},
	)
}

// argsAs accepts T or a non-nil *T.
func argsAs[T any](endpoint string, args any) (T, error) {
	switch a := args.(type) {
	case T:
		return a, nil
	case *T:
		if a != nil {
			return *a, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%s: args are %T, want %T", endpoint, args, zero)
}

func get(path string) query.Request {
	return query.Request{Method: http.MethodGet, Path: path}
}

// resolveBlog fetches a blog and then its comments, assembling them here
// rather than relying on server-side embedding.
func resolveBlog(ctx context.Context, t query.Transport, args any) (any, error) {
	a, err := argsAs[idArgs](GetBlogByID, args)
	if err != nil {
		return nil, err
	}
	id := a.ID

	resp, err := t.Do(ctx, get(fmt.Sprintf("/blogs/%d", id)))
	if err != nil {
		return nil, err
	}
	blog, err := query.DecodeJSON[*store.Blog](resp)
	if err != nil {
		return nil, err
	}

	resp, err = t.Do(ctx, query.Request{
		Method: http.MethodGet,
		Path:   "/comments",
		Query:  url.Values{"blogId": {strconv.FormatInt(id, 10)}},
	})
	if err != nil {
		return nil, err
	}
	comments, err := query.DecodeJSON[[]store.Comment](resp)
	if err != nil {
		return nil, err
	}
	blog.Comments = comments
	return blog, nil
}
