package devhub

import (
	"time"

	"github.com/joestump/devhub/internal/store"
)

// Defaults for the developer listing.
const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// DeveloperListArgs selects a page of the developer directory. Search
// filters by name and Language by any skill; both are case-sensitive
// substrings matched by the server.
type DeveloperListArgs struct {
	Page     int    `json:"page"`
	Limit    int    `json:"limit"`
	Search   string `json:"search"`
	Language string `json:"language"`
}

func (a DeveloperListArgs) normalize() DeveloperListArgs {
	if a.Page < 1 {
		a.Page = DefaultPage
	}
	if a.Limit < 1 {
		a.Limit = DefaultLimit
	}
	return a
}

// DeveloperPage is one page of developers plus the total match count.
type DeveloperPage struct {
	Developers []*store.Developer
	TotalCount int
	Page       int
	Limit      int
}

// TotalPages is ceil(TotalCount / Limit).
func (p *DeveloperPage) TotalPages() int {
	if p.Limit <= 0 {
		return 0
	}
	return (p.TotalCount + p.Limit - 1) / p.Limit
}

type idArgs struct {
	ID int64 `json:"id"`
}

// BlogInput is the editable part of a blog, checked against the blog form
// rules before any request is sent.
type BlogInput struct {
	Title      string `json:"title" validate:"required,min=5"`
	Excerpt    string `json:"excerpt" validate:"required,min=10"`
	Content    string `json:"content" validate:"required,min=50"`
	AuthorID   int64  `json:"authorId"`
	AuthorName string `json:"authorName"`
}

// createBlogArgs is the POST /blogs body: the full blog minus its id.
type createBlogArgs struct {
	BlogInput
	Date     time.Time       `json:"date"`
	Comments []store.Comment `json:"comments"`
}

type updateBlogArgs struct {
	ID int64 `json:"id"`
	BlogInput
}

// CommentInput is a new comment. Author is a free-text display name.
type CommentInput struct {
	BlogID  int64  `json:"blogId" validate:"required,gt=0"`
	Author  string `json:"author" validate:"required"`
	Content string `json:"content" validate:"required"`
}

// addCommentArgs carries the submission time stamped by the client.
type addCommentArgs struct {
	CommentInput
	Date time.Time `json:"date"`
}
