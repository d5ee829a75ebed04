package api

import (
	"time"

	"github.com/joestump/devhub/internal/store"
)

// BlogRequest is the body for POST /blogs and PUT /blogs/{id}. On PUT the
// authorId field is ignored: a blog's author never changes.
type BlogRequest struct {
	Title      string    `json:"title" validate:"required"`
	Excerpt    string    `json:"excerpt"`
	Content    string    `json:"content" validate:"required"`
	Date       time.Time `json:"date"`
	AuthorID   int64     `json:"authorId"`
	AuthorName string    `json:"authorName"`
}

func (req *BlogRequest) blog() *store.Blog {
	return &store.Blog{
		Title:      req.Title,
		Excerpt:    req.Excerpt,
		Content:    req.Content,
		Date:       req.Date,
		AuthorID:   req.AuthorID,
		AuthorName: req.AuthorName,
	}
}

// CommentRequest is the body for POST /comments.
type CommentRequest struct {
	BlogID  int64     `json:"blogId" validate:"required,gt=0"`
	Author  string    `json:"author" validate:"required"`
	Content string    `json:"content" validate:"required"`
	Date    time.Time `json:"date"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
