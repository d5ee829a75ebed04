package api

import (
	"encoding/json"
	"net/http"

	"github.com/joestump/devhub/internal/store"
)

type commentsHandler struct {
	comments *store.CommentStore
}

// List returns comments, optionally only those on one blog.
//
// @Summary      List comments
// @Tags         Comments
// @Produce      json
// @Param        blogId  query     int  false  "Only comments on this blog"
// @Success      200     {array}   store.Comment
// @Failure      500     {object}  ErrorResponse
// @Router       /comments [get]
func (h *commentsHandler) List(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("blogId")
	if raw == "" {
		comments, err := h.comments.ListAll(r.Context())
		if err != nil {
			writeInternal(w, "list comments", err)
			return
		}
		writeJSON(w, http.StatusOK, comments)
		return
	}

	// json-server answers an unmatched filter with an empty list.
	blogID, ok := parseID(raw)
	if !ok {
		writeJSON(w, http.StatusOK, []store.Comment{})
		return
	}
	comments, err := h.comments.ListByBlog(r.Context(), blogID)
	if err != nil {
		writeInternal(w, "list blog comments", err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

// Create appends a comment to a blog.
//
// @Summary      Add a comment
// @Tags         Comments
// @Accept       json
// @Produce      json
// @Param        body  body      CommentRequest  true  "Comment to add"
// @Success      201   {object}  store.Comment
// @Failure      400   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Router       /comments [post]
func (h *commentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeValidation(w, err)
		return
	}

	created, err := h.comments.Create(r.Context(), &store.Comment{
		BlogID:  req.BlogID,
		Author:  req.Author,
		Content: req.Content,
		Date:    req.Date,
	})
	if err != nil {
		writeInternal(w, "create comment", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}
