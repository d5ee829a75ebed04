package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/joestump/devhub/internal/store"
)

type blogsHandler struct {
	blogs         *store.BlogStore
	comments      *store.CommentStore
	enforceAuthor bool
}

func embedComments(r *http.Request) bool {
	for _, e := range r.URL.Query()["_embed"] {
		if e == "comments" {
			return true
		}
	}
	return false
}

// List returns every blog.
//
// @Summary      List blogs
// @Tags         Blogs
// @Produce      json
// @Param        _embed  query     string  false  "Pass \"comments\" to inline each blog's comments"
// @Success      200     {array}   store.Blog
// @Failure      500     {object}  ErrorResponse
// @Router       /blogs [get]
func (h *blogsHandler) List(w http.ResponseWriter, r *http.Request) {
	blogs, err := h.blogs.ListAll(r.Context())
	if err != nil {
		writeInternal(w, "list blogs", err)
		return
	}

	if embedComments(r) {
		all, err := h.comments.ListAll(r.Context())
		if err != nil {
			writeInternal(w, "list comments", err)
			return
		}
		byBlog := make(map[int64][]store.Comment)
		for _, c := range all {
			byBlog[c.BlogID] = append(byBlog[c.BlogID], c)
		}
		for _, b := range blogs {
			if cs, ok := byBlog[b.ID]; ok {
				b.Comments = cs
			}
		}
	}

	writeJSON(w, http.StatusOK, blogs)
}

// Get returns a single blog.
//
// @Summary      Get a blog
// @Tags         Blogs
// @Produce      json
// @Param        id      path      int     true   "Blog ID"
// @Param        _embed  query     string  false  "Pass \"comments\" to inline the blog's comments"
// @Success      200     {object}  store.Blog
// @Failure      404     {object}  ErrorResponse
// @Failure      500     {object}  ErrorResponse
// @Router       /blogs/{id} [get]
func (h *blogsHandler) Get(w http.ResponseWriter, r *http.Request) {
	blog, ok := h.load(w, r)
	if !ok {
		return
	}

	if embedComments(r) {
		comments, err := h.comments.ListByBlog(r.Context(), blog.ID)
		if err != nil {
			writeInternal(w, "list blog comments", err)
			return
		}
		blog.Comments = comments
	}

	writeJSON(w, http.StatusOK, blog)
}

// Create stores a new blog under the next free id.
//
// @Summary      Create a blog
// @Tags         Blogs
// @Accept       json
// @Produce      json
// @Param        body  body      BlogRequest  true  "Blog to create"
// @Success      201   {object}  store.Blog
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Security     BearerToken
// @Router       /blogs [post]
func (h *blogsHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeBlog(w, r)
	if !ok {
		return
	}

	b := req.blog()
	if h.enforceAuthor {
		user := UserFromContext(r.Context())
		if user == nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
			return
		}
		b.AuthorID = user.ID
		if b.AuthorName == "" {
			b.AuthorName = user.Username
		}
	}

	created, err := h.blogs.Create(r.Context(), b)
	if err != nil {
		writeInternal(w, "create blog", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Update replaces a blog's editable fields.
//
// @Summary      Update a blog
// @Description  Replaces title, excerpt, content, authorName and date. authorId is never changed.
// @Tags         Blogs
// @Accept       json
// @Produce      json
// @Param        id    path      int          true  "Blog ID"
// @Param        body  body      BlogRequest  true  "Replacement fields"
// @Success      200   {object}  store.Blog
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Security     BearerToken
// @Router       /blogs/{id} [put]
func (h *blogsHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.load(w, r)
	if !ok {
		return
	}
	if !h.authorize(w, r, existing) {
		return
	}
	req, ok := decodeBlog(w, r)
	if !ok {
		return
	}

	updated, err := h.blogs.Update(r.Context(), existing.ID, req.blog())
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "blog not found", "NOT_FOUND")
		return
	}
	if err != nil {
		writeInternal(w, "update blog", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete removes a blog. Its comments are left in place.
//
// @Summary      Delete a blog
// @Tags         Blogs
// @Produce      json
// @Param        id   path      int  true  "Blog ID"
// @Success      200  {object}  object
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Security     BearerToken
// @Router       /blogs/{id} [delete]
func (h *blogsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.load(w, r)
	if !ok {
		return
	}
	if !h.authorize(w, r, existing) {
		return
	}

	err := h.blogs.Delete(r.Context(), existing.ID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "blog not found", "NOT_FOUND")
		return
	}
	if err != nil {
		writeInternal(w, "delete blog", err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

// load resolves the {id} path parameter, writing a 404 or 500 on failure.
func (h *blogsHandler) load(w http.ResponseWriter, r *http.Request) (*store.Blog, bool) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "blog not found", "NOT_FOUND")
		return nil, false
	}
	blog, err := h.blogs.GetByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "blog not found", "NOT_FOUND")
		return nil, false
	}
	if err != nil {
		writeInternal(w, "get blog", err)
		return nil, false
	}
	return blog, true
}

// authorize enforces authorship on writes when enforceAuthor is set.
func (h *blogsHandler) authorize(w http.ResponseWriter, r *http.Request, b *store.Blog) bool {
	if !h.enforceAuthor {
		return true
	}
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
		return false
	}
	if user.ID != b.AuthorID {
		writeError(w, http.StatusForbidden, "only the author may modify this blog", "FORBIDDEN")
		return false
	}
	return true
}

func decodeBlog(w http.ResponseWriter, r *http.Request) (*BlogRequest, bool) {
	var req BlogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return nil, false
	}
	if err := validate.Struct(&req); err != nil {
		writeValidation(w, err)
		return nil, false
	}
	return &req, true
}
