package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/joestump/devhub/internal/store"
)

type developersHandler struct {
	developers *store.DeveloperStore
}

// List returns developers, optionally filtered and paged. X-Total-Count
// always carries the number of matches before paging.
//
// @Summary      List developers
// @Tags         Developers
// @Produce      json
// @Param        name_like    query     string  false  "Case-sensitive substring of name"
// @Param        skills_like  query     string  false  "Case-sensitive substring of any skill"
// @Param        _page        query     int     false  "1-based page"
// @Param        _limit       query     int     false  "Page size (default 10, max 200)"
// @Success      200          {array}   store.Developer
// @Header       200          {integer}  X-Total-Count  "Matches before paging"
// @Failure      500          {object}  ErrorResponse
// @Router       /developers [get]
func (h *developersHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.DeveloperFilter{
		Name:  q.Get("name_like"),
		Skill: q.Get("skills_like"),
	}
	if page, limit, ok := parsePagination(r); ok {
		f.Page, f.Limit = page, limit
	}

	devs, total, err := h.developers.List(r.Context(), f)
	if err != nil {
		writeInternal(w, "list developers", err)
		return
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	writeJSON(w, http.StatusOK, devs)
}

// Get returns a single developer.
//
// @Summary      Get a developer
// @Tags         Developers
// @Produce      json
// @Param        id   path      int  true  "Developer ID"
// @Success      200  {object}  store.Developer
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /developers/{id} [get]
func (h *developersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "developer not found", "NOT_FOUND")
		return
	}

	dev, err := h.developers.GetByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "developer not found", "NOT_FOUND")
		return
	}
	if err != nil {
		writeInternal(w, "get developer", err)
		return
	}
	writeJSON(w, http.StatusOK, dev)
}
