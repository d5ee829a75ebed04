package api

import (
	"net/http"
	"strconv"
)

const (
	defaultLimit = 10
	maxLimit     = 200
)

// parsePagination reads json-server style _page and _limit parameters.
// ok is false when neither is present, meaning the full collection is wanted.
// _limit defaults to 10 and is silently capped at 200; _page defaults to 1.
func parsePagination(r *http.Request) (page, limit int, ok bool) {
	q := r.URL.Query()
	rawPage, rawLimit := q.Get("_page"), q.Get("_limit")
	if rawPage == "" && rawLimit == "" {
		return 0, 0, false
	}

	page, limit = 1, defaultLimit
	if p, err := strconv.Atoi(rawPage); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(rawLimit); err == nil && l > 0 {
		limit = l
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit, true
}

// parseID reads a positive integer id path or query value.
func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
