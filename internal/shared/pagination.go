package shared

import (
	"net/http"
	"strconv"
	"strings"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

// ListFilters carries the common query parameters of list endpoints.
type ListFilters struct {
	Search string
	Limit  int
	Offset int
}

// ParseListFilters reads search, limit and offset from the query string.
func ParseListFilters(r *http.Request) ListFilters {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset, _ := strconv.Atoi(q.Get("offset"))
	if offset < 0 {
		offset = 0
	}
	return ListFilters{Search: strings.TrimSpace(q.Get("search")), Limit: limit, Offset: offset}
}

// Pattern returns the ILIKE pattern for Search.
func (f ListFilters) Pattern() string {
	if f.Search == "" {
		return "%"
	}
	return "%" + f.Search + "%"
}
