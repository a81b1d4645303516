package helpers

import (
	"net/http"
	"strconv"

	"eventbooking/internal/domain"
)

// ParsePagination reads page and page_size (pageSize is accepted too) from the
// query string and clamps them with domain.NewPaginationParams. Invalid or
// missing values fall back to defaults.
func ParsePagination(r *http.Request) domain.PaginationParams {
	q := r.URL.Query()
	page := queryInt(q.Get("page"))
	size := q.Get("page_size")
	if size == "" {
		size = q.Get("pageSize")
	}
	return domain.NewPaginationParams(page, queryInt(size))
}

// queryInt parses s as an int; anything unparsable is 0.
func queryInt(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}
