package domain

import "math"

// Pagination defaults and limits.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
	MaxPage         = math.MaxInt32
)

// PaginationParams holds offset-based pagination parameters for list queries.
type PaginationParams struct {
	Page     int
	PageSize int
}

// NewPaginationParams clamps page to [1, MaxPage] and page size to [1, MaxPageSize].
// A non-positive page size falls back to DefaultPageSize.
func NewPaginationParams(page, pageSize int) PaginationParams {
	if page < 1 {
		page = DefaultPage
	}
	if page > MaxPage {
		page = MaxPage
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return PaginationParams{Page: page, PageSize: pageSize}
}

// Offset returns the row offset for the current page (0-based), saturating
// at math.MaxInt instead of wrapping.
func (p PaginationParams) Offset() int {
	if p.Page < 1 || p.PageSize < 1 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.PageSize {
		return math.MaxInt
	}
	return (p.Page - 1) * p.PageSize
}

// Page is one page of a list result plus its navigation metadata.
// swagger:model Page
type Page[T any] struct {
	Items           []T  `json:"items"`
	CurrentPage     int  `json:"current_page"`
	PageSize        int  `json:"page_size"`
	TotalCount      int  `json:"total_count"`
	TotalPages      int  `json:"total_pages"`
	HasPreviousPage bool `json:"has_previous_page"`
	HasNextPage     bool `json:"has_next_page"`
}

// NewPage builds a Page. TotalPages is ceiling(total / pageSize); 0 when pageSize is 0.
func NewPage[T any](items []T, params PaginationParams, total int) *Page[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if params.PageSize > 0 {
		totalPages = (total + params.PageSize - 1) / params.PageSize
	}
	return &Page[T]{
		Items:           items,
		CurrentPage:     params.Page,
		PageSize:        params.PageSize,
		TotalCount:      total,
		TotalPages:      totalPages,
		HasPreviousPage: params.Page > 1,
		HasNextPage:     params.Page < totalPages,
	}
}
