package pagination

import (
	"net/http"
	"strconv"
)

// Params holds pagination parameters extracted from query strings.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// DefaultParams returns sensible pagination defaults.
func DefaultParams() Params {
	return Params{
		Page:    1,
		PerPage: 10,
	}
}

// FromRequest extracts pagination parameters from an HTTP request.
func FromRequest(r *http.Request) Params {
	p := DefaultParams()

	if page := r.URL.Query().Get("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v > 0 {
			p.Page = v
		}
	}

	if perPage := r.URL.Query().Get("per_page"); perPage != "" {
		if v, err := strconv.Atoi(perPage); err == nil && v > 0 && v <= 100 {
			p.PerPage = v
		}
	}

	return p
}

// Page returns the 1-based page of items for the given page number and size.
// A page past the end of the list yields an empty slice, not an error.
func Page[T any](items []T, page, pageSize int) []T {
	if page < 1 || pageSize < 1 {
		return []T{}
	}

	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}

	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}

	return items[start:end]
}

// TotalPages returns the number of pages needed to hold totalItems.
func TotalPages(totalItems, pageSize int) int {
	if pageSize < 1 {
		return 0
	}
	pages := totalItems / pageSize
	if totalItems%pageSize > 0 {
		pages++
	}
	return pages
}

// PageInfo describes the position of a page within the full item list,
// using 1-based item numbers for display ("showing 21-25 of 25").
type PageInfo struct {
	StartItem   int  `json:"start_item"`
	EndItem     int  `json:"end_item"`
	TotalItems  int  `json:"total_items"`
	HasNextPage bool `json:"has_next_page"`
	HasPrevPage bool `json:"has_prev_page"`
}

// Info derives the page info for the given page, page size, and total count.
func Info(page, pageSize, totalItems int) PageInfo {
	endItem := page * pageSize
	if endItem > totalItems {
		endItem = totalItems
	}

	return PageInfo{
		StartItem:   (page-1)*pageSize + 1,
		EndItem:     endItem,
		TotalItems:  totalItems,
		HasNextPage: page*pageSize < totalItems,
		HasPrevPage: page > 1,
	}
}

// Result wraps a paginated response.
type Result[T any] struct {
	Data       []T      `json:"data"`
	TotalCount int      `json:"total_count"`
	Page       int      `json:"page"`
	PerPage    int      `json:"per_page"`
	TotalPages int      `json:"total_pages"`
	PageInfo   PageInfo `json:"page_info"`
}

// NewResult creates a paginated result.
func NewResult[T any](data []T, totalCount int, params Params) Result[T] {
	if data == nil {
		data = []T{}
	}
	return Result[T]{
		Data:       data,
		TotalCount: totalCount,
		Page:       params.Page,
		PerPage:    params.PerPage,
		TotalPages: TotalPages(totalCount, params.PerPage),
		PageInfo:   Info(params.Page, params.PerPage, totalCount),
	}
}
