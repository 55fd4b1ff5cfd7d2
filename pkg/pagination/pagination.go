package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 100
	MaxLimit     = 100

	// DefaultPageSize is the worklist page size.
	DefaultPageSize = 12
)

// Params holds offset pagination parameters extracted from a request.
type Params struct {
	Limit  int
	Offset int
}

// FromContext extracts limit/offset from the query string.
func FromContext(c echo.Context) Params {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if offset < 0 {
		offset = 0
	}
	return Params{Limit: limit, Offset: offset}
}

// Response wraps an offset-paginated API response.
type Response struct {
	Data    interface{} `json:"data"`
	Total   int         `json:"total"`
	Limit   int         `json:"limit"`
	Offset  int         `json:"offset"`
	HasMore bool        `json:"has_more"`
}

func NewResponse(data interface{}, total, limit, offset int) *Response {
	return &Response{
		Data:    data,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+limit < total,
	}
}

// Page describes one page of a page-numbered listing. Pages are 1-based.
type Page struct {
	Page        int  `json:"page"`
	PageSize    int  `json:"page_size"`
	TotalItems  int  `json:"total_items"`
	TotalPages  int  `json:"total_pages"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// PageFromContext reads ?page= and ?page_size=. Missing or invalid values
// fall back to page 1 and defaultSize; the size is capped at MaxLimit.
func PageFromContext(c echo.Context, defaultSize int) (page, size int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	size, _ = strconv.Atoi(c.QueryParam("page_size"))
	if size <= 0 {
		size = defaultSize
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxLimit {
		size = MaxLimit
	}
	return page, size
}

// Paginate returns the requested page of items. The page number is clamped
// into [1, TotalPages]; an empty list has one empty page.
func Paginate[T any](items []T, page, size int) ([]T, Page) {
	if size <= 0 {
		size = DefaultPageSize
	}
	total := len(items)
	totalPages := (total + size - 1) / size
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * size
	end := start + size
	if end > total {
		end = total
	}
	info := Page{
		Page:        page,
		PageSize:    size,
		TotalItems:  total,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}
	if start >= total {
		return []T{}, info
	}
	return items[start:end], info
}
