package listquery

import (
	"fmt"

	"github.com/starford/ensemble/internal/apperr"
)

// Page is one slice of an ordered result set plus its metadata.
type Page[T any] struct {
	Items       []T  `json:"items"`
	PageNumber  int  `json:"page"`
	TotalPages  int  `json:"totalPages"`
	TotalCount  int  `json:"total"`
	HasPrevious bool `json:"hasPrevious"`
	HasNext     bool `json:"hasNext"`
}

// TotalPages returns ceil(total/size). Zero items means zero pages.
func TotalPages(total, size int) int {
	if total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// ClampPage treats page numbers below 1 as 1 and, when total is known,
// pulls requests past the end back to the last page.
func ClampPage(page, size, total int) int {
	if page < 1 {
		page = 1
	}
	if tp := TotalPages(total, size); tp > 0 && page > tp {
		page = tp
	}
	return page
}

// Window converts a clamped page request into a LIMIT/OFFSET pair.
func Window(page, size int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	return size, (page - 1) * size
}

// NewPage wraps a fetched slice with page metadata. The slice must come
// from the window produced by Window for the same page and size.
func NewPage[T any](items []T, page, size, total int) Page[T] {
	tp := TotalPages(total, size)
	return Page[T]{
		Items:       items,
		PageNumber:  page,
		TotalPages:  tp,
		TotalCount:  total,
		HasPrevious: page > 1,
		HasNext:     page < tp,
	}
}

// Paginate slices an already-ordered in-memory source. It never
// reorders. Page numbers below 1 clamp to 1 and past-the-end requests
// clamp to the last page; a size below 1 is an invalid argument.
func Paginate[T any](src []T, page, size int) (Page[T], error) {
	if size < 1 {
		return Page[T]{}, fmt.Errorf("paginate: page size %d: %w", size, apperr.ErrInvalidArgument)
	}
	total := len(src)
	page = ClampPage(page, size, total)
	limit, offset := Window(page, size)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return NewPage(src[offset:end:end], page, size, total), nil
}
