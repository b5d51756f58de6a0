// Package paginate slices in-memory result sets into pages.
package paginate

const DefaultPageSize = 10

type Page[T any] struct {
	Items      []T
	Page       int
	PageSize   int
	TotalItems int
	TotalPages int
	HasPrev    bool
	HasNext    bool
}

// Slice returns the requested page of items. Page numbers are 1-based and
// clamped into range; Items shares the backing array of the input.
func Slice[T any](items []T, page, size int) Page[T] {
	if size < 1 {
		size = DefaultPageSize
	}
	totalPages := (len(items) + size - 1) / size
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
	end := min(start+size, len(items))
	if start > end {
		start = end
	}

	return Page[T]{
		Items:      items[start:end:end],
		Page:       page,
		PageSize:   size,
		TotalItems: len(items),
		TotalPages: totalPages,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
	}
}
