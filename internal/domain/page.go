package domain

// MaxPageSize bounds every paged listing.
const MaxPageSize = 100

// Page is one slice of a paged listing.
type Page[T any] struct {
	Items      []T
	TotalCount int
	Page       int
	PageSize   int
}

// TotalPages rounds up TotalCount / PageSize.
func (p Page[T]) TotalPages() int {
	if p.PageSize <= 0 {
		return 0
	}
	return (p.TotalCount + p.PageSize - 1) / p.PageSize
}

// HasPrevious reports whether a page precedes this one.
func (p Page[T]) HasPrevious() bool { return p.Page > 1 }

// HasNext reports whether a page follows this one.
func (p Page[T]) HasNext() bool { return p.Page < p.TotalPages() }

// Offset translates page numbers into a row offset.
func Offset(page, pageSize int) int {
	return (page - 1) * pageSize
}
