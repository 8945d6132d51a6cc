package dto

import "github.com/spec-kit/project-docs/internal/domain"

// Envelope wraps every response body.
type Envelope struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Data    any      `json:"data"`
	Errors  []string `json:"errors"`
}

// OK builds a successful envelope.
func OK(message string, data any) Envelope {
	return Envelope{Success: true, Message: message, Data: data, Errors: []string{}}
}

// Fail builds an error envelope.
func Fail(message string, errs []string) Envelope {
	if errs == nil {
		errs = []string{}
	}
	return Envelope{Success: false, Message: message, Errors: errs}
}

// PagedResult is the wire form of a domain page.
type PagedResult[T any] struct {
	Items       []T  `json:"items"`
	TotalCount  int  `json:"totalCount"`
	Page        int  `json:"page"`
	PageSize    int  `json:"pageSize"`
	TotalPages  int  `json:"totalPages"`
	HasPrevious bool `json:"hasPrevious"`
	HasNext     bool `json:"hasNext"`
}

// NewPagedResult maps a page with convert applied to each item.
func NewPagedResult[S, T any](page *domain.Page[S], convert func(*S) T) PagedResult[T] {
	items := make([]T, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, convert(&page.Items[i]))
	}
	return PagedResult[T]{
		Items:       items,
		TotalCount:  page.TotalCount,
		Page:        page.Page,
		PageSize:    page.PageSize,
		TotalPages:  page.TotalPages(),
		HasPrevious: page.HasPrevious(),
		HasNext:     page.HasNext(),
	}
}

// Map converts a slice, never returning nil.
func Map[S, T any](in []S, convert func(*S) T) []T {
	out := make([]T, 0, len(in))
	for i := range in {
		out = append(out, convert(&in[i]))
	}
	return out
}
