package paging

import (
	"errors"
	"fmt"
)

// DefaultPageSize is the page size PageOf uses when the request leaves it zero.
const DefaultPageSize = 10

// ErrInvalidPageSize is returned for a page size that is not positive.
var ErrInvalidPageSize = errors.New("page size must be positive")

// Page is one slice of a value list plus the metadata needed to render
// pagination controls.
type Page[T any] struct {
	// Content holds the values on this page. Never nil.
	Content []T `json:"content"`

	// Number is the requested page, echoed verbatim.
	Number int `json:"number"`

	// Size is the number of values on this page.
	Size int `json:"size"`

	TotalElements    int  `json:"totalElements"`
	TotalPages       int  `json:"totalPages"`
	First            bool `json:"first"`
	Last             bool `json:"last"`
	NumberOfElements int  `json:"numberOfElements"`
}

// Paginate returns the given page of values. With oneBased the first page is
// 1, otherwise 0. Pages outside the list come back empty.
func Paginate[S ~[]T, T any](values S, page, size int, oneBased bool) (Page[T], error) {
	if size <= 0 {
		return Page[T]{}, fmt.Errorf("%w: got %d", ErrInvalidPageSize, size)
	}

	index := page
	firstPage := 0
	if oneBased {
		index = page - 1
		firstPage = 1
	}

	total := len(values)
	totalPages := total / size
	if total%size != 0 {
		totalPages++
	}
	totalPages = max(1, totalPages)

	content := make([]T, 0)
	if index >= 0 && index < totalPages {
		start := index * size
		end := min(start+size, total)
		if start < end {
			content = make([]T, end-start)
			copy(content, values[start:end])
		}
	}

	return Page[T]{
		Content:          content,
		Number:           page,
		Size:             len(content),
		TotalElements:    total,
		TotalPages:       totalPages,
		First:            page == firstPage,
		Last:             page == firstPage+totalPages-1,
		NumberOfElements: len(content),
	}, nil
}

// Request describes one page of a filtered list. Apart from Page, the zero
// value means one-based pages of DefaultPageSize unfiltered values.
type Request struct {
	// Page is the requested page number.
	Page int `json:"page"`

	// Size is the page size; zero means DefaultPageSize.
	Size int `json:"size,omitempty"`

	// Query filters values by display text prefix.
	Query string `json:"query,omitempty"`

	// ZeroBased numbers pages from 0 instead of 1.
	ZeroBased bool `json:"zeroBased,omitempty"`

	// Match overrides the prefix matcher.
	Match MatchFunc `json:"-"`
}

// PageOf filters values by req.Query and returns the requested page.
func PageOf[S ~[]T, T any](values S, req Request, display DisplayFunc[T]) (Page[T], error) {
	size := req.Size
	if size == 0 {
		size = DefaultPageSize
	}
	if size < 0 {
		return Page[T]{}, fmt.Errorf("%w: got %d", ErrInvalidPageSize, size)
	}

	filtered, err := FilterFunc(values, req.Query, display, req.Match)
	if err != nil {
		return Page[T]{}, err
	}
	return Paginate(filtered, req.Page, size, !req.ZeroBased)
}
