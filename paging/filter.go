package paging

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// ErrUnresolvableDisplayValue is returned when Filter cannot derive display
// text for a value and no DisplayFunc was given.
var ErrUnresolvableDisplayValue = errors.New("no display text for value")

// DisplayFunc returns the text a value is displayed and filtered by.
type DisplayFunc[T any] func(T) string

// Displayer is implemented by values that know their own display text.
// The boolean is false when the value has none.
type Displayer interface {
	DisplayText() (string, bool)
}

// MatchFunc reports whether text matches query. Both arguments are already
// case folded.
type MatchFunc func(text, query string) bool

// MatchPrefix matches when the query is a prefix of the text. It is the
// matcher Filter uses.
func MatchPrefix(text, query string) bool {
	return strings.HasPrefix(text, query)
}

// MatchSubstring matches when the query occurs anywhere in the text.
func MatchSubstring(text, query string) bool {
	return strings.Contains(text, query)
}

// Filter returns the values whose display text starts with query, ignoring
// case, in their original order. An empty query returns values unchanged.
//
// Display text comes from display when it is non-nil. Otherwise strings are
// used as-is and Displayer values report their own text; anything else fails
// with ErrUnresolvableDisplayValue.
func Filter[S ~[]T, T any](values S, query string, display DisplayFunc[T]) (S, error) {
	return FilterFunc(values, query, display, MatchPrefix)
}

// FilterFunc is Filter with a custom matcher. A nil match means MatchPrefix.
func FilterFunc[S ~[]T, T any](values S, query string, display DisplayFunc[T], match MatchFunc) (S, error) {
	if query == "" {
		return values, nil
	}
	if match == nil {
		match = MatchPrefix
	}

	folder := cases.Fold()
	folded := folder.String(query)

	out := make(S, 0, len(values))
	for _, v := range values {
		text, err := displayText(v, display)
		if err != nil {
			return nil, err
		}
		if match(folder.String(text), folded) {
			out = append(out, v)
		}
	}
	return out, nil
}

func displayText[T any](v T, display DisplayFunc[T]) (string, error) {
	if display != nil {
		return display(v), nil
	}
	switch x := any(v).(type) {
	case string:
		return x, nil
	case Displayer:
		if text, ok := x.DisplayText(); ok {
			return text, nil
		}
	}
	return "", fmt.Errorf("%w: %T has no display text, pass a custom DisplayFunc to Filter and PageOf", ErrUnresolvableDisplayValue, v)
}
