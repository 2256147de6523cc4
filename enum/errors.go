package enum

import (
	"errors"
	"fmt"
)

// ErrMissingEnum is matched by every *MissingEnumError.
var ErrMissingEnum = errors.New("enum not found")

// MissingEnumError reports that a named enumeration is absent from the
// current catalog. It indicates a load-order or naming bug in the caller.
type MissingEnumError struct {
	// Name is the requested enumeration.
	Name string

	// Suggestion is the closest declared name, if any.
	Suggestion string
}

func (e *MissingEnumError) Error() string {
	msg := fmt.Sprintf("enum %q could not be found, make sure the enums are loaded before using them and that the %q enum actually exists", e.Name, e.Name)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
	}
	return msg
}

// Is reports whether target is ErrMissingEnum.
func (e *MissingEnumError) Is(target error) bool {
	return target == ErrMissingEnum
}
