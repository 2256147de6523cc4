package loader

import (
	"errors"
	"fmt"
)

// ErrNoCatalogFiles is returned when no file under the catalog directory
// matches the configured patterns.
var ErrNoCatalogFiles = errors.New("no catalog files found")

// ErrDuplicateEnum is returned when two catalog files define the same enum.
var ErrDuplicateEnum = errors.New("enum defined more than once")

// StatusError reports a catalog endpoint that answered with anything but 200.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch enums from %s: unexpected status %d", e.URL, e.StatusCode)
}
