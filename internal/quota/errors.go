package quota

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by every name- or id-keyed lookup that misses.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateID is returned when an id is inserted into the catalog twice.
	ErrDuplicateID = errors.New("duplicate id")
)

func notFound(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}
