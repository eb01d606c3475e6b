package dict

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an edit references a key or group that does
// not exist.
var ErrNotFound = errors.New("not found")

// ConflictError is returned when an edit would overwrite an existing slot.
type ConflictError struct {
	Key string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("slot %q already exists", e.Key)
}

func notFound(kind, name string) error {
	return fmt.Errorf("%s %q: %w", kind, name, ErrNotFound)
}
