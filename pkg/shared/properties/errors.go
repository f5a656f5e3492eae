package properties

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownProperty  = errors.New("unknown property")
	ErrUnsupportedShape = errors.New("unsupported property shape")
)

// PropertyError ties a registry failure to the entity type and wire id (or
// field) that caused it.
type PropertyError struct {
	Type  string
	ID    uint16
	Field string
	Err   error
}

func (e *PropertyError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s.%s (id %d): %v", e.Type, e.Field, e.ID, e.Err)
	}
	return fmt.Sprintf("%s: property %d: %v", e.Type, e.ID, e.Err)
}

func (e *PropertyError) Unwrap() error { return e.Err }
