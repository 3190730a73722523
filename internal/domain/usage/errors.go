package usage

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no usage record matches the requested
// usage_id.
var ErrNotFound = errors.New("usage record not found")

// ValidationError reports a rejected field on a write request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func validationErr(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
