package supply

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no supply record matches the requested
// supply_id.
var ErrNotFound = errors.New("supply record not found")

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
