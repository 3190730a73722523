package reagent

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no reagent matches the requested id or
// (reagent_name, catalog_number) identity.
var ErrNotFound = errors.New("reagent not found")

// ErrDuplicateIdentity is returned when a create would collide on the
// (reagent_name, catalog_number) unique key.
var ErrDuplicateIdentity = errors.New("reagent with this name and catalog number already exists")

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
