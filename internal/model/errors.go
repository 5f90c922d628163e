package model

import (
	"errors"
	"fmt"
)

// ErrValidation is matched by every field validation failure.
var ErrValidation = errors.New("validation failed")

// ValidationError reports which field was rejected and why.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

// Error implements error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is match both ErrValidation and the underlying cause.
func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Err}
}

func invalid(field, reason string, cause error) error {
	return &ValidationError{Field: field, Reason: reason, Err: cause}
}
