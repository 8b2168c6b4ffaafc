// Package errors provides domain-specific error types and sentinel errors
// for improved error handling across the application.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common scenarios.
// Use errors.Is() to check these errors in your code.
var (
	// ErrNotFound indicates a requested shop record was not found.
	ErrNotFound = errors.New("shop not found")

	// ErrDuplicateShop indicates a shop with the same name already exists
	// in the conversation.
	ErrDuplicateShop = errors.New("shop already exists")

	// ErrInvalidInput indicates a record that violates a store invariant,
	// such as an empty shop name.
	ErrInvalidInput = errors.New("invalid input")
)

// ValidationError represents input validation failures.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
