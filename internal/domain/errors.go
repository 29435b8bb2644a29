// Package domain defines the core business entities and errors.
package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity or request fails validation.
	// It is usually wrapped by a ValidationError naming the offending field.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a referenced entity or taxonomy code does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write was computed from a stale snapshot of a
	// unit's mapping set. Callers must retry with a fresh snapshot.
	ErrConflict = errors.New("conflicting concurrent update")
)

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation, e.Message)
	}
	return fmt.Sprintf("%s: %s %s", ErrValidation, e.Field, e.Message)
}

// Unwrap allows errors.Is(err, ErrValidation).
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError reports a missing entity or an unknown taxonomy code.
type NotFoundError struct {
	Entity string // e.g. "unit", "ulo", "competency"
	Key    string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Entity, e.Key, ErrNotFound)
}

// Unwrap allows errors.Is(err, ErrNotFound).
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(entity, key string) *NotFoundError {
	return &NotFoundError{Entity: entity, Key: key}
}

// ConflictError is returned when the mapping set of a unit changed between the
// read and the write of a fetch/merge/persist sequence.
type ConflictError struct {
	UnitID          uuid.UUID
	ExpectedVersion int64
	ActualVersion   int64
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf(
		"%s: mappings of unit %s are at version %d, expected %d",
		ErrConflict,
		e.UnitID,
		e.ActualVersion,
		e.ExpectedVersion,
	)
}

// Unwrap allows errors.Is(err, ErrConflict).
func (e *ConflictError) Unwrap() error {
	return ErrConflict
}
