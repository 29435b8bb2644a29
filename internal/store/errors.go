package store

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would violate a uniqueness
	// constraint, such as a second ULO with the same code in one unit.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored, or references a parent that does not exist.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrUpdateFailed is returned when an update operation fails.
	ErrUpdateFailed = errors.New("update failed")

	// ErrDeleteFailed is returned when a delete operation fails.
	ErrDeleteFailed = errors.New("delete failed")

	// ErrTransactionFailed is returned when a database transaction fails
	// to commit or when an operation within a transaction fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrVersionMismatch is returned when a mapping write was prepared against
	// a version of the unit's mapping set that is no longer current.
	ErrVersionMismatch = errors.New("mapping version mismatch")

	// Entity-specific "not found" errors

	ErrUnitNotFound       = fmt.Errorf("%w: unit", ErrNotFound)
	ErrULONotFound        = fmt.Errorf("%w: ulo", ErrNotFound)
	ErrMaterialNotFound   = fmt.Errorf("%w: material", ErrNotFound)
	ErrAssessmentNotFound = fmt.Errorf("%w: assessment", ErrNotFound)

	// Entity-specific "duplicate" errors

	// ErrULOCodeExists indicates that the unit already has a ULO with the code.
	ErrULOCodeExists = fmt.Errorf("%w: ulo code", ErrDuplicate)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// VersionMismatchError carries the versions involved in a rejected mapping write.
type VersionMismatchError struct {
	UnitID   uuid.UUID
	Expected int64
	Actual   int64
}

// Error implements the error interface.
func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("%s: unit %s expected %d, found %d", ErrVersionMismatch, e.UnitID, e.Expected, e.Actual)
}

// Unwrap allows errors.Is(err, ErrVersionMismatch).
func (e *VersionMismatchError) Unwrap() error {
	return ErrVersionMismatch
}

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Entity    string // The entity type (e.g., "unit", "ulo")
	Operation string // The operation that failed (e.g., "create", "save")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf(
			"%s operation on %s failed: %s: %v",
			e.Operation,
			e.Entity,
			e.Message,
			e.Err,
		)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given entity, operation, message, and wrapped error.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
