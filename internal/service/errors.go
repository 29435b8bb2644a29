package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/curriculum-api/internal/domain"
	"github.com/phrazzld/curriculum-api/internal/store"
)

// Common service errors.
//
// Error handling principles:
// 1. Expected conditions are returned as domain errors (ValidationError,
// NotFoundError, ConflictError) so callers can match them with errors.Is/As
// 2. Unexpected errors are wrapped in ServiceError with the failing operation
// 3. The API layer maps domain errors to HTTP status codes
var (
	// ErrUnitLocked indicates the unit is being modified by another writer and
	// the lock could not be taken in time. It wraps domain.ErrConflict, so the
	// API layer maps it to HTTP 409 Conflict.
	ErrUnitLocked = fmt.Errorf("%w: unit is locked by another writer", domain.ErrConflict)
)

// ServiceError wraps an unexpected failure with the operation that hit it.
type ServiceError struct {
	Service   string
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s failed: %s: %v", e.Service, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s service %s failed: %s", e.Service, e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a ServiceError. Domain errors pass through
// unwrapped so that their type survives to the API layer.
func NewServiceError(service, operation, message string, err error) error {
	if err == nil {
		return nil
	}
	if isDomainError(err) {
		return err
	}
	return &ServiceError{
		Service:   service,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

func isDomainError(err error) bool {
	return errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrConflict)
}

// translateStoreError converts store-level errors into domain errors.
// entity and key name the record for not-found reports. Errors that have no
// domain meaning are returned unchanged.
func translateStoreError(err error, entity, key string) error {
	if err == nil {
		return nil
	}

	var vm *store.VersionMismatchError
	if errors.As(err, &vm) {
		return &domain.ConflictError{
			UnitID:          vm.UnitID,
			ExpectedVersion: vm.Expected,
			ActualVersion:   vm.Actual,
		}
	}

	switch {
	case errors.Is(err, store.ErrULOCodeExists):
		return domain.NewValidationError("code", "is already used by another ULO of this unit")
	case errors.Is(err, store.ErrUnitNotFound):
		return domain.NewNotFoundError("unit", key)
	case errors.Is(err, store.ErrNotFound):
		return domain.NewNotFoundError(entity, key)
	case errors.Is(err, store.ErrInvalidEntity):
		return domain.NewValidationError(entity, err.Error())
	}

	return err
}
