package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/phrazzld/curriculum-api/internal/api/shared"
	"github.com/phrazzld/curriculum-api/internal/domain"
	"github.com/phrazzld/curriculum-api/internal/service"
	"github.com/phrazzld/curriculum-api/internal/service/auth"
	"github.com/phrazzld/curriculum-api/internal/store"
)

const genericErrorMessage = "An unexpected error occurred"

// MapErrorToStatusCode maps an error returned by a service to the HTTP status
// reported to the client.
func MapErrorToStatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusInternalServerError

	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrConflict),
		errors.Is(err, store.ErrVersionMismatch):
		return http.StatusConflict

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err. Domain errors
// carry messages written for users; anything else collapses to a generic
// message.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return genericErrorMessage
	}

	var validationErr *domain.ValidationError
	var notFoundErr *domain.NotFoundError
	var conflictErr *domain.ConflictError

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case MapErrorToStatusCode(err) == http.StatusUnauthorized:
		return "Invalid token"

	case errors.As(err, &validationErr):
		if validationErr.Field == "" {
			return "Invalid request: " + validationErr.Message
		}
		return fmt.Sprintf("Invalid %s: %s", validationErr.Field, validationErr.Message)
	case errors.Is(err, domain.ErrValidation), errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request"

	case errors.As(err, &notFoundErr):
		if notFoundErr.Key == "" {
			return capitalize(notFoundErr.Entity) + " not found"
		}
		return fmt.Sprintf("%s %q not found", capitalize(notFoundErr.Entity), notFoundErr.Key)
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	case errors.Is(err, service.ErrUnitLocked):
		return "Unit is being updated by another request, retry shortly"
	case errors.As(err, &conflictErr):
		return fmt.Sprintf("Mappings are at version %d, not %d; reload and retry",
			conflictErr.ActualVersion, conflictErr.ExpectedVersion)
	case errors.Is(err, domain.ErrConflict), errors.Is(err, store.ErrVersionMismatch):
		return "Mappings changed concurrently; reload and retry"

	default:
		return genericErrorMessage
	}
}

// SanitizeValidationError turns a request validation failure into a message
// naming the first offending field.
func SanitizeValidationError(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return fmt.Sprintf("Invalid %s: %s", fe.Field(), validationTagMessage(fe))
	}
	if errors.Is(err, domain.ErrValidation) {
		return GetSafeErrorMessage(err)
	}
	return "Validation error"
}

func validationTagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required field"
	case "oneof":
		return "must be one of " + fe.Param()
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "uuid":
		return "must be a UUID"
	case "dive":
		return "invalid element"
	default:
		return "validation failed"
	}
}

func capitalize(s string) string {
	if s == "" {
		return "Resource"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// HandleAPIError writes the response for a service error. fallback replaces
// the generic message of 500 responses when it is non-empty.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallback != "" {
		message = fallback
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}

// HandleValidationError writes a 400 response for a request that failed
// decoding or validation.
func HandleValidationError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
}
