// Package api implements the HTTP handlers and their supporting plumbing.
package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/phrazzld/vocab-api/internal/domain"
	"github.com/phrazzld/vocab-api/internal/service"
	"github.com/phrazzld/vocab-api/internal/service/auth"
	"github.com/phrazzld/vocab-api/internal/service/review"
	"github.com/phrazzld/vocab-api/internal/store"
)

// MapErrorToStatusCode maps domain, store and service errors to HTTP status
// codes. Unrecognized errors map to 500 so nothing internal leaks by default.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication failures
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return http.StatusUnauthorized

	// Ownership violations
	case errors.Is(err, service.ErrItemNotOwned),
		errors.Is(err, review.ErrItemNotOwned),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden

	// Missing entities
	case errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, review.ErrItemNotFound),
		errors.Is(err, review.ErrNoActiveSession),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// State conflicts
	case errors.Is(err, review.ErrSessionInProgress),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Bad input
	case errors.Is(err, review.ErrInvalidAnswer),
		errors.Is(err, review.ErrItemNotInSession),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrEmptyContent),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns an error message safe to expose to API
// clients. Internal errors collapse to a generic message.
func GetSafeErrorMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Authentication token has expired"
	case errors.Is(err, auth.ErrExpiredRefreshToken):
		return "Refresh token has expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid authentication credentials"

	case errors.Is(err, service.ErrItemNotOwned),
		errors.Is(err, review.ErrItemNotOwned),
		errors.Is(err, domain.ErrUnauthorized):
		return "You do not have permission to access this resource"

	case errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, review.ErrItemNotFound):
		return "Item not found"
	case errors.Is(err, review.ErrNoActiveSession):
		return "No active review session"
	case errors.Is(err, store.ErrEmailExists):
		return "Email address is already registered"
	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"
	case errors.Is(err, store.ErrDuplicate):
		return "Resource already exists"

	case errors.Is(err, review.ErrSessionInProgress):
		return "A review session is already in progress"
	case errors.Is(err, review.ErrItemNotInSession):
		return "Item is not part of the active session"
	case errors.Is(err, review.ErrInvalidAnswer):
		return "Invalid answer"

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrEmptyContent),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid input"

	default:
		return "An internal error occurred"
	}
}

// SanitizeValidationError converts validator errors into a client-facing
// message naming the offending fields without echoing their values.
func SanitizeValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return "Invalid request"
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		messages = append(messages, getValidationTagMessage(fieldError))
	}
	return strings.Join(messages, "; ")
}

func getValidationTagMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		return field + " must be at least " + fe.Param() + " characters"
	case "max":
		return field + " must be at most " + fe.Param() + " characters"
	case "gt":
		return field + " must be greater than " + fe.Param()
	case "gte":
		return field + " must be at least " + fe.Param()
	case "lte":
		return field + " must be at most " + fe.Param()
	case "oneof":
		return field + " must be one of: " + fe.Param()
	default:
		return field + " is invalid"
	}
}
