package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/phrazzld/vocab-api/internal/service"
	"github.com/phrazzld/vocab-api/internal/service/auth"
	"github.com/phrazzld/vocab-api/internal/service/review"
	"github.com/phrazzld/vocab-api/internal/store"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"expired token", auth.ErrExpiredToken, http.StatusUnauthorized},
		{"invalid refresh token", auth.ErrInvalidRefreshToken, http.StatusUnauthorized},
		{"item not owned", service.ErrItemNotOwned, http.StatusForbidden},
		{"review item not owned", review.ErrItemNotOwned, http.StatusForbidden},
		{"item not found", service.ErrItemNotFound, http.StatusNotFound},
		{"no active session", review.ErrNoActiveSession, http.StatusNotFound},
		{"store not found", store.ErrItemNotFound, http.StatusNotFound},
		{"session in progress", review.ErrSessionInProgress, http.StatusConflict},
		{"email exists", store.ErrEmailExists, http.StatusConflict},
		{"invalid answer", review.ErrInvalidAnswer, http.StatusBadRequest},
		{"item not in session", review.ErrItemNotInSession, http.StatusBadRequest},
		{"invalid entity", store.ErrInvalidEntity, http.StatusBadRequest},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MapErrorToStatusCode(tc.err))
		})
	}
}

func TestMapErrorToStatusCodeUnwrapsWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("start_session operation failed: %w", review.ErrSessionInProgress)
	assert.Equal(t, http.StatusConflict, MapErrorToStatusCode(wrapped))

	serviceErr := service.NewServiceError("get_item", "lookup failed", service.ErrItemNotFound)
	assert.Equal(t, http.StatusNotFound, MapErrorToStatusCode(serviceErr))
}

func TestGetSafeErrorMessageNeverLeaksInternals(t *testing.T) {
	internal := errors.New("pq: connection refused host=db.internal password=hunter2")
	msg := GetSafeErrorMessage(internal)
	assert.Equal(t, "An internal error occurred", msg)
	assert.NotContains(t, msg, "hunter2")
}

func TestSanitizeValidationError(t *testing.T) {
	type payload struct {
		Email    string `validate:"required,email"`
		Password string `validate:"required,min=12"`
	}

	v := validator.New()
	err := v.Struct(payload{Email: "not-an-email", Password: "short"})

	msg := SanitizeValidationError(err)
	assert.Contains(t, msg, "email must be a valid email address")
	assert.Contains(t, msg, "password must be at least 12 characters")
	assert.NotContains(t, msg, "not-an-email")
	assert.NotContains(t, msg, "short;")
}

func TestSanitizeValidationErrorNonValidatorError(t *testing.T) {
	assert.Equal(t, "Invalid request", SanitizeValidationError(errors.New("plain")))
}
