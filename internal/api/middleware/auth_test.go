package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/vocab-api/internal/service/auth"
)

type stubJWT struct {
	claims *auth.Claims
	err    error
}

func (s *stubJWT) GenerateToken(context.Context, uuid.UUID) (string, error) { return "", nil }
func (s *stubJWT) GenerateRefreshToken(context.Context, uuid.UUID) (string, error) {
	return "", nil
}
func (s *stubJWT) ValidateRefreshToken(context.Context, string) (*auth.Claims, error) {
	return nil, auth.ErrInvalidRefreshToken
}
func (s *stubJWT) ValidateToken(context.Context, string) (*auth.Claims, error) {
	return s.claims, s.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func protected(t *testing.T, jwt auth.JWTService) (http.Handler, *uuid.UUID) {
	t.Helper()
	var seen uuid.UUID
	m := NewAuthMiddleware(jwt, quietLogger())
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetUserID(r)
		require.True(t, ok)
		seen = userID
		w.WriteHeader(http.StatusOK)
	})
	return m.Authenticate(next), &seen
}

func TestAuthenticatePassesValidToken(t *testing.T) {
	userID := uuid.New()
	handler, seen := protected(t, &stubJWT{claims: &auth.Claims{UserID: userID}})

	req := httptest.NewRequest(http.MethodGet, "/items", nil)
	req.Header.Set("Authorization", "Bearer sometoken")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, *seen)
}

func TestAuthenticateRejectsMissingHeader(t *testing.T) {
	handler, _ := protected(t, &stubJWT{claims: &auth.Claims{UserID: uuid.New()}})

	req := httptest.NewRequest(http.MethodGet, "/items", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateRejectsMalformedHeader(t *testing.T) {
	handler, _ := protected(t, &stubJWT{claims: &auth.Claims{UserID: uuid.New()}})

	for _, header := range []string{"sometoken", "Basic abc", "Bearer", "Bearer "} {
		req := httptest.NewRequest(http.MethodGet, "/items", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
}

func TestAuthenticateRejectsExpiredToken(t *testing.T) {
	handler, _ := protected(t, &stubJWT{err: auth.ErrExpiredToken})

	req := httptest.NewRequest(http.MethodGet, "/items", nil)
	req.Header.Set("Authorization", "Bearer expired")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "expired")
}

func TestGetUserIDWithoutAuthentication(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/items", nil)
	_, ok := GetUserID(req)
	assert.False(t, ok)
}
