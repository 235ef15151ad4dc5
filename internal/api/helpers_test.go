package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/phrazzld/vocab-api/internal/api/shared"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// authenticate injects a user ID into the request context the same way the
// auth middleware does.
func authenticate(req *http.Request, userID uuid.UUID) *http.Request {
	ctx := context.WithValue(req.Context(), shared.UserIDContextKey, userID)
	return req.WithContext(ctx)
}

// serveWithParams routes the request through chi so URL parameters resolve.
func serveWithParams(method, pattern string, handler http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	router.MethodFunc(method, pattern, handler)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}
