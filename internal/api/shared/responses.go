package shared

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/phrazzld/vocab-api/internal/redact"
)

// ErrorResponse defines the standard error response structure for the API.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// ResponseOption configures how an error response is logged.
type ResponseOption func(*responseOptions)

type responseOptions struct {
	elevatedLogLevel bool
}

// WithElevatedLogLevel logs the error at ERROR level instead of WARN.
// Use for server-side failures rather than client mistakes.
func WithElevatedLogLevel() ResponseOption {
	return func(o *responseOptions) {
		o.elevatedLogLevel = true
	}
}

// RespondWithJSON writes a JSON response with the given status code.
// Encoding failures at this point can only be logged: the header is gone.
func RespondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// RespondWithError writes a standardized JSON error response. The message
// must already be safe for external eyes; raw errors never reach the client.
func RespondWithError(w http.ResponseWriter, r *http.Request, status int, message string) {
	RespondWithJSON(w, status, ErrorResponse{
		Error:   message,
		TraceID: GetTraceID(r.Context()),
	})
}

// RespondWithErrorAndLog writes an error response and logs the underlying
// error with sensitive values redacted. Client errors (4xx) log at WARN,
// unless WithElevatedLogLevel asks for ERROR.
func RespondWithErrorAndLog(
	w http.ResponseWriter,
	r *http.Request,
	logger *slog.Logger,
	err error,
	status int,
	message string,
	opts ...ResponseOption,
) {
	options := &responseOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if logger == nil {
		logger = slog.Default()
	}

	attrs := []any{
		slog.Int("status", status),
		slog.String("path", r.URL.Path),
		slog.String("method", r.Method),
		slog.String("trace_id", GetTraceID(r.Context())),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", redact.Error(err)))
	}

	if status >= http.StatusInternalServerError || options.elevatedLogLevel {
		logger.Error(message, attrs...)
	} else {
		logger.Warn(message, attrs...)
	}

	RespondWithError(w, r, status, message)
}
