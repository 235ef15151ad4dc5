// Package middleware provides HTTP middleware for the API: request tracing
// and JWT authentication.
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/vocab-api/internal/api/shared"
	"github.com/phrazzld/vocab-api/internal/platform/logger"
)

// TraceHeader is the response header carrying the request trace ID.
const TraceHeader = "X-Trace-ID"

// TraceMiddleware assigns every request a trace ID, echoes it in the
// response headers, and attaches a trace-scoped logger to the context.
func TraceMiddleware(baseLogger *slog.Logger) func(http.Handler) http.Handler {
	if baseLogger == nil {
		baseLogger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := r.Header.Get(TraceHeader)
			if traceID == "" {
				traceID = shared.GenerateTraceID()
			}

			ctx := shared.SetTraceID(r.Context(), traceID)
			ctx = logger.WithLogger(ctx, baseLogger.With(slog.String("trace_id", traceID)))

			w.Header().Set(TraceHeader, traceID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
