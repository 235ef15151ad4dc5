// Package shared provides helpers used across all API handlers: request
// decoding, response writing, and context keys.
package shared

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// ContextKey is a custom type for context keys to prevent collisions.
type ContextKey string

const (
	// UserIDContextKey is the key for the authenticated user ID in the request context.
	UserIDContextKey ContextKey = "userID"

	// TraceIDKey is the key for the request trace ID in the request context.
	TraceIDKey ContextKey = "traceID"
)

// SetTraceID stores a trace ID in the context.
func SetTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID retrieves the trace ID from the context.
// Returns an empty string if no trace ID is present.
func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
		return traceID
	}
	return ""
}

// GenerateTraceID creates a random hex trace ID. Falls back to a
// timestamp-based ID if the system random source fails.
func GenerateTraceID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("trace-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(bytes)
}
