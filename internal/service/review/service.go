// Package review orchestrates interactive review sessions: planning the
// candidate queue, buffering answers through a session accumulator, and
// committing the consolidated result in a single transaction.
package review

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/phrazzld/vocab-api/internal/domain"
	"github.com/phrazzld/vocab-api/internal/domain/srs"
	"github.com/phrazzld/vocab-api/internal/session"
)

// ReviewAnswer represents a user's answer for one item. Quality takes
// precedence when set; otherwise Rating is mapped through the SRS service.
type ReviewAnswer struct {
	Quality *int       `json:"quality,omitempty"` // Raw 0-5 recall quality
	Rating  srs.Rating `json:"rating,omitempty"`  // User-facing label: again, hard, good, easy
}

// SessionPlan describes a freshly started session: the full ordered queue
// and its batch windows.
type SessionPlan struct {
	Queue     []*domain.LearningItem   `json:"queue"`
	Batches   [][]*domain.LearningItem `json:"batches"`
	BatchSize int                      `json:"batch_size"`
}

// SessionSummary is the aggregate result of a finished or abandoned session.
type SessionSummary struct {
	Stats     session.Stats `json:"stats"`
	Abandoned bool          `json:"abandoned"`
}

// Service drives review sessions for all users. One session per user at a
// time; answers are buffered in memory and persisted only at session end.
type Service interface {
	// StartSession plans a session queue and opens a session for the user.
	// Returns ErrSessionInProgress if the user already has one in flight.
	StartSession(ctx context.Context, userID uuid.UUID, limit, batchSize int) (*SessionPlan, error)

	// SubmitAnswer records one answered item in the user's active session.
	// The updated item is returned for immediate feedback but not persisted.
	// Returns ErrNoActiveSession, ErrItemNotInSession, or ErrInvalidAnswer.
	SubmitAnswer(ctx context.Context, userID, itemID uuid.UUID, answer ReviewAnswer) (*domain.LearningItem, error)

	// EndSession finishes the user's session and commits every buffered
	// update plus one review log row in a single transaction.
	// Returns ErrNoActiveSession if no session is in flight.
	EndSession(ctx context.Context, userID uuid.UUID) (*SessionSummary, error)

	// AbandonSession flushes like EndSession; answers already given are kept.
	// The resulting review log is marked abandoned.
	AbandonSession(ctx context.Context, userID uuid.UUID) (*SessionSummary, error)

	// DueItems returns the user's currently due items in snapshot order.
	DueItems(ctx context.Context, userID uuid.UUID) ([]*domain.LearningItem, error)

	// WeakItems returns items with a poor track record: at least three
	// reviews and a failure rate of 30% or more.
	WeakItems(ctx context.Context, userID uuid.UUID) ([]*domain.LearningItem, error)

	// PostponeItem pushes an item's next review forward by days.
	// Rejected with ErrSessionInProgress while the user has a session in
	// flight, so external updates never race the buffered session state.
	PostponeItem(ctx context.Context, userID, itemID uuid.UUID, days int) (*domain.LearningItem, error)
}

// Common error types for the review service
var (
	// ErrSessionInProgress indicates the user already has an active session.
	ErrSessionInProgress = errors.New("session already in progress")

	// ErrNoActiveSession indicates no session is in flight for the user.
	ErrNoActiveSession = errors.New("no active session")

	// ErrItemNotInSession indicates the answered item is not part of the
	// active session's queue.
	ErrItemNotInSession = errors.New("item not in session queue")

	// ErrInvalidAnswer indicates an invalid answer was provided.
	ErrInvalidAnswer = errors.New("invalid answer")

	// ErrItemNotFound indicates that the item does not exist.
	ErrItemNotFound = errors.New("item not found")

	// ErrItemNotOwned indicates that the user does not own the item.
	ErrItemNotOwned = errors.New("unauthorized access: item not owned by user")
)

// ServiceError wraps errors from the review service with operation context.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "start_session")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

func newError(operation, message string, err error) *ServiceError {
	return &ServiceError{Operation: operation, Message: message, Err: err}
}
