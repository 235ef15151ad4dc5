package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/vocab-api/internal/domain"
)

// ReviewLogStore defines the interface for persisted session aggregates.
// Exactly one row is written per flushed session, inside the same
// transaction as the item batch, so stats and items can never drift apart.
type ReviewLogStore interface {
	// Create saves the aggregate record of one flushed session.
	Create(ctx context.Context, log *domain.ReviewLog) error

	// ListByUser retrieves a user's most recent session logs,
	// newest first, up to limit entries.
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.ReviewLog, error)

	// WithTx returns a new ReviewLogStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ReviewLogStore
}
