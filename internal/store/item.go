package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/vocab-api/internal/domain"
)

// ItemStore defines the interface for learning item persistence.
type ItemStore interface {
	// Create saves a new learning item.
	// It handles domain validation internally.
	// Returns ErrDuplicate if an item with the same ID already exists.
	Create(ctx context.Context, item *domain.LearningItem) error

	// GetByID retrieves an item by its unique ID.
	// Returns ErrItemNotFound if the item does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.LearningItem, error)

	// ListByUser retrieves every item owned by a user, ordered by creation
	// time. This is the snapshot read taken before planning a session; the
	// core never re-reads mid-session.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.LearningItem, error)

	// Update replaces an existing item, including its review state.
	// Returns ErrItemNotFound if the item does not exist.
	Update(ctx context.Context, item *domain.LearningItem) error

	// UpdateMultiple replaces a batch of items in one pass. This is the
	// session-end bulk write and MUST run within a transaction via WithTx so
	// the whole batch succeeds or fails together; partially applied sessions
	// are exactly the failure mode the accumulator exists to avoid.
	UpdateMultiple(ctx context.Context, items []*domain.LearningItem) error

	// Delete removes an item by its ID, discarding its review state with it.
	// Returns ErrItemNotFound if the item does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new ItemStore instance that uses the provided transaction.
	// The transaction should be created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) ItemStore
}
