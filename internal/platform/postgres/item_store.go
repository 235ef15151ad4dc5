package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/phrazzld/vocab-api/internal/domain"
	"github.com/phrazzld/vocab-api/internal/platform/logger"
	"github.com/phrazzld/vocab-api/internal/store"
)

// PostgresItemStore implements the store.ItemStore interface
// using a PostgreSQL database as the storage backend.
// Review state is stored flattened into columns on the learning_items row.
type PostgresItemStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresItemStore creates a new PostgreSQL implementation of the ItemStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresItemStore(db store.DBTX, logger *slog.Logger) *PostgresItemStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforces non-nil dependency
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresItemStore{
		db:     db,
		logger: logger.With(slog.String("component", "item_store")),
	}
}

// Ensure PostgresItemStore implements store.ItemStore interface
var _ store.ItemStore = (*PostgresItemStore)(nil)

const itemColumns = `id, user_id, term, definition, example, group_key,
		ease_factor, interval_days, repetition_count, next_review_at, last_reviewed_at,
		total_reviews, correct_reviews, wrong_reviews, mastered,
		created_at, updated_at`

// Create implements store.ItemStore.Create
// It saves a new learning item, handling domain validation.
// Returns store.ErrInvalidEntity if the user ID doesn't exist (foreign key violation).
// Returns store.ErrDuplicate if an item with the same ID already exists.
func (s *PostgresItemStore) Create(ctx context.Context, item *domain.LearningItem) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := item.Validate(); err != nil {
		log.Warn("item validation failed during create",
			slog.String("error", err.Error()),
			slog.String("item_id", item.ID.String()))
		return err
	}

	query := `
		INSERT INTO learning_items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		item.ID,
		item.UserID,
		item.Term,
		item.Definition,
		item.Example,
		item.GroupKey,
		item.Review.EaseFactor,
		item.Review.IntervalDays,
		item.Review.RepetitionCount,
		nullableTime(item.Review.NextReviewAt),
		nullableTime(item.Review.LastReviewedAt),
		item.Review.TotalReviews,
		item.Review.CorrectReviews,
		item.Review.WrongReviews,
		item.Review.Mastered,
		item.CreatedAt,
		item.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolationCode {
			log.Warn("foreign key violation during item creation",
				slog.String("error", err.Error()),
				slog.String("item_id", item.ID.String()),
				slog.String("user_id", item.UserID.String()))
			return fmt.Errorf("%w: user with ID %s not found",
				store.ErrInvalidEntity, item.UserID)
		}

		log.Error("failed to create item",
			slog.String("error", err.Error()),
			slog.String("item_id", item.ID.String()),
			slog.String("user_id", item.UserID.String()))
		return MapError(err)
	}

	log.Info("item created successfully",
		slog.String("item_id", item.ID.String()),
		slog.String("user_id", item.UserID.String()))
	return nil
}

// GetByID implements store.ItemStore.GetByID
// Returns store.ErrItemNotFound if the item does not exist.
func (s *PostgresItemStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.LearningItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("retrieving item by ID", slog.String("item_id", id.String()))

	query := `
		SELECT ` + itemColumns + `
		FROM learning_items
		WHERE id = $1
	`

	item, err := scanItem(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("item not found", slog.String("item_id", id.String()))
			return nil, store.ErrItemNotFound
		}
		log.Error("failed to get item by ID",
			slog.String("error", err.Error()),
			slog.String("item_id", id.String()))
		return nil, MapError(err)
	}

	return item, nil
}

// ListByUser implements store.ItemStore.ListByUser
// It retrieves every item owned by a user, ordered by creation time.
// Returns an empty slice if the user has no items.
func (s *PostgresItemStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.LearningItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("listing items by user", slog.String("user_id", userID.String()))

	query := `
		SELECT ` + itemColumns + `
		FROM learning_items
		WHERE user_id = $1
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to query items by user",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	items := []*domain.LearningItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			log.Error("failed to scan item row",
				slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	log.Debug("listed items by user",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(items)))
	return items, nil
}

// Update implements store.ItemStore.Update
// It replaces an existing item, including its review state.
// Returns store.ErrItemNotFound if the item does not exist.
func (s *PostgresItemStore) Update(ctx context.Context, item *domain.LearningItem) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := item.Validate(); err != nil {
		log.Warn("item validation failed during update",
			slog.String("error", err.Error()),
			slog.String("item_id", item.ID.String()))
		return err
	}

	result, err := s.execUpdate(ctx, item)
	if err != nil {
		log.Error("failed to update item",
			slog.String("error", err.Error()),
			slog.String("item_id", item.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "item"); err != nil {
		log.Debug("item not found for update",
			slog.String("item_id", item.ID.String()))
		return store.ErrItemNotFound
	}

	log.Debug("item updated successfully",
		slog.String("item_id", item.ID.String()))
	return nil
}

// UpdateMultiple implements store.ItemStore.UpdateMultiple
// It replaces a batch of items in one pass, as the session-end bulk write.
// The caller must run it inside a transaction via WithTx; every item either
// updates or the whole call fails with the first error encountered.
// Returns store.ErrItemNotFound if any item in the batch does not exist.
func (s *PostgresItemStore) UpdateMultiple(
	ctx context.Context,
	items []*domain.LearningItem,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(items) == 0 {
		log.Debug("no items to update")
		return nil
	}

	for _, item := range items {
		if err := item.Validate(); err != nil {
			log.Warn("item validation failed during bulk update",
				slog.String("error", err.Error()),
				slog.String("item_id", item.ID.String()))
			return err
		}
	}

	for _, item := range items {
		result, err := s.execUpdate(ctx, item)
		if err != nil {
			log.Error("failed to update item in batch",
				slog.String("error", err.Error()),
				slog.String("item_id", item.ID.String()))
			return MapError(err)
		}
		if err := CheckRowsAffected(result, "item"); err != nil {
			log.Warn("item missing during bulk update",
				slog.String("item_id", item.ID.String()))
			return fmt.Errorf("%w: %s", store.ErrItemNotFound, item.ID)
		}
	}

	log.Info("items updated in bulk", slog.Int("count", len(items)))
	return nil
}

// Delete implements store.ItemStore.Delete
// Returns store.ErrItemNotFound if the item does not exist.
func (s *PostgresItemStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM learning_items WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		log.Error("failed to delete item",
			slog.String("error", err.Error()),
			slog.String("item_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "item"); err != nil {
		log.Debug("item not found for delete",
			slog.String("item_id", id.String()))
		return store.ErrItemNotFound
	}

	log.Info("item deleted successfully", slog.String("item_id", id.String()))
	return nil
}

// WithTx implements store.ItemStore.WithTx
// It returns a new ItemStore bound to the given transaction.
func (s *PostgresItemStore) WithTx(tx *sql.Tx) store.ItemStore {
	return &PostgresItemStore{
		db:     tx,
		logger: s.logger,
	}
}

func (s *PostgresItemStore) execUpdate(
	ctx context.Context,
	item *domain.LearningItem,
) (sql.Result, error) {
	query := `
		UPDATE learning_items
		SET term = $1, definition = $2, example = $3, group_key = $4,
			ease_factor = $5, interval_days = $6, repetition_count = $7,
			next_review_at = $8, last_reviewed_at = $9,
			total_reviews = $10, correct_reviews = $11, wrong_reviews = $12,
			mastered = $13, updated_at = $14
		WHERE id = $15
	`
	return s.db.ExecContext(
		ctx,
		query,
		item.Term,
		item.Definition,
		item.Example,
		item.GroupKey,
		item.Review.EaseFactor,
		item.Review.IntervalDays,
		item.Review.RepetitionCount,
		nullableTime(item.Review.NextReviewAt),
		nullableTime(item.Review.LastReviewedAt),
		item.Review.TotalReviews,
		item.Review.CorrectReviews,
		item.Review.WrongReviews,
		item.Review.Mastered,
		item.UpdatedAt,
		item.ID,
	)
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanItem reads one learning_items row into a domain item, converting the
// nullable review timestamps back to zero time values.
func scanItem(row rowScanner) (*domain.LearningItem, error) {
	var item domain.LearningItem
	var nextReviewAt, lastReviewedAt sql.NullTime

	err := row.Scan(
		&item.ID,
		&item.UserID,
		&item.Term,
		&item.Definition,
		&item.Example,
		&item.GroupKey,
		&item.Review.EaseFactor,
		&item.Review.IntervalDays,
		&item.Review.RepetitionCount,
		&nextReviewAt,
		&lastReviewedAt,
		&item.Review.TotalReviews,
		&item.Review.CorrectReviews,
		&item.Review.WrongReviews,
		&item.Review.Mastered,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if nextReviewAt.Valid {
		item.Review.NextReviewAt = nextReviewAt.Time
	}
	if lastReviewedAt.Valid {
		item.Review.LastReviewedAt = lastReviewedAt.Time
	}

	return &item, nil
}

// nullableTime converts a zero time to a SQL NULL so "due immediately" and
// "never reviewed" survive the round trip through the database.
func nullableTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
