package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/phrazzld/vocab-api/internal/domain"
	"github.com/phrazzld/vocab-api/internal/platform/logger"
	"github.com/phrazzld/vocab-api/internal/store"
)

// defaultReviewLogLimit bounds ListByUser when the caller passes a
// non-positive limit.
const defaultReviewLogLimit = 20

// PostgresReviewLogStore implements the store.ReviewLogStore interface
// using a PostgreSQL database as the storage backend.
type PostgresReviewLogStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresReviewLogStore creates a new PostgreSQL implementation of the
// ReviewLogStore interface.
func NewPostgresReviewLogStore(db store.DBTX, logger *slog.Logger) *PostgresReviewLogStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforces non-nil dependency
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresReviewLogStore{
		db:     db,
		logger: logger.With(slog.String("component", "review_log_store")),
	}
}

// Ensure PostgresReviewLogStore implements store.ReviewLogStore interface
var _ store.ReviewLogStore = (*PostgresReviewLogStore)(nil)

// Create implements store.ReviewLogStore.Create
// It saves the aggregate record of one flushed session.
// Returns store.ErrInvalidEntity if the user ID doesn't exist (foreign key violation).
func (s *PostgresReviewLogStore) Create(ctx context.Context, reviewLog *domain.ReviewLog) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := reviewLog.Validate(); err != nil {
		log.Warn("review log validation failed during create",
			slog.String("error", err.Error()),
			slog.String("review_log_id", reviewLog.ID.String()))
		return err
	}

	query := `
		INSERT INTO review_logs (id, user_id, reviewed, correct, incorrect, xp_earned, abandoned, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		reviewLog.ID,
		reviewLog.UserID,
		reviewLog.Reviewed,
		reviewLog.Correct,
		reviewLog.Incorrect,
		reviewLog.XPEarned,
		reviewLog.Abandoned,
		reviewLog.CreatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolationCode {
			log.Warn("foreign key violation during review log creation",
				slog.String("error", err.Error()),
				slog.String("user_id", reviewLog.UserID.String()))
			return fmt.Errorf("%w: user with ID %s not found",
				store.ErrInvalidEntity, reviewLog.UserID)
		}

		log.Error("failed to create review log",
			slog.String("error", err.Error()),
			slog.String("review_log_id", reviewLog.ID.String()))
		return MapError(err)
	}

	log.Info("review log created successfully",
		slog.String("review_log_id", reviewLog.ID.String()),
		slog.String("user_id", reviewLog.UserID.String()),
		slog.Int("reviewed", reviewLog.Reviewed),
		slog.Int("xp_earned", reviewLog.XPEarned))
	return nil
}

// ListByUser implements store.ReviewLogStore.ListByUser
// It retrieves a user's most recent session logs, newest first.
// Returns an empty slice if the user has no logs.
func (s *PostgresReviewLogStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	limit int,
) ([]*domain.ReviewLog, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = defaultReviewLogLimit
	}

	query := `
		SELECT id, user_id, reviewed, correct, incorrect, xp_earned, abandoned, created_at
		FROM review_logs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		log.Error("failed to query review logs",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	logs := []*domain.ReviewLog{}
	for rows.Next() {
		var rl domain.ReviewLog
		err := rows.Scan(
			&rl.ID,
			&rl.UserID,
			&rl.Reviewed,
			&rl.Correct,
			&rl.Incorrect,
			&rl.XPEarned,
			&rl.Abandoned,
			&rl.CreatedAt,
		)
		if err != nil {
			log.Error("failed to scan review log row",
				slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		logs = append(logs, &rl)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	log.Debug("listed review logs",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(logs)))
	return logs, nil
}

// WithTx implements store.ReviewLogStore.WithTx
// It returns a new ReviewLogStore bound to the given transaction.
func (s *PostgresReviewLogStore) WithTx(tx *sql.Tx) store.ReviewLogStore {
	return &PostgresReviewLogStore{
		db:     tx,
		logger: s.logger,
	}
}
