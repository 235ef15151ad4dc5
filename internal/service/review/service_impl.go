package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/vocab-api/internal/domain"
	"github.com/phrazzld/vocab-api/internal/domain/planner"
	"github.com/phrazzld/vocab-api/internal/domain/srs"
	"github.com/phrazzld/vocab-api/internal/platform/logger"
	"github.com/phrazzld/vocab-api/internal/session"
	"github.com/phrazzld/vocab-api/internal/store"
)

// activeSession is one user's in-flight review session.
type activeSession struct {
	mu          sync.Mutex
	accumulator *session.Accumulator
	items       map[uuid.UUID]*domain.LearningItem // Latest buffered version of each queued item

	// pendingResult holds a flushed-but-uncommitted result when the commit
	// transaction failed. The next End/Abandon call retries the commit with
	// the same result instead of losing the session.
	pendingResult    *session.Result
	pendingAbandoned bool
}

type reviewService struct {
	db             *sql.DB
	itemStore      store.ItemStore
	reviewLogStore store.ReviewLogStore
	planner        *planner.Planner
	srsService     srs.Service
	logger         *slog.Logger

	// runTx executes a function inside a database transaction. Swappable
	// so tests can run commits against fake stores.
	runTx func(ctx context.Context, fn store.TxFn) error

	mu       sync.Mutex
	sessions map[uuid.UUID]*activeSession
}

// Ensure reviewService implements Service interface
var _ Service = (*reviewService)(nil)

// NewService creates the review session service.
func NewService(
	db *sql.DB,
	itemStore store.ItemStore,
	reviewLogStore store.ReviewLogStore,
	srsService srs.Service,
	sessionPlanner *planner.Planner,
	log *slog.Logger,
) Service {
	if db == nil || itemStore == nil || reviewLogStore == nil {
		// ALLOW-PANIC: Constructor enforcing required dependencies
		panic("db, itemStore and reviewLogStore cannot be nil")
	}
	if srsService == nil {
		srsService = srs.NewDefaultService()
	}
	if sessionPlanner == nil {
		sessionPlanner = planner.New(nil, srsService)
	}
	if log == nil {
		log = slog.Default()
	}

	svc := &reviewService{
		db:             db,
		itemStore:      itemStore,
		reviewLogStore: reviewLogStore,
		planner:        sessionPlanner,
		srsService:     srsService,
		logger:         log.With(slog.String("component", "review_service")),
		sessions:       make(map[uuid.UUID]*activeSession),
	}
	svc.runTx = func(ctx context.Context, fn store.TxFn) error {
		return store.RunInTransaction(ctx, svc.db, fn)
	}
	return svc
}

// StartSession implements Service.StartSession
func (s *reviewService) StartSession(
	ctx context.Context,
	userID uuid.UUID,
	limit, batchSize int,
) (*SessionPlan, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := time.Now().UTC()

	s.mu.Lock()
	if _, exists := s.sessions[userID]; exists {
		s.mu.Unlock()
		return nil, ErrSessionInProgress
	}
	// Reserve the slot before the store reads so two concurrent starts
	// cannot both plan a session.
	sess := &activeSession{}
	sess.mu.Lock()
	s.sessions[userID] = sess
	s.mu.Unlock()
	defer sess.mu.Unlock()

	release := func() {
		s.mu.Lock()
		delete(s.sessions, userID)
		s.mu.Unlock()
	}

	// Snapshot read: the session works off this one read, never re-reading
	// mid-session.
	allItems, err := s.itemStore.ListByUser(ctx, userID)
	if err != nil {
		release()
		return nil, newError("start_session", "failed to load items", err)
	}

	dueItems := s.planner.DueItems(allItems, now)
	queue, err := s.planner.SelectForSession(allItems, dueItems, limit, now)
	if err != nil {
		release()
		return nil, newError("start_session", "failed to plan queue", err)
	}

	batches, err := s.planner.PlanBatches(queue, batchSize)
	if err != nil {
		release()
		return nil, newError("start_session", "failed to plan batches", err)
	}

	acc := session.NewAccumulator(s.srsService, s.logger)
	if err := acc.Start(queue); err != nil {
		release()
		return nil, newError("start_session", "failed to start accumulator", err)
	}

	items := make(map[uuid.UUID]*domain.LearningItem, len(queue))
	for _, item := range queue {
		items[item.ID] = item
	}

	sess.accumulator = acc
	sess.items = items

	log.Info("review session started",
		slog.String("user_id", userID.String()),
		slog.Int("queue_length", len(queue)),
		slog.Int("due_count", len(dueItems)),
		slog.Int("batch_count", len(batches)))

	return &SessionPlan{
		Queue:     queue,
		Batches:   batches,
		BatchSize: batchSize,
	}, nil
}

// SubmitAnswer implements Service.SubmitAnswer
func (s *reviewService) SubmitAnswer(
	ctx context.Context,
	userID, itemID uuid.UUID,
	answer ReviewAnswer,
) (*domain.LearningItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	sess, err := s.lookupSession(userID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.accumulator == nil || !sess.accumulator.InSession() {
		return nil, ErrNoActiveSession
	}

	item, ok := sess.items[itemID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrItemNotInSession, itemID)
	}

	quality, err := s.resolveQuality(answer)
	if err != nil {
		return nil, err
	}

	updated, err := sess.accumulator.RecordOutcome(item, quality, time.Now().UTC())
	if err != nil {
		if errors.Is(err, srs.ErrInvalidQuality) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAnswer, err)
		}
		return nil, newError("submit_answer", "failed to record outcome", err)
	}

	// Track the latest version so re-answering the same item in one session
	// builds on the buffered state, not the stale snapshot.
	sess.items[itemID] = updated

	log.Debug("answer recorded",
		slog.String("user_id", userID.String()),
		slog.String("item_id", itemID.String()),
		slog.Int("quality", int(quality)))

	return updated, nil
}

// EndSession implements Service.EndSession
func (s *reviewService) EndSession(ctx context.Context, userID uuid.UUID) (*SessionSummary, error) {
	return s.finish(ctx, userID, false)
}

// AbandonSession implements Service.AbandonSession
func (s *reviewService) AbandonSession(
	ctx context.Context,
	userID uuid.UUID,
) (*SessionSummary, error) {
	return s.finish(ctx, userID, true)
}

// DueItems implements Service.DueItems
func (s *reviewService) DueItems(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.LearningItem, error) {
	allItems, err := s.itemStore.ListByUser(ctx, userID)
	if err != nil {
		return nil, newError("due_items", "failed to load items", err)
	}
	return s.planner.DueItems(allItems, time.Now().UTC()), nil
}

// WeakItems implements Service.WeakItems
func (s *reviewService) WeakItems(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.LearningItem, error) {
	allItems, err := s.itemStore.ListByUser(ctx, userID)
	if err != nil {
		return nil, newError("weak_items", "failed to load items", err)
	}

	weak := make([]*domain.LearningItem, 0)
	for _, item := range allItems {
		if s.srsService.IsWeak(item.Review) {
			weak = append(weak, item)
		}
	}
	return weak, nil
}

// PostponeItem implements Service.PostponeItem
func (s *reviewService) PostponeItem(
	ctx context.Context,
	userID, itemID uuid.UUID,
	days int,
) (*domain.LearningItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Refuse external schedule changes while a session is buffering state
	// for this user.
	s.mu.Lock()
	_, inSession := s.sessions[userID]
	s.mu.Unlock()
	if inSession {
		return nil, ErrSessionInProgress
	}

	item, err := s.itemStore.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, newError("postpone_item", "failed to load item", err)
	}
	if item.UserID != userID {
		return nil, fmt.Errorf("%w: item %s", ErrItemNotOwned, itemID)
	}

	now := time.Now().UTC()
	newState, err := s.srsService.PostponeReview(item.Review, days, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAnswer, err)
	}

	updated := item.WithReview(newState, now)
	if err := s.itemStore.Update(ctx, updated); err != nil {
		return nil, newError("postpone_item", "failed to save item", err)
	}

	log.Info("item postponed",
		slog.String("user_id", userID.String()),
		slog.String("item_id", itemID.String()),
		slog.Int("days", days))

	return updated, nil
}

// finish flushes the user's session and commits the result. On commit
// failure the flushed result is parked on the session so a retry recommits
// instead of dropping the learner's answers.
func (s *reviewService) finish(
	ctx context.Context,
	userID uuid.UUID,
	abandoned bool,
) (*SessionSummary, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	sess, err := s.lookupSession(userID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	result := sess.pendingResult
	if result == nil {
		if sess.accumulator == nil {
			return nil, ErrNoActiveSession
		}
		if abandoned {
			result, err = sess.accumulator.Abandon()
		} else {
			result, err = sess.accumulator.End()
		}
		if err != nil {
			if errors.Is(err, session.ErrSessionState) {
				return nil, ErrNoActiveSession
			}
			return nil, newError("end_session", "failed to flush session", err)
		}
	} else {
		abandoned = sess.pendingAbandoned
	}

	if err := s.commit(ctx, userID, result, abandoned); err != nil {
		sess.pendingResult = result
		sess.pendingAbandoned = abandoned
		return nil, newError("end_session", "failed to commit session", err)
	}

	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()

	log.Info("review session finished",
		slog.String("user_id", userID.String()),
		slog.Bool("abandoned", abandoned),
		slog.Int("reviewed", result.Stats.TotalReviewed),
		slog.Int("xp_earned", result.Stats.XPEarned))

	return &SessionSummary{Stats: result.Stats, Abandoned: abandoned}, nil
}

// commit writes the consolidated session result: every updated item plus one
// review log row, atomically. A session with no answers skips the write
// entirely.
func (s *reviewService) commit(
	ctx context.Context,
	userID uuid.UUID,
	result *session.Result,
	abandoned bool,
) error {
	if result.Stats.TotalReviewed == 0 {
		return nil
	}

	reviewLog, err := domain.NewReviewLog(
		userID,
		result.Stats.TotalReviewed,
		result.Stats.Correct,
		result.Stats.Incorrect,
		result.Stats.XPEarned,
		abandoned,
	)
	if err != nil {
		return fmt.Errorf("failed to build review log: %w", err)
	}

	return s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.itemStore.WithTx(tx).UpdateMultiple(ctx, result.UpdatedItems); err != nil {
			return fmt.Errorf("failed to update items: %w", err)
		}
		if err := s.reviewLogStore.WithTx(tx).Create(ctx, reviewLog); err != nil {
			return fmt.Errorf("failed to create review log: %w", err)
		}
		return nil
	})
}

func (s *reviewService) lookupSession(userID uuid.UUID) (*activeSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return nil, ErrNoActiveSession
	}
	return sess, nil
}

// resolveQuality picks the quality from an answer: explicit quality wins,
// otherwise the rating label is mapped. An answer with neither is invalid.
func (s *reviewService) resolveQuality(answer ReviewAnswer) (srs.Quality, error) {
	if answer.Quality != nil {
		q := srs.Quality(*answer.Quality)
		if q < srs.QualityBlackout || q > srs.QualityPerfect {
			return 0, fmt.Errorf("%w: quality %d out of range", ErrInvalidAnswer, *answer.Quality)
		}
		return q, nil
	}
	if answer.Rating == "" {
		return 0, fmt.Errorf("%w: answer must carry a quality or rating", ErrInvalidAnswer)
	}
	return s.srsService.QualityFromRating(answer.Rating), nil
}
