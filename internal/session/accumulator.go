// Package session buffers per-item review outcomes during one interactive
// session and produces a single consolidated commit when the session ends.
// Deferring the flush keeps the external store quiet while the learner is
// mid-review: one bulk write per session instead of a write per answer.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/vocab-api/internal/domain"
	"github.com/phrazzld/vocab-api/internal/domain/srs"
)

// State is the accumulator's lifecycle state.
type State string

// Possible accumulator states. The machine is deliberately two-state:
// Idle -> InSession -> Idle, no nesting.
const (
	StateIdle      State = "idle"
	StateInSession State = "in_session"
)

// ErrSessionState is the kind shared by all state-misuse errors, so callers
// can distinguish their own session-management bugs from data errors.
var ErrSessionState = errors.New("invalid session state")

// StateError reports an operation attempted in the wrong accumulator state.
type StateError struct {
	Operation string // The operation that was attempted (e.g. "record_outcome")
	State     State  // The state the accumulator was in
}

// Error implements the error interface for StateError.
func (e *StateError) Error() string {
	return fmt.Sprintf("%s not valid in state %q: %v", e.Operation, e.State, ErrSessionState)
}

// Unwrap returns ErrSessionState to support errors.Is.
func (e *StateError) Unwrap() error {
	return ErrSessionState
}

// XP awarded per answered item, by recall quality.
const (
	xpEasyAnswer    = 15 // quality >= 4
	xpGoodAnswer    = 10 // quality == 3
	xpDefaultAnswer = 5  // anything below the pass threshold
)

// Outcome is one buffered review result.
type Outcome struct {
	Item    *domain.LearningItem // Item carrying the post-review state
	Quality srs.Quality
}

// Stats aggregates one session's results.
type Stats struct {
	TotalReviewed int `json:"total_reviewed"`
	Correct       int `json:"correct"`
	Incorrect     int `json:"incorrect"`
	XPEarned      int `json:"xp_earned"`
}

// Result is the consolidated commit produced at session end: every updated
// item for one bulk write, plus the aggregate counters. The accumulator's
// buffers are cleared on return, but the Result itself stays valid — a
// caller whose store write fails retries with the same Result.
type Result struct {
	UpdatedItems []*domain.LearningItem
	Stats        Stats
}

// Accumulator drives one interactive review session. It is a single-writer
// buffer: one session is driven by one control flow, and concurrent
// RecordOutcome calls are not supported.
type Accumulator struct {
	state      State
	queue      []*domain.LearningItem
	outcomes   []Outcome
	stats      Stats
	srsService srs.Service
	logger     *slog.Logger
}

// NewAccumulator creates an idle session accumulator.
func NewAccumulator(srsService srs.Service, logger *slog.Logger) *Accumulator {
	if srsService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("srsService cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Accumulator{
		state:      StateIdle,
		srsService: srsService,
		logger:     logger.With(slog.String("component", "session_accumulator")),
	}
}

// State returns the current lifecycle state.
func (a *Accumulator) State() State {
	return a.state
}

// InSession reports whether a session is in flight. Callers use this to
// suppress applying externally-pushed item updates while the learner is
// mid-review.
func (a *Accumulator) InSession() bool {
	return a.state == StateInSession
}

// Queue returns the candidate queue the current session was started with.
func (a *Accumulator) Queue() []*domain.LearningItem {
	return a.queue
}

// Start begins a session over the given candidate queue and resets all
// buffers. Returns a StateError if a session is already in flight.
func (a *Accumulator) Start(queue []*domain.LearningItem) error {
	if a.state != StateIdle {
		return &StateError{Operation: "start_session", State: a.state}
	}

	a.state = StateInSession
	a.queue = queue
	a.outcomes = nil
	a.stats = Stats{}

	a.logger.Debug("session started", slog.Int("queue_length", len(queue)))
	return nil
}

// RecordOutcome processes one answered item: it runs the SRS transition,
// buffers the updated item, and updates the running tally. The updated item
// is returned immediately so the caller can render feedback, but nothing is
// persisted until the session is flushed.
func (a *Accumulator) RecordOutcome(
	item *domain.LearningItem,
	quality srs.Quality,
	now time.Time,
) (*domain.LearningItem, error) {
	if a.state != StateInSession {
		return nil, &StateError{Operation: "record_outcome", State: a.state}
	}

	newState, err := a.srsService.ProcessReview(item.Review, quality, now)
	if err != nil {
		return nil, fmt.Errorf("failed to process review: %w", err)
	}

	updated := item.WithReview(newState, now)
	a.outcomes = append(a.outcomes, Outcome{Item: updated, Quality: quality})

	a.stats.TotalReviewed++
	if a.srsService.IsPassing(quality) {
		a.stats.Correct++
	} else {
		a.stats.Incorrect++
	}
	a.stats.XPEarned += xpForQuality(quality)

	a.logger.Debug("outcome recorded",
		slog.String("item_id", updated.ID.String()),
		slog.Int("quality", int(quality)),
		slog.Int("buffered", len(a.outcomes)))

	return updated, nil
}

// End finishes the session, returning the consolidated commit and
// transitioning back to Idle. Calling End without a session in flight is a
// StateError, never a silent empty result.
func (a *Accumulator) End() (*Result, error) {
	return a.flush("end_session", false)
}

// Abandon flushes exactly like End; it exists to document the "learner
// navigated away mid-batch" path. Answers already given are real signal,
// so they are returned for persistence — discarding them is a caller
// policy, not accumulator behavior.
func (a *Accumulator) Abandon() (*Result, error) {
	return a.flush("abandon_session", true)
}

func (a *Accumulator) flush(operation string, abandoned bool) (*Result, error) {
	if a.state != StateInSession {
		return nil, &StateError{Operation: operation, State: a.state}
	}

	result := &Result{
		UpdatedItems: make([]*domain.LearningItem, 0, len(a.outcomes)),
		Stats:        a.stats,
	}
	for _, outcome := range a.outcomes {
		result.UpdatedItems = append(result.UpdatedItems, outcome.Item)
	}

	a.logger.Debug("session flushed",
		slog.Bool("abandoned", abandoned),
		slog.Int("reviewed", result.Stats.TotalReviewed),
		slog.Int("xp_earned", result.Stats.XPEarned))

	a.state = StateIdle
	a.queue = nil
	a.outcomes = nil
	a.stats = Stats{}

	return result, nil
}

// xpForQuality maps one answer's quality to earned points.
func xpForQuality(quality srs.Quality) int {
	switch {
	case quality >= srs.QualityGood:
		return xpEasyAnswer
	case quality == srs.QualityHard:
		return xpGoodAnswer
	default:
		return xpDefaultAnswer
	}
}
