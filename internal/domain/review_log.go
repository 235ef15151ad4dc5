package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ReviewLog-specific validation errors
var (
	// ErrReviewLogIDEmpty is returned when a review log ID is empty or nil.
	ErrReviewLogIDEmpty = fmt.Errorf("%w: review log ID cannot be empty", ErrValidation)

	// ErrReviewLogUserIDEmpty is returned when a review log's user ID is empty or nil.
	ErrReviewLogUserIDEmpty = fmt.Errorf("%w: review log user ID cannot be empty", ErrValidation)

	// ErrReviewLogCountMismatch is returned when the reviewed count does not
	// equal the sum of the correct and incorrect counts.
	ErrReviewLogCountMismatch = fmt.Errorf(
		"%w: reviewed count must equal correct plus incorrect", ErrValidation)
)

// ReviewLog records the aggregate outcome of one completed (or abandoned)
// review session. One row is written per session at flush time; individual
// answers are never persisted separately.
type ReviewLog struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Reviewed  int       `json:"reviewed"`
	Correct   int       `json:"correct"`
	Incorrect int       `json:"incorrect"`
	XPEarned  int       `json:"xp_earned"`
	Abandoned bool      `json:"abandoned"` // True when the session ended via abandon rather than finish
	CreatedAt time.Time `json:"created_at"`
}

// NewReviewLog creates a review log entry for a flushed session.
// Returns an error if validation fails.
func NewReviewLog(userID uuid.UUID, reviewed, correct, incorrect, xpEarned int, abandoned bool) (*ReviewLog, error) {
	log := &ReviewLog{
		ID:        uuid.New(),
		UserID:    userID,
		Reviewed:  reviewed,
		Correct:   correct,
		Incorrect: incorrect,
		XPEarned:  xpEarned,
		Abandoned: abandoned,
		CreatedAt: time.Now().UTC(),
	}

	if err := log.Validate(); err != nil {
		return nil, err
	}

	return log, nil
}

// Validate checks if the ReviewLog has valid data.
func (l *ReviewLog) Validate() error {
	if l.ID == uuid.Nil {
		return ErrReviewLogIDEmpty
	}

	if l.UserID == uuid.Nil {
		return ErrReviewLogUserIDEmpty
	}

	if l.Reviewed < 0 || l.Correct < 0 || l.Incorrect < 0 || l.XPEarned < 0 {
		return ErrNegativeReviewCount
	}

	if l.Reviewed != l.Correct+l.Incorrect {
		return ErrReviewLogCountMismatch
	}

	return nil
}
