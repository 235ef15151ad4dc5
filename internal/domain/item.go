package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Item-specific validation errors. All wrap ErrValidation so callers can
// treat any of them as a validation failure.
var (
	// ErrItemIDEmpty is returned when an item ID is empty or nil.
	ErrItemIDEmpty = fmt.Errorf("%w: item ID cannot be empty", ErrValidation)

	// ErrItemUserIDEmpty is returned when an item's user ID is empty or nil.
	ErrItemUserIDEmpty = fmt.Errorf("%w: item user ID cannot be empty", ErrValidation)

	// ErrItemTermEmpty is returned when an item's term is empty.
	ErrItemTermEmpty = fmt.Errorf("%w: item term cannot be empty", ErrValidation)

	// ErrItemDefinitionEmpty is returned when an item's definition is empty.
	ErrItemDefinitionEmpty = fmt.Errorf("%w: item definition cannot be empty", ErrValidation)

	// ErrInvalidInterval is returned when a review interval is negative.
	ErrInvalidInterval = fmt.Errorf("%w: interval must be greater than or equal to 0", ErrValidation)

	// ErrInvalidEaseFactor is returned when an ease factor is set but not above 1.0.
	ErrInvalidEaseFactor = fmt.Errorf("%w: ease factor must be greater than 1.0", ErrValidation)

	// ErrNegativeReviewCount is returned when any review counter is negative.
	ErrNegativeReviewCount = fmt.Errorf("%w: review counters cannot be negative", ErrValidation)

	// ErrReviewCountMismatch is returned when the total review counter does not
	// equal the sum of the correct and wrong counters.
	ErrReviewCountMismatch = fmt.Errorf(
		"%w: total reviews must equal correct plus wrong reviews", ErrValidation)
)

// DefaultEaseFactor is the SM-2 starting ease factor for a new item.
const DefaultEaseFactor = 2.5

// ReviewState tracks an item's spaced repetition scheduling state.
// A zero-value ReviewState (EaseFactor == 0) represents an item that has
// never been reviewed; the SRS service normalizes it on first review.
type ReviewState struct {
	EaseFactor      float64   `json:"ease_factor"`      // SM-2 ease factor, floored at 1.3 once set
	IntervalDays    int       `json:"interval_days"`    // Days until next due date after the latest review
	RepetitionCount int       `json:"repetition_count"` // Consecutive correct reviews since the last failure
	NextReviewAt    time.Time `json:"next_review_at"`   // Zero time means "due immediately"
	LastReviewedAt  time.Time `json:"last_reviewed_at"` // Zero time means "never reviewed"
	TotalReviews    int       `json:"total_reviews"`
	CorrectReviews  int       `json:"correct_reviews"`
	WrongReviews    int       `json:"wrong_reviews"`
	Mastered        bool      `json:"mastered"` // True once the full interval ladder has been climbed
}

// NewReviewState returns the initial review state for a freshly created item.
// The item is immediately due (zero NextReviewAt).
func NewReviewState() ReviewState {
	return ReviewState{
		EaseFactor: DefaultEaseFactor,
	}
}

// Validate checks the ReviewState's internal invariants.
// Returns an error describing the first violated invariant.
func (s ReviewState) Validate() error {
	if s.IntervalDays < 0 {
		return ErrInvalidInterval
	}

	if s.EaseFactor != 0 && s.EaseFactor <= 1.0 {
		return ErrInvalidEaseFactor
	}

	if s.TotalReviews < 0 || s.CorrectReviews < 0 || s.WrongReviews < 0 || s.RepetitionCount < 0 {
		return ErrNegativeReviewCount
	}

	if s.TotalReviews != s.CorrectReviews+s.WrongReviews {
		return ErrReviewCountMismatch
	}

	return nil
}

// LearningItem represents a single vocabulary entry a user is studying.
// Term, Definition and Example are opaque display fields; the scheduling
// core only reads GroupKey and ReviewState.
type LearningItem struct {
	ID         uuid.UUID   `json:"id"`
	UserID     uuid.UUID   `json:"user_id"`
	Term       string      `json:"term"`
	Definition string      `json:"definition"`
	Example    string      `json:"example,omitempty"`
	GroupKey   string      `json:"group_key,omitempty"` // Optional lesson label, used for interleaving
	Review     ReviewState `json:"review"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// NewLearningItem creates a new LearningItem owned by the given user.
// It generates a new UUID for the item, initializes the review state so the
// item is immediately due, and sets the creation/update timestamps.
// Returns an error if validation fails.
func NewLearningItem(userID uuid.UUID, term, definition, groupKey string) (*LearningItem, error) {
	now := time.Now().UTC()
	item := &LearningItem{
		ID:         uuid.New(),
		UserID:     userID,
		Term:       term,
		Definition: definition,
		GroupKey:   groupKey,
		Review:     NewReviewState(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := item.Validate(); err != nil {
		return nil, err
	}

	return item, nil
}

// Validate checks if the LearningItem has valid data.
// Returns an error if any field fails validation.
func (i *LearningItem) Validate() error {
	if i.ID == uuid.Nil {
		return ErrItemIDEmpty
	}

	if i.UserID == uuid.Nil {
		return ErrItemUserIDEmpty
	}

	if i.Term == "" {
		return ErrItemTermEmpty
	}

	if i.Definition == "" {
		return ErrItemDefinitionEmpty
	}

	return i.Review.Validate()
}

// WithReview returns a copy of the item carrying the given review state.
// The original item is not modified; scheduling follows the same immutable
// update discipline as the SRS service.
func (i *LearningItem) WithReview(review ReviewState, now time.Time) *LearningItem {
	updated := *i
	updated.Review = review
	updated.UpdatedAt = now
	return &updated
}
