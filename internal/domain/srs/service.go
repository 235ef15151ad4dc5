package srs

import (
	"errors"
	"time"

	"github.com/phrazzld/vocab-api/internal/domain"
)

// Common errors
var (
	ErrInvalidQuality = errors.New("quality must be between 0 and 5")
	ErrInvalidDays    = errors.New("postpone days must be at least 1")
)

// Service defines the interface for SRS algorithm operations.
// All operations are pure: they read the given state, never mutate it, and
// take the clock as an explicit argument.
type Service interface {
	// ProcessReview computes the next review state from the current state and
	// a 0-5 recall quality. Out-of-range quality is rejected, not clamped.
	ProcessReview(state domain.ReviewState, quality Quality, now time.Time) (domain.ReviewState, error)

	// PostponeReview pushes the next review time forward by a number of days.
	PostponeReview(state domain.ReviewState, days int, now time.Time) (domain.ReviewState, error)

	// QualityFromRating maps a user-facing rating label to a quality value.
	// Unrecognized labels fall back to a lenient middle quality so new UI
	// labels degrade gracefully instead of erroring.
	QualityFromRating(rating Rating) Quality

	// IsPassing reports whether the quality counts as a correct review.
	IsPassing(quality Quality) bool

	// IsDue reports whether the item should be offered for review now.
	// Mastered items are never due; items with no scheduled review always are.
	IsDue(state domain.ReviewState, now time.Time) bool

	// FailureRate returns wrong/total reviews, or 0 for a never-reviewed item.
	FailureRate(state domain.ReviewState) float64

	// IsWeak reports whether the item shows statistically meaningful struggle:
	// enough reviews to matter, with a failure rate above the weak threshold.
	IsWeak(state domain.ReviewState) bool
}

// defaultService is the standard implementation of the Service interface.
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new SRS service with default parameters.
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new SRS service with custom parameters.
func NewServiceWithParams(params *Params) Service {
	return &defaultService{
		params: params,
	}
}

// ProcessReview implements the Service interface.
func (s *defaultService) ProcessReview(
	state domain.ReviewState,
	quality Quality,
	now time.Time,
) (domain.ReviewState, error) {
	if quality < QualityBlackout || quality > QualityPerfect {
		return domain.ReviewState{}, ErrInvalidQuality
	}

	return calculateNextState(state, quality, now, s.params), nil
}

// PostponeReview implements the Service interface.
// The schedule shifts from the currently planned review time, or from now
// when the item has no scheduled review yet.
func (s *defaultService) PostponeReview(
	state domain.ReviewState,
	days int,
	now time.Time,
) (domain.ReviewState, error) {
	if days < 1 {
		return domain.ReviewState{}, ErrInvalidDays
	}

	next := state
	base := state.NextReviewAt
	if base.IsZero() {
		base = now
	}
	next.NextReviewAt = base.AddDate(0, 0, days)

	return next, nil
}

// QualityFromRating implements the Service interface.
func (s *defaultService) QualityFromRating(rating Rating) Quality {
	if quality, ok := s.params.RatingQuality[rating]; ok {
		return quality
	}
	return s.params.UnknownRatingQuality
}

// IsPassing implements the Service interface.
func (s *defaultService) IsPassing(quality Quality) bool {
	return quality >= s.params.PassThreshold
}

// IsDue implements the Service interface.
func (s *defaultService) IsDue(state domain.ReviewState, now time.Time) bool {
	if state.Mastered {
		return false
	}

	if state.NextReviewAt.IsZero() {
		return true
	}

	return !state.NextReviewAt.After(now)
}

// FailureRate implements the Service interface.
func (s *defaultService) FailureRate(state domain.ReviewState) float64 {
	if state.TotalReviews == 0 {
		return 0
	}
	return float64(state.WrongReviews) / float64(state.TotalReviews)
}

// IsWeak implements the Service interface.
func (s *defaultService) IsWeak(state domain.ReviewState) bool {
	return state.TotalReviews >= s.params.WeakMinReviews &&
		s.FailureRate(state) >= s.params.WeakFailureRate
}
