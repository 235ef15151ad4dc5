package srs

import (
	"time"

	"github.com/phrazzld/vocab-api/internal/domain"
)

// calculateNewEaseFactor applies the classic SM-2 ease adjustment for the
// given quality and clamps the result at the configured floor.
//
// The adjustment is:
//
//	EF' = EF + (0.1 - (5-q) * (0.08 + (5-q) * 0.02))
//
// A perfect recall (q=5) nudges the ease up by 0.1; a blackout (q=0) pulls
// it down by 0.8. The floor guarantees intervals never collapse entirely no
// matter how many low-quality reviews occur.
func calculateNewEaseFactor(currentEF float64, quality Quality, params *Params) float64 {
	if currentEF == 0 {
		// Never-reviewed state; seed with the default before adjusting.
		currentEF = params.DefaultEaseFactor
	}

	q := float64(quality)
	newEF := currentEF + (0.1 - (5.0-q)*(0.08+(5.0-q)*0.02))

	if newEF < params.MinEaseFactor {
		newEF = params.MinEaseFactor
	}

	return newEF
}

// calculateNewInterval determines the interval in days following a review.
//
// On a correct review the repetition count indexes into the interval ladder,
// clamped at the final rung so mastered items plateau there. On an incorrect
// review the interval resets to the configured failure interval.
func calculateNewInterval(state domain.ReviewState, correct bool, params *Params) int {
	if !correct {
		return params.FailureIntervalDays
	}

	rung := state.RepetitionCount
	if last := len(params.IntervalLadder) - 1; rung > last {
		rung = last
	}
	return params.IntervalLadder[rung]
}

// calculateNextState computes the full review state transition for one
// review. It follows the immutable update pattern: the input state is never
// modified, and the returned value is a complete replacement.
//
// The transition, for quality at or above the pass threshold:
//   - interval climbs the ladder at the current repetition count
//   - repetition count increments
//   - mastery is reached once the repetition count covers the whole ladder
//
// and below it:
//   - repetition count resets to zero
//   - interval resets to the failure interval
//   - mastery is revoked
//
// The ease factor adjustment and the review counters apply on every path.
// The next review date uses calendar-day arithmetic so scheduling is
// insensitive to the time of day a review happens.
func calculateNextState(state domain.ReviewState, quality Quality, now time.Time, params *Params) domain.ReviewState {
	next := state

	correct := quality >= params.PassThreshold

	next.EaseFactor = calculateNewEaseFactor(state.EaseFactor, quality, params)
	next.IntervalDays = calculateNewInterval(state, correct, params)

	if correct {
		next.RepetitionCount = state.RepetitionCount + 1
		next.CorrectReviews = state.CorrectReviews + 1
		next.Mastered = next.RepetitionCount >= len(params.IntervalLadder)
		if next.Mastered {
			next.IntervalDays = params.masteredInterval()
		}
	} else {
		next.RepetitionCount = 0
		next.WrongReviews = state.WrongReviews + 1
		next.Mastered = false
	}

	next.TotalReviews = state.TotalReviews + 1
	next.LastReviewedAt = now
	next.NextReviewAt = now.AddDate(0, 0, next.IntervalDays)

	return next
}
