// Package planner ranks a user's item collection into bounded, interleaved
// review sessions. All operations are pure functions over in-memory
// snapshots; the planner never touches storage and never re-reads items
// mid-session.
package planner

// DefaultGroupKey is the bucket for items without a group label.
const DefaultGroupKey = "general"

// Params holds the priority weights and interleaving configuration.
//
// The weights are design constants, not tunables derived from data: due-ness
// dominates outright, then chronic failure, then early ladder position, then
// fragile short intervals, with raw overdue magnitude as a tie-break
// amplifier. The shape of that ordering is the contract; the exact numbers
// are policy and may be adjusted here without breaking callers.
type Params struct {
	// DueWeight is added to any item currently due for review.
	DueWeight float64

	// FailureRateWeight scales the item's historical failure rate.
	FailureRateWeight float64

	// RepetitionWeight scales how early the item still is on the ladder,
	// counted as max(0, RepetitionCeiling - repetitionCount).
	RepetitionWeight  float64
	RepetitionCeiling int

	// ShortIntervalWeight scales how fragile the item's retention is,
	// counted as max(0, ShortIntervalCeiling - intervalDays).
	ShortIntervalWeight  float64
	ShortIntervalCeiling int

	// OverdueWeight scales whole days elapsed past the scheduled review.
	OverdueWeight float64
}

// NewDefaultParams creates a new Params instance with default weights.
func NewDefaultParams() *Params {
	return &Params{
		DueWeight:            1000,
		FailureRateWeight:    250,
		RepetitionWeight:     12,
		RepetitionCeiling:    5,
		ShortIntervalWeight:  8,
		ShortIntervalCeiling: 2,
		OverdueWeight:        2,
	}
}
