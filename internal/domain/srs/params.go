package srs

// Quality is the 0-5 recall signal from a single review.
// 0 means a total blackout; 5 means perfect instant recall.
type Quality int

// Quality scale anchors, following the classic SM-2 grading.
const (
	QualityBlackout  Quality = 0 // No recall at all
	QualityWrong     Quality = 1 // Wrong, but recognized the answer
	QualityWrongNear Quality = 2 // Wrong, answer felt familiar
	QualityHard      Quality = 3 // Correct with significant effort
	QualityGood      Quality = 4 // Correct after some hesitation
	QualityPerfect   Quality = 5 // Instant, confident recall
)

// Rating is a user-facing review label for UIs that prefer four buttons
// over the raw 0-5 quality scale.
type Rating string

// Possible rating values
const (
	RatingAgain Rating = "again"
	RatingHard  Rating = "hard"
	RatingGood  Rating = "good"
	RatingEasy  Rating = "easy"
)

// Params defines all configurable parameters for the SRS algorithm.
type Params struct {
	// IntervalLadder is the fixed ascending sequence of review intervals in
	// days. The repetition count indexes into it on each correct review, and
	// the final rung doubles as the mastered plateau interval.
	IntervalLadder []int

	// MinEaseFactor is the floor the ease factor never drops below.
	MinEaseFactor float64

	// DefaultEaseFactor seeds the ease factor for never-reviewed items.
	DefaultEaseFactor float64

	// PassThreshold is the lowest quality counted as a correct review.
	PassThreshold Quality

	// FailureIntervalDays is the interval assigned after an incorrect review.
	FailureIntervalDays int

	// RatingQuality maps user-facing rating labels to quality values.
	RatingQuality map[Rating]Quality

	// UnknownRatingQuality is used for labels missing from RatingQuality.
	// A lenient middle value keeps forward-compatible UI labels working.
	UnknownRatingQuality Quality

	// WeakMinReviews is the minimum review count before an item can be
	// flagged as weak; below it a single unlucky review carries no signal.
	WeakMinReviews int

	// WeakFailureRate is the failure rate at or above which a sufficiently
	// reviewed item counts as weak.
	WeakFailureRate float64
}

// ParamsConfig allows overriding the default parameters when creating a new
// Params instance. Zero values leave the corresponding default untouched.
type ParamsConfig struct {
	IntervalLadder      []int
	MinEaseFactor       float64
	DefaultEaseFactor   float64
	PassThreshold       Quality
	FailureIntervalDays int
	WeakMinReviews      int
	WeakFailureRate     float64
}

// NewDefaultParams creates a new Params instance with default values.
func NewDefaultParams() *Params {
	return &Params{
		IntervalLadder: []int{1, 3, 7, 14, 30, 60},

		MinEaseFactor:     1.3,
		DefaultEaseFactor: 2.5,

		PassThreshold:       QualityHard,
		FailureIntervalDays: 1,

		RatingQuality: map[Rating]Quality{
			RatingAgain: QualityWrong,
			RatingHard:  QualityHard,
			RatingGood:  QualityGood,
			RatingEasy:  QualityPerfect,
		},
		UnknownRatingQuality: QualityHard,

		WeakMinReviews:  3,
		WeakFailureRate: 0.3,
	}
}

// NewParams creates a new Params instance with custom configuration.
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if len(config.IntervalLadder) > 0 {
		params.IntervalLadder = config.IntervalLadder
	}
	if config.MinEaseFactor > 0 {
		params.MinEaseFactor = config.MinEaseFactor
	}
	if config.DefaultEaseFactor > 0 {
		params.DefaultEaseFactor = config.DefaultEaseFactor
	}
	if config.PassThreshold > 0 {
		params.PassThreshold = config.PassThreshold
	}
	if config.FailureIntervalDays > 0 {
		params.FailureIntervalDays = config.FailureIntervalDays
	}
	if config.WeakMinReviews > 0 {
		params.WeakMinReviews = config.WeakMinReviews
	}
	if config.WeakFailureRate > 0 {
		params.WeakFailureRate = config.WeakFailureRate
	}

	return params
}

// masteredInterval returns the ladder's terminal rung, the plateau interval
// mastered items stay pinned at.
func (p *Params) masteredInterval() int {
	return p.IntervalLadder[len(p.IntervalLadder)-1]
}
