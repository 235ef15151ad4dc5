package planner

import (
	"errors"
	"sort"
	"time"

	"github.com/phrazzld/vocab-api/internal/domain"
	"github.com/phrazzld/vocab-api/internal/domain/srs"
)

// Common errors
var (
	ErrInvalidLimit     = errors.New("limit must be greater than or equal to 0")
	ErrInvalidBatchSize = errors.New("batch size must be at least 1")
)

// Planner builds priority-ordered, group-interleaved review queues.
type Planner struct {
	params     *Params
	srsService srs.Service
}

// New creates a Planner with the given weights and SRS service.
// Nil params fall back to the defaults.
func New(params *Params, srsService srs.Service) *Planner {
	if params == nil {
		params = NewDefaultParams()
	}
	if srsService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("srsService cannot be nil")
	}

	return &Planner{
		params:     params,
		srsService: srsService,
	}
}

// NewDefault creates a Planner with default weights and a default SRS service.
func NewDefault() *Planner {
	return New(NewDefaultParams(), srs.NewDefaultService())
}

// Priority computes the urgency score for one item; higher is more urgent.
//
//	priority = due*DueWeight
//	         + failureRate*FailureRateWeight
//	         + max(0, RepetitionCeiling-repetitionCount)*RepetitionWeight
//	         + max(0, ShortIntervalCeiling-intervalDays)*ShortIntervalWeight
//	         + overdueDays*OverdueWeight
func (p *Planner) Priority(item *domain.LearningItem, isDue bool, now time.Time) float64 {
	state := item.Review

	var priority float64
	if isDue {
		priority += p.params.DueWeight
	}

	priority += p.srsService.FailureRate(state) * p.params.FailureRateWeight

	if deficit := p.params.RepetitionCeiling - state.RepetitionCount; deficit > 0 {
		priority += float64(deficit) * p.params.RepetitionWeight
	}

	if deficit := p.params.ShortIntervalCeiling - state.IntervalDays; deficit > 0 {
		priority += float64(deficit) * p.params.ShortIntervalWeight
	}

	priority += float64(p.overdueDays(state, isDue, now)) * p.params.OverdueWeight

	return priority
}

// overdueDays counts whole days elapsed past the scheduled review time.
// Items that are not due, or have never been scheduled, are 0 days overdue.
func (p *Planner) overdueDays(state domain.ReviewState, isDue bool, now time.Time) int {
	if !isDue || state.NextReviewAt.IsZero() {
		return 0
	}

	elapsed := now.Sub(state.NextReviewAt)
	if elapsed <= 0 {
		return 0
	}

	return int(elapsed / (24 * time.Hour))
}

// DueItems filters the snapshot down to items currently due for review.
// Relative order is preserved.
func (p *Planner) DueItems(items []*domain.LearningItem, now time.Time) []*domain.LearningItem {
	due := make([]*domain.LearningItem, 0, len(items))
	for _, item := range items {
		if p.srsService.IsDue(item.Review, now) {
			due = append(due, item)
		}
	}
	return due
}

// InterleaveByGroup reorders items round-robin across their group buckets so
// a session alternates topics instead of cramming one lesson. Buckets are
// visited in first-appearance order and each keeps its incoming relative
// order, so the interleave is stable and reproducible. Items without a group
// key share the DefaultGroupKey bucket. At most limit items are returned.
func (p *Planner) InterleaveByGroup(items []*domain.LearningItem, limit int) ([]*domain.LearningItem, error) {
	if limit < 0 {
		return nil, ErrInvalidLimit
	}

	buckets := make(map[string][]*domain.LearningItem)
	order := make([]string, 0)
	for _, item := range items {
		key := item.GroupKey
		if key == "" {
			key = DefaultGroupKey
		}
		if _, seen := buckets[key]; !seen {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], item)
	}

	result := make([]*domain.LearningItem, 0, min(limit, len(items)))
	for len(result) < limit {
		progressed := false
		for _, key := range order {
			if len(result) == limit {
				break
			}
			bucket := buckets[key]
			if len(bucket) == 0 {
				continue
			}
			result = append(result, bucket[0])
			buckets[key] = bucket[1:]
			progressed = true
		}
		if !progressed {
			break
		}
	}

	return result, nil
}

// SelectForSession builds the ordered candidate queue for one session.
//
// Due items are ranked first, descending by priority, and interleaved across
// groups. When they do not fill the limit, the remainder comes from the rest
// of the snapshot, excluding already-due and mastered items, ranked by their
// non-due priority and interleaved the same way. The result never exceeds
// limit and reaches exactly limit whenever enough eligible items exist.
//
// An empty snapshot yields an empty queue, not an error; "nothing to review"
// is a presentation concern.
func (p *Planner) SelectForSession(
	allItems []*domain.LearningItem,
	dueItems []*domain.LearningItem,
	limit int,
	now time.Time,
) ([]*domain.LearningItem, error) {
	if limit < 0 {
		return nil, ErrInvalidLimit
	}
	if limit == 0 || len(allItems) == 0 {
		return []*domain.LearningItem{}, nil
	}

	sortedDue := p.sortByPriority(dueItems, true, now)

	if len(sortedDue) >= limit {
		return p.InterleaveByGroup(sortedDue, limit)
	}

	selected, err := p.InterleaveByGroup(sortedDue, len(sortedDue))
	if err != nil {
		return nil, err
	}

	dueIDs := make(map[string]struct{}, len(sortedDue))
	for _, item := range sortedDue {
		dueIDs[item.ID.String()] = struct{}{}
	}

	fillers := make([]*domain.LearningItem, 0, len(allItems))
	for _, item := range allItems {
		if _, isDue := dueIDs[item.ID.String()]; isDue {
			continue
		}
		if item.Review.Mastered {
			continue
		}
		fillers = append(fillers, item)
	}

	sortedFillers := p.sortByPriority(fillers, false, now)
	interleavedFillers, err := p.InterleaveByGroup(sortedFillers, limit-len(selected))
	if err != nil {
		return nil, err
	}

	return append(selected, interleavedFillers...), nil
}

// PlanBatches splits an already-ordered candidate queue into consecutive
// chunks of batchSize; the last chunk may be shorter. No reordering happens
// here: priorities are computed once per session start, so a learner can
// pause between batches without the queue shifting under them.
func (p *Planner) PlanBatches(
	candidates []*domain.LearningItem,
	batchSize int,
) ([][]*domain.LearningItem, error) {
	if batchSize < 1 {
		return nil, ErrInvalidBatchSize
	}

	batches := make([][]*domain.LearningItem, 0, (len(candidates)+batchSize-1)/batchSize)
	for start := 0; start < len(candidates); start += batchSize {
		end := start + batchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		batches = append(batches, candidates[start:end])
	}

	return batches, nil
}

// sortByPriority returns a copy of items sorted descending by priority.
// The sort is stable so equal-priority items keep their snapshot order.
func (p *Planner) sortByPriority(
	items []*domain.LearningItem,
	isDue bool,
	now time.Time,
) []*domain.LearningItem {
	sorted := make([]*domain.LearningItem, len(items))
	copy(sorted, items)

	sort.SliceStable(sorted, func(i, j int) bool {
		return p.Priority(sorted[i], isDue, now) > p.Priority(sorted[j], isDue, now)
	})

	return sorted
}
