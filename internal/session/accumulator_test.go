package session

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/vocab-api/internal/domain"
	"github.com/phrazzld/vocab-api/internal/domain/srs"
)

func testNow() time.Time {
	return time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
}

func newTestItem(t *testing.T) *domain.LearningItem {
	t.Helper()

	item, err := domain.NewLearningItem(uuid.New(), "ephemeral", "lasting a very short time", "lesson-1")
	require.NoError(t, err)
	return item
}

func newTestAccumulator() *Accumulator {
	return NewAccumulator(srs.NewDefaultService(), nil)
}

func TestAccumulatorStartsIdle(t *testing.T) {
	t.Parallel()

	acc := newTestAccumulator()
	assert.Equal(t, StateIdle, acc.State())
	assert.False(t, acc.InSession())
}

func TestRecordOutcomeRequiresSession(t *testing.T) {
	t.Parallel()

	acc := newTestAccumulator()
	_, err := acc.RecordOutcome(newTestItem(t), srs.QualityGood, testNow())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSessionState)

	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, "record_outcome", stateErr.Operation)
	assert.Equal(t, StateIdle, stateErr.State)
}

func TestStartWhileInSessionIsRejected(t *testing.T) {
	t.Parallel()

	acc := newTestAccumulator()
	require.NoError(t, acc.Start(nil))

	err := acc.Start(nil)
	assert.ErrorIs(t, err, ErrSessionState)
}

func TestRecordOutcomeBuffersWithoutPersisting(t *testing.T) {
	t.Parallel()

	acc := newTestAccumulator()
	item := newTestItem(t)
	require.NoError(t, acc.Start([]*domain.LearningItem{item}))

	updated, err := acc.RecordOutcome(item, srs.QualityGood, testNow())
	require.NoError(t, err)
	require.NotNil(t, updated)

	// The returned item carries the new state; the original is untouched.
	assert.Equal(t, 1, updated.Review.TotalReviews)
	assert.Equal(t, 0, item.Review.TotalReviews)
	assert.Equal(t, item.ID, updated.ID)
}

func TestRecordOutcomeRejectsInvalidQuality(t *testing.T) {
	t.Parallel()

	acc := newTestAccumulator()
	require.NoError(t, acc.Start(nil))

	_, err := acc.RecordOutcome(newTestItem(t), srs.Quality(9), testNow())
	assert.ErrorIs(t, err, srs.ErrInvalidQuality)

	// A rejected outcome must not corrupt the buffer.
	result, err := acc.End()
	require.NoError(t, err)
	assert.Empty(t, result.UpdatedItems)
	assert.Equal(t, 0, result.Stats.TotalReviewed)
}

func TestEndProducesConsolidatedCommit(t *testing.T) {
	t.Parallel()

	acc := newTestAccumulator()
	items := []*domain.LearningItem{newTestItem(t), newTestItem(t), newTestItem(t)}
	require.NoError(t, acc.Start(items))

	now := testNow()
	_, err := acc.RecordOutcome(items[0], srs.QualityPerfect, now) // 15 XP, correct
	require.NoError(t, err)
	_, err = acc.RecordOutcome(items[1], srs.QualityHard, now) // 10 XP, correct
	require.NoError(t, err)
	_, err = acc.RecordOutcome(items[2], srs.QualityWrong, now) // 5 XP, incorrect
	require.NoError(t, err)

	result, err := acc.End()
	require.NoError(t, err)

	assert.Len(t, result.UpdatedItems, 3)
	assert.Equal(t, 3, result.Stats.TotalReviewed)
	assert.Equal(t, 2, result.Stats.Correct)
	assert.Equal(t, 1, result.Stats.Incorrect)
	assert.Equal(t, 30, result.Stats.XPEarned)

	assert.Equal(t, StateIdle, acc.State())
}

func TestDoubleEndIsRejected(t *testing.T) {
	t.Parallel()

	acc := newTestAccumulator()
	require.NoError(t, acc.Start(nil))

	_, err := acc.End()
	require.NoError(t, err)

	// A second End without an intervening Start is a state-misuse error,
	// not a silent empty result.
	_, err = acc.End()
	assert.ErrorIs(t, err, ErrSessionState)
}

func TestAbandonFlushesLikeEnd(t *testing.T) {
	t.Parallel()

	acc := newTestAccumulator()
	item := newTestItem(t)
	require.NoError(t, acc.Start([]*domain.LearningItem{item}))

	_, err := acc.RecordOutcome(item, srs.QualityGood, testNow())
	require.NoError(t, err)

	result, err := acc.Abandon()
	require.NoError(t, err)

	// Already-given answers survive an abandon.
	assert.Len(t, result.UpdatedItems, 1)
	assert.Equal(t, 1, result.Stats.TotalReviewed)
	assert.Equal(t, StateIdle, acc.State())
}

func TestBuffersResetBetweenSessions(t *testing.T) {
	t.Parallel()

	acc := newTestAccumulator()
	item := newTestItem(t)

	require.NoError(t, acc.Start([]*domain.LearningItem{item}))
	_, err := acc.RecordOutcome(item, srs.QualityGood, testNow())
	require.NoError(t, err)
	_, err = acc.End()
	require.NoError(t, err)

	require.NoError(t, acc.Start(nil))
	result, err := acc.End()
	require.NoError(t, err)

	assert.Empty(t, result.UpdatedItems)
	assert.Equal(t, Stats{}, result.Stats)
}

func TestResultSurvivesFailedCallerWrite(t *testing.T) {
	t.Parallel()

	acc := newTestAccumulator()
	item := newTestItem(t)
	require.NoError(t, acc.Start([]*domain.LearningItem{item}))
	_, err := acc.RecordOutcome(item, srs.QualityGood, testNow())
	require.NoError(t, err)

	result, err := acc.End()
	require.NoError(t, err)

	// Starting the next session must not invalidate the returned batch:
	// the caller retries a failed store write with the same Result.
	require.NoError(t, acc.Start(nil))
	assert.Len(t, result.UpdatedItems, 1)
	assert.Equal(t, 1, result.Stats.TotalReviewed)
}

func TestSessionErrorsAreDistinctFromDataErrors(t *testing.T) {
	t.Parallel()

	acc := newTestAccumulator()

	_, stateErr := acc.End()
	require.NoError(t, acc.Start(nil))
	_, dataErr := acc.RecordOutcome(newTestItem(t), srs.Quality(-1), testNow())

	assert.ErrorIs(t, stateErr, ErrSessionState)
	assert.NotErrorIs(t, stateErr, srs.ErrInvalidQuality)
	assert.ErrorIs(t, dataErr, srs.ErrInvalidQuality)
	assert.NotErrorIs(t, dataErr, ErrSessionState)
}

func TestXPForQuality(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		quality srs.Quality
		xp      int
	}{
		{srs.QualityPerfect, 15},
		{srs.QualityGood, 15},
		{srs.QualityHard, 10},
		{srs.QualityWrongNear, 5},
		{srs.QualityWrong, 5},
		{srs.QualityBlackout, 5},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.xp, xpForQuality(tc.quality), "quality %d", tc.quality)
	}
}
