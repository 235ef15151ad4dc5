package task

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/vocab-api/internal/domain"
	"github.com/phrazzld/vocab-api/internal/events"
	"github.com/phrazzld/vocab-api/internal/store"
)

type stubItemStore struct {
	mu    sync.Mutex
	items map[uuid.UUID]*domain.LearningItem
}

func newStubItemStore() *stubItemStore {
	return &stubItemStore{items: map[uuid.UUID]*domain.LearningItem{}}
}

func (s *stubItemStore) Create(_ context.Context, item *domain.LearningItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item
	return nil
}

func (s *stubItemStore) GetByID(_ context.Context, id uuid.UUID) (*domain.LearningItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return nil, store.ErrItemNotFound
	}
	copied := *item
	return &copied, nil
}

func (s *stubItemStore) ListByUser(_ context.Context, _ uuid.UUID) ([]*domain.LearningItem, error) {
	return nil, nil
}

func (s *stubItemStore) Update(_ context.Context, item *domain.LearningItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[item.ID]; !ok {
		return store.ErrItemNotFound
	}
	s.items[item.ID] = item
	return nil
}

func (s *stubItemStore) UpdateMultiple(_ context.Context, _ []*domain.LearningItem) error {
	return nil
}

func (s *stubItemStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

func (s *stubItemStore) WithTx(_ *sql.Tx) store.ItemStore { return s }

type stubGenerator struct {
	sentence string
	err      error
	calls    int
	mu       sync.Mutex
}

func (g *stubGenerator) GenerateExample(_ context.Context, _, _ string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return g.sentence, g.err
}

func seedItem(t *testing.T, s *stubItemStore) *domain.LearningItem {
	t.Helper()
	item, err := domain.NewLearningItem(uuid.New(), "ubiquitous", "found everywhere", "")
	require.NoError(t, err)
	require.NoError(t, s.Create(context.Background(), item))
	return item
}

func TestEnrichmentTaskFillsExample(t *testing.T) {
	itemStore := newStubItemStore()
	item := seedItem(t, itemStore)
	gen := &stubGenerator{sentence: "Smartphones are ubiquitous these days."}

	enrichment, err := NewEnrichmentTask(item.ID, itemStore, gen, nil)
	require.NoError(t, err)
	require.Equal(t, TaskTypeItemEnrichment, enrichment.Type())

	require.NoError(t, enrichment.Execute(context.Background()))

	stored, err := itemStore.GetByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, gen.sentence, stored.Example)
}

func TestEnrichmentTaskSkipsExistingExample(t *testing.T) {
	itemStore := newStubItemStore()
	item := seedItem(t, itemStore)
	item.Example = "already set"
	require.NoError(t, itemStore.Update(context.Background(), item))

	gen := &stubGenerator{sentence: "unused"}
	enrichment, err := NewEnrichmentTask(item.ID, itemStore, gen, nil)
	require.NoError(t, err)

	require.NoError(t, enrichment.Execute(context.Background()))
	assert.Equal(t, 0, gen.calls)
}

func TestEnrichmentTaskSkipsDeletedItem(t *testing.T) {
	itemStore := newStubItemStore()
	gen := &stubGenerator{sentence: "unused"}

	enrichment, err := NewEnrichmentTask(uuid.New(), itemStore, gen, nil)
	require.NoError(t, err)

	assert.NoError(t, enrichment.Execute(context.Background()))
	assert.Equal(t, 0, gen.calls)
}

func TestEnrichmentTaskPropagatesGeneratorError(t *testing.T) {
	itemStore := newStubItemStore()
	item := seedItem(t, itemStore)
	gen := &stubGenerator{err: errors.New("api unavailable")}

	enrichment, err := NewEnrichmentTask(item.ID, itemStore, gen, nil)
	require.NoError(t, err)

	require.Error(t, enrichment.Execute(context.Background()))

	stored, err := itemStore.GetByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Example)
}

func TestRunnerExecutesSubmittedTasks(t *testing.T) {
	itemStore := newStubItemStore()
	item := seedItem(t, itemStore)
	gen := &stubGenerator{sentence: "A fitting example."}

	runner := NewRunner(RunnerConfig{WorkerCount: 1, QueueSize: 4}, nil)
	runner.Start()
	defer runner.Stop()

	enrichment, err := NewEnrichmentTask(item.ID, itemStore, gen, nil)
	require.NoError(t, err)
	require.NoError(t, runner.Submit(enrichment))

	require.Eventually(t, func() bool {
		stored, err := itemStore.GetByID(context.Background(), item.ID)
		return err == nil && stored.Example != ""
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRunnerRejectsWhenQueueFull(t *testing.T) {
	runner := NewRunner(RunnerConfig{WorkerCount: 1, QueueSize: 1}, nil)
	// Not started: nothing drains the queue.

	itemStore := newStubItemStore()
	item := seedItem(t, itemStore)
	gen := &stubGenerator{sentence: "x"}

	first, err := NewEnrichmentTask(item.ID, itemStore, gen, nil)
	require.NoError(t, err)
	second, err := NewEnrichmentTask(item.ID, itemStore, gen, nil)
	require.NoError(t, err)

	require.NoError(t, runner.Submit(first))
	assert.Error(t, runner.Submit(second))
}

func TestEventHandlerQueuesEnrichment(t *testing.T) {
	itemStore := newStubItemStore()
	item := seedItem(t, itemStore)
	gen := &stubGenerator{sentence: "Handled through the event path."}

	runner := NewRunner(RunnerConfig{WorkerCount: 1, QueueSize: 4}, nil)
	runner.Start()
	defer runner.Stop()

	handler := NewEnrichmentEventHandler(runner, itemStore, gen, nil)

	event, err := events.NewEvent(events.EventTypeItemEnrichment, enrichmentPayload{
		ItemID: item.ID,
		UserID: item.UserID,
	})
	require.NoError(t, err)

	require.NoError(t, handler.HandleEvent(context.Background(), event))

	require.Eventually(t, func() bool {
		stored, err := itemStore.GetByID(context.Background(), item.ID)
		return err == nil && stored.Example != ""
	}, 2*time.Second, 10*time.Millisecond)
}

func TestEventHandlerIgnoresOtherEventTypes(t *testing.T) {
	itemStore := newStubItemStore()
	gen := &stubGenerator{}
	runner := NewRunner(DefaultRunnerConfig(), nil)
	handler := NewEnrichmentEventHandler(runner, itemStore, gen, nil)

	event, err := events.NewEvent(events.EventType("something_else"), struct{}{})
	require.NoError(t, err)

	assert.NoError(t, handler.HandleEvent(context.Background(), event))
}
