package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/vocab-api/internal/domain"
	"github.com/phrazzld/vocab-api/internal/events"
	"github.com/phrazzld/vocab-api/internal/store"
)

type memoryItemStore struct {
	items map[uuid.UUID]*domain.LearningItem
}

func newMemoryItemStore() *memoryItemStore {
	return &memoryItemStore{items: map[uuid.UUID]*domain.LearningItem{}}
}

func (m *memoryItemStore) Create(_ context.Context, item *domain.LearningItem) error {
	m.items[item.ID] = item
	return nil
}

func (m *memoryItemStore) GetByID(_ context.Context, id uuid.UUID) (*domain.LearningItem, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, store.ErrItemNotFound
	}
	copied := *item
	return &copied, nil
}

func (m *memoryItemStore) ListByUser(_ context.Context, userID uuid.UUID) ([]*domain.LearningItem, error) {
	var out []*domain.LearningItem
	for _, item := range m.items {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *memoryItemStore) Update(_ context.Context, item *domain.LearningItem) error {
	if _, ok := m.items[item.ID]; !ok {
		return store.ErrItemNotFound
	}
	m.items[item.ID] = item
	return nil
}

func (m *memoryItemStore) UpdateMultiple(ctx context.Context, items []*domain.LearningItem) error {
	for _, item := range items {
		if err := m.Update(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

func (m *memoryItemStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.items[id]; !ok {
		return store.ErrItemNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memoryItemStore) WithTx(_ *sql.Tx) store.ItemStore { return m }

type capturingEmitter struct {
	emitted []*events.Event
}

func (e *capturingEmitter) EmitEvent(_ context.Context, event *events.Event) error {
	e.emitted = append(e.emitted, event)
	return nil
}

func TestCreateItemEmitsEnrichmentEvent(t *testing.T) {
	itemStore := newMemoryItemStore()
	emitter := &capturingEmitter{}
	svc := NewItemService(itemStore, emitter, nil)
	userID := uuid.New()

	item, err := svc.CreateItem(context.Background(), userID, "ephemeral", "lasting a short time", "lesson-1")
	require.NoError(t, err)
	assert.Equal(t, userID, item.UserID)
	assert.True(t, item.Review.NextReviewAt.IsZero(), "new items are immediately due")

	require.Len(t, emitter.emitted, 1)
	assert.Equal(t, events.EventTypeItemEnrichment, emitter.emitted[0].Type)

	var payload EnrichmentPayload
	require.NoError(t, emitter.emitted[0].UnmarshalPayload(&payload))
	assert.Equal(t, item.ID, payload.ItemID)
}

func TestCreateItemValidation(t *testing.T) {
	svc := NewItemService(newMemoryItemStore(), nil, nil)

	_, err := svc.CreateItem(context.Background(), uuid.New(), "", "definition", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrItemTermEmpty)
}

func TestGetItemEnforcesOwnership(t *testing.T) {
	itemStore := newMemoryItemStore()
	svc := NewItemService(itemStore, nil, nil)
	owner := uuid.New()

	item, err := svc.CreateItem(context.Background(), owner, "term", "definition", "")
	require.NoError(t, err)

	got, err := svc.GetItem(context.Background(), owner, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, got.ID)

	_, err = svc.GetItem(context.Background(), uuid.New(), item.ID)
	assert.ErrorIs(t, err, ErrItemNotOwned)

	_, err = svc.GetItem(context.Background(), owner, uuid.New())
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestUpdateContentLeavesReviewStateAlone(t *testing.T) {
	itemStore := newMemoryItemStore()
	svc := NewItemService(itemStore, nil, nil)
	owner := uuid.New()

	item, err := svc.CreateItem(context.Background(), owner, "term", "definition", "")
	require.NoError(t, err)
	before := item.Review

	updated, err := svc.UpdateContent(context.Background(), owner, item.ID,
		"new term", "new definition", "an example sentence", "lesson-2")
	require.NoError(t, err)
	assert.Equal(t, "new term", updated.Term)
	assert.Equal(t, "an example sentence", updated.Example)
	assert.Equal(t, before, updated.Review)
}

func TestDeleteItem(t *testing.T) {
	itemStore := newMemoryItemStore()
	svc := NewItemService(itemStore, nil, nil)
	owner := uuid.New()

	item, err := svc.CreateItem(context.Background(), owner, "term", "definition", "")
	require.NoError(t, err)

	require.ErrorIs(t, svc.DeleteItem(context.Background(), uuid.New(), item.ID), ErrItemNotOwned)
	require.NoError(t, svc.DeleteItem(context.Background(), owner, item.ID))

	_, err = svc.GetItem(context.Background(), owner, item.ID)
	assert.ErrorIs(t, err, ErrItemNotFound)
}
