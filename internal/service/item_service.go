package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/vocab-api/internal/domain"
	"github.com/phrazzld/vocab-api/internal/events"
	"github.com/phrazzld/vocab-api/internal/platform/logger"
	"github.com/phrazzld/vocab-api/internal/store"
)

// ItemService manages learning item CRUD on behalf of the API layer.
// All operations enforce ownership: an item is only visible to its owner.
type ItemService interface {
	// CreateItem creates a new learning item for the user. Items created
	// without an example sentence get one generated in the background.
	CreateItem(ctx context.Context, userID uuid.UUID, term, definition, groupKey string) (*domain.LearningItem, error)

	// GetItem retrieves an item owned by the user.
	// Returns ErrItemNotFound or ErrItemNotOwned.
	GetItem(ctx context.Context, userID, itemID uuid.UUID) (*domain.LearningItem, error)

	// ListItems retrieves all of the user's items, oldest first.
	ListItems(ctx context.Context, userID uuid.UUID) ([]*domain.LearningItem, error)

	// UpdateContent updates an item's display fields, leaving review state alone.
	// Returns ErrItemNotFound or ErrItemNotOwned.
	UpdateContent(ctx context.Context, userID, itemID uuid.UUID, term, definition, example, groupKey string) (*domain.LearningItem, error)

	// DeleteItem removes an item and its review state.
	// Returns ErrItemNotFound or ErrItemNotOwned.
	DeleteItem(ctx context.Context, userID, itemID uuid.UUID) error
}

// EnrichmentPayload is the event payload requesting example generation.
type EnrichmentPayload struct {
	ItemID uuid.UUID `json:"item_id"`
	UserID uuid.UUID `json:"user_id"`
}

type itemService struct {
	itemStore store.ItemStore
	emitter   events.EventEmitter
	logger    *slog.Logger
}

// NewItemService creates an ItemService backed by the given store.
// emitter may be nil, in which case no enrichment events are emitted.
func NewItemService(
	itemStore store.ItemStore,
	emitter events.EventEmitter,
	log *slog.Logger,
) ItemService {
	if itemStore == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("itemStore cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &itemService{
		itemStore: itemStore,
		emitter:   emitter,
		logger:    log.With(slog.String("component", "item_service")),
	}
}

func (s *itemService) CreateItem(
	ctx context.Context,
	userID uuid.UUID,
	term, definition, groupKey string,
) (*domain.LearningItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	item, err := domain.NewLearningItem(userID, term, definition, groupKey)
	if err != nil {
		return nil, NewServiceError("create_item", "invalid item data", err)
	}

	if err := s.itemStore.Create(ctx, item); err != nil {
		return nil, NewServiceError("create_item", "failed to save item", err)
	}

	// New items have no example sentence yet; request one in the background.
	// A failed emit is logged but never fails the create.
	if s.emitter != nil && item.Example == "" {
		event, err := events.NewEvent(events.EventTypeItemEnrichment, EnrichmentPayload{
			ItemID: item.ID,
			UserID: userID,
		})
		if err != nil {
			log.Error("failed to build enrichment event",
				slog.String("error", err.Error()),
				slog.String("item_id", item.ID.String()))
		} else if err := s.emitter.EmitEvent(ctx, event); err != nil {
			log.Error("failed to emit enrichment event",
				slog.String("error", err.Error()),
				slog.String("item_id", item.ID.String()))
		}
	}

	return item, nil
}

func (s *itemService) GetItem(
	ctx context.Context,
	userID, itemID uuid.UUID,
) (*domain.LearningItem, error) {
	return s.getOwned(ctx, userID, itemID, "get_item")
}

func (s *itemService) ListItems(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.LearningItem, error) {
	items, err := s.itemStore.ListByUser(ctx, userID)
	if err != nil {
		return nil, NewServiceError("list_items", "failed to list items", err)
	}
	return items, nil
}

func (s *itemService) UpdateContent(
	ctx context.Context,
	userID, itemID uuid.UUID,
	term, definition, example, groupKey string,
) (*domain.LearningItem, error) {
	item, err := s.getOwned(ctx, userID, itemID, "update_item")
	if err != nil {
		return nil, err
	}

	item.Term = term
	item.Definition = definition
	item.Example = example
	item.GroupKey = groupKey
	item.UpdatedAt = time.Now().UTC()

	if err := s.itemStore.Update(ctx, item); err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, NewServiceError("update_item", "failed to update item", err)
	}

	return item, nil
}

func (s *itemService) DeleteItem(ctx context.Context, userID, itemID uuid.UUID) error {
	if _, err := s.getOwned(ctx, userID, itemID, "delete_item"); err != nil {
		return err
	}

	if err := s.itemStore.Delete(ctx, itemID); err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return ErrItemNotFound
		}
		return NewServiceError("delete_item", "failed to delete item", err)
	}

	return nil
}

// getOwned loads an item and verifies ownership. Not-owned reads report
// ErrItemNotOwned rather than pretending the item doesn't exist; the API
// layer decides how much to reveal.
func (s *itemService) getOwned(
	ctx context.Context,
	userID, itemID uuid.UUID,
	operation string,
) (*domain.LearningItem, error) {
	item, err := s.itemStore.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, NewServiceError(operation, "failed to load item", err)
	}

	if item.UserID != userID {
		return nil, fmt.Errorf("%w: item %s", ErrItemNotOwned, itemID)
	}

	return item, nil
}
