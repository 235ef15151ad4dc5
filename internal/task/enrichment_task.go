package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/vocab-api/internal/generation"
	"github.com/phrazzld/vocab-api/internal/store"
)

// EnrichmentTask generates an example sentence for one learning item and
// saves it. Items that gained an example since the task was queued, or that
// were deleted, are skipped silently.
type EnrichmentTask struct {
	id        uuid.UUID
	itemID    uuid.UUID
	itemStore store.ItemStore
	generator generation.Generator
	logger    *slog.Logger
}

// Ensure EnrichmentTask implements Task
var _ Task = (*EnrichmentTask)(nil)

// NewEnrichmentTask creates a task that enriches the given item.
func NewEnrichmentTask(
	itemID uuid.UUID,
	itemStore store.ItemStore,
	generator generation.Generator,
	logger *slog.Logger,
) (*EnrichmentTask, error) {
	if itemID == uuid.Nil {
		return nil, fmt.Errorf("item ID cannot be empty")
	}
	if itemStore == nil {
		return nil, fmt.Errorf("itemStore cannot be nil")
	}
	if generator == nil {
		return nil, fmt.Errorf("generator cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &EnrichmentTask{
		id:        uuid.New(),
		itemID:    itemID,
		itemStore: itemStore,
		generator: generator,
		logger:    logger.With(slog.String("component", "enrichment_task")),
	}, nil
}

// ID implements Task.ID
func (t *EnrichmentTask) ID() uuid.UUID {
	return t.id
}

// Type implements Task.Type
func (t *EnrichmentTask) Type() string {
	return TaskTypeItemEnrichment
}

// Execute implements Task.Execute
func (t *EnrichmentTask) Execute(ctx context.Context) error {
	item, err := t.itemStore.GetByID(ctx, t.itemID)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			t.logger.Debug("item deleted before enrichment, skipping",
				slog.String("item_id", t.itemID.String()))
			return nil
		}
		return fmt.Errorf("failed to load item: %w", err)
	}

	if item.Example != "" {
		t.logger.Debug("item already has an example, skipping",
			slog.String("item_id", t.itemID.String()))
		return nil
	}

	example, err := t.generator.GenerateExample(ctx, item.Term, item.Definition)
	if err != nil {
		return fmt.Errorf("failed to generate example: %w", err)
	}

	item.Example = example
	item.UpdatedAt = time.Now().UTC()

	if err := t.itemStore.Update(ctx, item); err != nil {
		return fmt.Errorf("failed to save enriched item: %w", err)
	}

	t.logger.Info("item enriched",
		slog.String("item_id", item.ID.String()),
		slog.Int("example_length", len(example)))
	return nil
}
