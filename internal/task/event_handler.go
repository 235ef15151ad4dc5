package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/phrazzld/vocab-api/internal/events"
	"github.com/phrazzld/vocab-api/internal/generation"
	"github.com/phrazzld/vocab-api/internal/store"
)

// enrichmentPayload mirrors the payload emitted by the item service.
type enrichmentPayload struct {
	ItemID uuid.UUID `json:"item_id"`
	UserID uuid.UUID `json:"user_id"`
}

// EnrichmentEventHandler turns item enrichment events into queued tasks.
// It implements events.EventHandler.
type EnrichmentEventHandler struct {
	runner    *Runner
	itemStore store.ItemStore
	generator generation.Generator
	logger    *slog.Logger
}

// Ensure EnrichmentEventHandler implements events.EventHandler
var _ events.EventHandler = (*EnrichmentEventHandler)(nil)

// NewEnrichmentEventHandler creates the handler wiring events to the runner.
func NewEnrichmentEventHandler(
	runner *Runner,
	itemStore store.ItemStore,
	generator generation.Generator,
	logger *slog.Logger,
) *EnrichmentEventHandler {
	if runner == nil || itemStore == nil || generator == nil {
		// ALLOW-PANIC: Constructor enforcing required dependencies
		panic("runner, itemStore and generator cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &EnrichmentEventHandler{
		runner:    runner,
		itemStore: itemStore,
		generator: generator,
		logger:    logger.With(slog.String("component", "enrichment_event_handler")),
	}
}

// HandleEvent implements events.EventHandler.
// Events of other types are ignored so the handler can share an emitter with
// future handlers.
func (h *EnrichmentEventHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	if event.Type != events.EventTypeItemEnrichment {
		return nil
	}

	var payload enrichmentPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		return fmt.Errorf("failed to decode enrichment payload: %w", err)
	}

	enrichment, err := NewEnrichmentTask(payload.ItemID, h.itemStore, h.generator, h.logger)
	if err != nil {
		return fmt.Errorf("failed to build enrichment task: %w", err)
	}

	if err := h.runner.Submit(enrichment); err != nil {
		return fmt.Errorf("failed to submit enrichment task: %w", err)
	}

	h.logger.Debug("enrichment task queued",
		slog.String("event_id", event.ID.String()),
		slog.String("item_id", payload.ItemID.String()))
	return nil
}
