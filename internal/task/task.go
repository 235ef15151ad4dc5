// Package task runs background work on a bounded in-memory worker pool.
// Tasks are best-effort: a lost task costs an enrichment, never learner data.
package task

import (
	"context"

	"github.com/google/uuid"
)

// Task type constants
const (
	// TaskTypeItemEnrichment generates an example sentence for a learning item
	TaskTypeItemEnrichment = "item_enrichment"
)

// Task represents a unit of background work to be processed
type Task interface {
	// ID returns the task's unique identifier
	ID() uuid.UUID

	// Type returns the task type identifier
	Type() string

	// Execute runs the task logic
	Execute(ctx context.Context) error
}
