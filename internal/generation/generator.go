// Package generation defines the boundary between the application core and
// external language model services used to enrich learning items.
package generation

import "context"

// Generator produces an example sentence for a vocabulary term.
// Implementations call an external LLM; the interface keeps the core free of
// provider specifics.
type Generator interface {
	// GenerateExample returns a single example sentence using the term in a
	// way consistent with the given definition.
	// See errors.go for the error types implementations return.
	GenerateExample(ctx context.Context, term, definition string) (string, error)
}
