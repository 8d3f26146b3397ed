// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import (
	"context"

	"github.com/custodia-labs/examplan-cli/internal/core/domain"
)

// ChunkStore provides read-only access to the ordered sequence of
// immutable text chunks. Backed by an append-only JSONL file.
type ChunkStore interface {
	// All returns every chunk in store order.
	// Returns domain.ErrInputMissing when the chunk artifact is absent.
	All(ctx context.Context) ([]domain.Chunk, error)

	// ByID hydrates the given chunk ids into full chunk records.
	// Unknown ids are simply absent from the returned map.
	ByID(ctx context.Context, ids []string) (map[string]domain.Chunk, error)
}
