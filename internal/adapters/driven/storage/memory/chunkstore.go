// Package memory provides in-memory store implementations, used in
// tests and as lightweight stand-ins when persistence is not needed.
package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/examplan-cli/internal/core/domain"
	"github.com/custodia-labs/examplan-cli/internal/core/ports/driven"
)

// Ensure ChunkStore implements the interface.
var _ driven.ChunkStore = (*ChunkStore)(nil)

// ChunkStore is an in-memory implementation of driven.ChunkStore.
type ChunkStore struct {
	mu     sync.RWMutex
	chunks []domain.Chunk
}

// NewChunkStore creates an in-memory chunk store over the given chunks.
func NewChunkStore(chunks []domain.Chunk) *ChunkStore {
	return &ChunkStore{
		chunks: append([]domain.Chunk(nil), chunks...),
	}
}

// All returns every chunk in store order.
func (s *ChunkStore) All(_ context.Context) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.chunks) == 0 {
		return nil, domain.ErrInputMissing
	}
	return append([]domain.Chunk(nil), s.chunks...), nil
}

// ByID hydrates chunk ids into full records.
func (s *ChunkStore) ByID(_ context.Context, ids []string) (map[string]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byID := make(map[string]domain.Chunk, len(s.chunks))
	for _, chunk := range s.chunks {
		byID[chunk.ChunkID] = chunk
	}

	result := make(map[string]domain.Chunk, len(ids))
	for _, id := range ids {
		if chunk, ok := byID[id]; ok {
			result[id] = chunk
		}
	}
	return result, nil
}
