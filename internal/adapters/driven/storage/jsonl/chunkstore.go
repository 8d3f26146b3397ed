// Package jsonl provides a chunk store adapter over a JSON Lines file.
package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/custodia-labs/examplan-cli/internal/core/domain"
	"github.com/custodia-labs/examplan-cli/internal/core/ports/driven"
)

// Ensure ChunkStore implements the interface.
var _ driven.ChunkStore = (*ChunkStore)(nil)

// maxLineBytes bounds a single chunk record. Textbook chunks are a few
// KB; 4MB leaves ample headroom.
const maxLineBytes = 4 * 1024 * 1024

// ChunkStore reads immutable text chunks from an append-only JSONL
// file, one chunk object per line. The file is the output of the
// ingestion step and is never written by this adapter.
type ChunkStore struct {
	path string
}

// NewChunkStore creates a chunk store over the given JSONL file. The
// file is read lazily; a missing file surfaces on first access.
func NewChunkStore(path string) *ChunkStore {
	return &ChunkStore{path: path}
}

// All returns every chunk in file order.
func (s *ChunkStore) All(ctx context.Context) ([]domain.Chunk, error) {
	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: chunk file %s", domain.ErrInputMissing, s.path)
		}
		return nil, fmt.Errorf("open chunk file: %w", err)
	}
	defer file.Close()

	var chunks []domain.Chunk
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var chunk domain.Chunk
		if err := json.Unmarshal(raw, &chunk); err != nil {
			return nil, fmt.Errorf("parse chunk at line %d: %w", line, err)
		}
		if chunk.ChunkID == "" {
			return nil, fmt.Errorf("%w: chunk at line %d has no chunk_id", domain.ErrInvalidInput, line)
		}
		chunks = append(chunks, chunk)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read chunk file: %w", err)
	}
	return chunks, nil
}

// ByID hydrates chunk ids into full records. Unknown ids are absent
// from the result.
func (s *ChunkStore) ByID(ctx context.Context, ids []string) (map[string]domain.Chunk, error) {
	if len(ids) == 0 {
		return map[string]domain.Chunk{}, nil
	}

	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	chunks, err := s.All(ctx)
	if err != nil {
		return nil, err
	}

	result := make(map[string]domain.Chunk, len(wanted))
	for _, chunk := range chunks {
		if _, ok := wanted[chunk.ChunkID]; ok {
			result[chunk.ChunkID] = chunk
		}
	}
	return result, nil
}
