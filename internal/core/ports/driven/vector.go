package driven

import (
	"context"

	"github.com/custodia-labs/examplan-cli/internal/core/domain"
)

// VectorIndex provides exact inner-product similarity search over a
// flat set of vectors with per-row chunk metadata.
//
// The index is read-mostly: one exclusive Build (or Load), after which
// concurrent Search calls are safe. There is no incremental update; a
// changed chunk set means a wholesale rebuild.
type VectorIndex interface {
	// Build replaces the index contents with the given vectors and their
	// row-aligned metadata. Vectors are L2-normalised so inner product
	// equals cosine similarity; zero-norm vectors are stored as zero.
	// len(vectors) must equal len(metas).
	Build(vectors [][]float32, metas []domain.ChunkMeta) error

	// Search returns up to topK hits for the query vector, filtered and
	// ranked per domain.SearchFilters semantics: chapter, then file id,
	// then minimum score; descending score with ties broken by lower
	// row. Fewer than topK surviving hits is not an error.
	Search(ctx context.Context, query []float32, topK int, filters domain.SearchFilters) ([]domain.SearchHit, error)

	// Save writes the index and its row metadata mapping as two paired
	// artifacts. Row order is the alignment contract between them.
	Save(indexPath, mappingPath string) error

	// Load reads a previously saved index/mapping pair. Absent artifacts
	// yield domain.ErrInputMissing; a row-count disagreement yields
	// domain.ErrIndexMismatch.
	Load(indexPath, mappingPath string) error

	// Len returns the number of indexed rows.
	Len() int
}
