package driven

import "context"

// VectorCache is a content-hash-keyed persistent store of chunk
// embeddings. An entry is valid only while the chunk text it was
// computed from is unchanged. A missing artifact, an unreadable
// artifact, or a digest mismatch is a miss, never an error.
type VectorCache interface {
	// Get returns the cached vector for (chunkID, text). The bool
	// reports a valid hit.
	Get(ctx context.Context, chunkID, text string) ([]float32, bool)

	// Put persists the vector and the text digest for chunkID.
	// Writes are atomic per key: a crash mid-write leaves a miss, not a
	// corrupt hit. Last writer wins; content addressing makes that safe.
	Put(ctx context.Context, chunkID, text string, vector []float32) error
}
