package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Note: This is separate from VectorIndex which stores and searches
// vectors. EmbeddingService generates vectors; VectorIndex stores them.
//
// Implementations must retry throttled requests with bounded exponential
// backoff and return domain.ErrProviderExhausted (wrapped, with detail)
// once retries run out. Non-throttling errors propagate immediately.
type EmbeddingService interface {
	// EmbedBatch generates document-mode embeddings for multiple texts.
	// The result preserves input order: result[i] embeds texts[i].
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates a query-mode embedding for a single text.
	// Query and document embeddings live in the same vector space but
	// may use different task conditioning.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size (e.g. 768, 1536).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
