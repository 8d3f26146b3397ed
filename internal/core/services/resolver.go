package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/examplan-cli/internal/core/domain"
	"github.com/custodia-labs/examplan-cli/internal/core/ports/driven"
	"github.com/custodia-labs/examplan-cli/internal/logger"
)

// Resolver turns chunks into embedding vectors through the persistent
// cache. Cache hits are served locally; misses are sent to the embedding
// provider in size-bounded batches and persisted before returning.
type Resolver struct {
	cache    driven.VectorCache
	embedder driven.EmbeddingService

	batchSize   int
	concurrency int
	progress    domain.ProgressFunc
}

// ResolverOption customises a Resolver.
type ResolverOption func(*Resolver)

// WithBatchSize bounds how many miss texts go to the provider per call.
func WithBatchSize(n int) ResolverOption {
	return func(r *Resolver) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithConcurrency bounds how many provider batches run at once.
func WithConcurrency(n int) ResolverOption {
	return func(r *Resolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithResolverProgress sets the progress callback.
func WithResolverProgress(fn domain.ProgressFunc) ResolverOption {
	return func(r *Resolver) {
		if fn != nil {
			r.progress = fn
		}
	}
}

// NewResolver creates a resolver over a cache and an embedding service.
func NewResolver(cache driven.VectorCache, embedder driven.EmbeddingService, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		cache:       cache,
		embedder:    embedder,
		batchSize:   domain.DefaultBatchSize,
		concurrency: 1,
		progress:    domain.NopProgress,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// miss records a chunk whose vector must be computed, by its position in
// the original input.
type miss struct {
	index int
	chunk domain.Chunk
}

// Resolve returns one vector per chunk, in input order. Calling it twice
// with unchanged chunks never reaches the provider the second time.
func (r *Resolver) Resolve(ctx context.Context, chunks []domain.Chunk) ([][]float32, domain.ResolveStats, error) {
	stats := domain.ResolveStats{Total: len(chunks)}
	vectors := make([][]float32, len(chunks))

	if len(chunks) == 0 {
		return vectors, stats, nil
	}
	if r.embedder == nil {
		return nil, stats, domain.ErrEmbeddingUnavailable
	}

	r.progress(domain.ProgressEvent{
		Stage:   "embed",
		Message: fmt.Sprintf("checking cache for %d chunks", len(chunks)),
		Total:   len(chunks),
	})

	var misses []miss
	for i, chunk := range chunks {
		if vec, ok := r.cache.Get(ctx, chunk.ChunkID, chunk.Text); ok {
			vectors[i] = vec
			stats.Cached++
			continue
		}
		misses = append(misses, miss{index: i, chunk: chunk})
	}
	stats.Computed = len(misses)

	logger.Debug("Embedding cache: %d hits, %d misses", stats.Cached, stats.Computed)
	r.progress(domain.ProgressEvent{
		Stage:   "embed",
		Message: fmt.Sprintf("%d cached, computing %d", stats.Cached, stats.Computed),
		Current: stats.Cached,
		Total:   len(chunks),
	})

	if len(misses) == 0 {
		return vectors, stats, nil
	}

	// Each batch writes a disjoint set of positions, so the goroutines
	// never touch the same element.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for start := 0; start < len(misses); start += r.batchSize {
		end := start + r.batchSize
		if end > len(misses) {
			end = len(misses)
		}
		batch := misses[start:end]

		g.Go(func() error {
			texts := make([]string, len(batch))
			for i, m := range batch {
				texts[i] = m.chunk.Text
			}

			embedded, err := r.embedder.EmbedBatch(gctx, texts)
			if err != nil {
				return fmt.Errorf("embed batch of %d: %w", len(batch), err)
			}
			if len(embedded) != len(batch) {
				return fmt.Errorf("embed batch: got %d vectors for %d texts", len(embedded), len(batch))
			}

			// Reinsert by original position, then persist each vector so
			// the next run hits the cache.
			for i, m := range batch {
				vectors[m.index] = embedded[i]
				if err := r.cache.Put(gctx, m.chunk.ChunkID, m.chunk.Text, embedded[i]); err != nil {
					return fmt.Errorf("cache put %s: %w", m.chunk.ChunkID, err)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, stats, err
	}

	r.progress(domain.ProgressEvent{
		Stage:   "embed",
		Message: fmt.Sprintf("%d cached + %d computed = %d embeddings", stats.Cached, stats.Computed, stats.Total),
		Current: len(chunks),
		Total:   len(chunks),
	})

	return vectors, stats, nil
}
