package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/examplan-cli/internal/core/domain"
	"github.com/custodia-labs/examplan-cli/internal/core/ports/driven"
	"github.com/custodia-labs/examplan-cli/internal/core/ports/driving"
	"github.com/custodia-labs/examplan-cli/internal/logger"
)

// Ensure Indexer implements the interface.
var _ driving.IndexService = (*Indexer)(nil)

// Indexer builds the flat vector index over the chunk library and runs
// ad-hoc searches against it.
type Indexer struct {
	chunks   driven.ChunkStore
	resolver *Resolver
	index    driven.VectorIndex
	embedder driven.EmbeddingService

	indexPath   string
	mappingPath string
	progress    domain.ProgressFunc

	loadOnce sync.Once
	loadErr  error
}

// NewIndexer creates an index service. indexPath and mappingPath are the
// paired persistence artifacts.
func NewIndexer(
	chunks driven.ChunkStore,
	resolver *Resolver,
	index driven.VectorIndex,
	embedder driven.EmbeddingService,
	indexPath, mappingPath string,
) *Indexer {
	return &Indexer{
		chunks:      chunks,
		resolver:    resolver,
		index:       index,
		embedder:    embedder,
		indexPath:   indexPath,
		mappingPath: mappingPath,
		progress:    domain.NopProgress,
	}
}

// SetProgress sets the progress callback.
func (s *Indexer) SetProgress(fn domain.ProgressFunc) {
	if fn != nil {
		s.progress = fn
	}
}

// BuildIndex embeds every chunk through the cache, builds the index, and
// persists the index/mapping pair. The index is rebuilt wholesale; there
// is no incremental path.
func (s *Indexer) BuildIndex(ctx context.Context) (*domain.IndexBuildReport, error) {
	logger.Section("Index Build")

	chunks, err := s.chunks.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: chunk store is empty", domain.ErrInputMissing)
	}
	logger.Debug("Loaded %d chunks", len(chunks))

	vectors, stats, err := s.resolver.Resolve(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("resolve embeddings: %w", err)
	}

	metas := make([]domain.ChunkMeta, len(chunks))
	for i, c := range chunks {
		metas[i] = c.ChunkMeta
	}

	s.progress(domain.ProgressEvent{Stage: "index", Message: fmt.Sprintf("building index over %d vectors", len(vectors))})
	if err := s.index.Build(vectors, metas); err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	if err := s.index.Save(s.indexPath, s.mappingPath); err != nil {
		return nil, fmt.Errorf("persist index: %w", err)
	}
	logger.Info("Index built: %d vectors", s.index.Len())

	dims := 0
	if len(vectors) > 0 {
		dims = len(vectors[0])
	}
	// A build counts as having the index loaded.
	s.loadOnce.Do(func() {})

	return &domain.IndexBuildReport{
		Vectors:    s.index.Len(),
		Dimensions: dims,
		Stats:      stats,
	}, nil
}

// Search embeds the query and runs a filtered top-K search.
func (s *Indexer) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.SearchHit{}, nil
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}

	queryVec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.index.Search(ctx, queryVec, opts.TopK, opts.Filters)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	logger.Debug("Search %q: %d hits", query, len(hits))
	return hits, nil
}

// ensureLoaded lazily loads the persisted index/mapping pair.
func (s *Indexer) ensureLoaded() error {
	s.loadOnce.Do(func() {
		s.loadErr = s.index.Load(s.indexPath, s.mappingPath)
	})
	return s.loadErr
}
