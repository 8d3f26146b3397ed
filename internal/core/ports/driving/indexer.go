package driving

import (
	"context"

	"github.com/custodia-labs/examplan-cli/internal/core/domain"
)

// IndexService builds and queries the vector index over the chunk
// library.
type IndexService interface {
	// BuildIndex embeds every chunk (through the cache), builds the flat
	// index, and persists the index/mapping pair.
	BuildIndex(ctx context.Context) (*domain.IndexBuildReport, error)

	// Search embeds the query and runs a filtered top-K search against
	// the loaded index.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchHit, error)
}
