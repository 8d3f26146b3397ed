package driving

import (
	"context"

	"github.com/custodia-labs/examplan-cli/internal/core/domain"
)

// EnrichmentService grounds exam coverage in textbook evidence.
type EnrichmentService interface {
	// Enrich produces an EnrichedCoverage for one exam. It is a pure
	// function of the coverage, the index, and the chunk store; the
	// caller decides whether to persist the result. A cancelled context
	// aborts between topics and discards all partial work.
	Enrich(ctx context.Context, coverage domain.ExamCoverage, opts domain.EnrichOptions) (*domain.EnrichedCoverage, error)
}
