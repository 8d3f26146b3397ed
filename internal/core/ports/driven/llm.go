package driven

import (
	"context"

	"github.com/custodia-labs/examplan-cli/internal/core/domain"
)

// QuestionService generates a study question for a scheduled topic from
// its learning objective and evidence excerpts.
//
// This is an optional service: when nil, scheduled topics simply carry
// no study question. Failures here never abort plan generation.
type QuestionService interface {
	// Generate returns one focused study question, or "" when the
	// provider produced nothing useful. At most two excerpts are sent.
	Generate(ctx context.Context, objective string, excerpts []string, chapterTitle string) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}

// Prioritizer assigns priorities and time estimates to topics using an
// external analysis step (typically an LLM).
//
// Verdicts are matched back to topics by exact (chapter, objective)
// key; the scheduler substitutes a default for any topic the
// prioritizer failed to echo back.
type Prioritizer interface {
	// Prioritize analyses the given coverages and returns one verdict
	// per topic it recognised.
	Prioritize(ctx context.Context, coverages []domain.EnrichedCoverage, strategy domain.Recommendation) ([]domain.PrioritizedTopic, error)
}
