package driven

import (
	"context"

	"github.com/custodia-labs/examplan-cli/internal/core/domain"
)

// PlanStore persists enriched coverages and generated study plans.
// Backed by SQLite. Plans are immutable once saved; saving a coverage
// for an exam id replaces the previous enrichment for that exam.
type PlanStore interface {
	// SaveCoverage stores or replaces an exam's enriched coverage.
	SaveCoverage(ctx context.Context, coverage *domain.EnrichedCoverage) error

	// GetCoverage retrieves an enriched coverage by exam id.
	// Returns domain.ErrNotFound when absent.
	GetCoverage(ctx context.Context, examID string) (*domain.EnrichedCoverage, error)

	// ListCoverages returns all stored coverages, newest first.
	ListCoverages(ctx context.Context) ([]domain.EnrichedCoverage, error)

	// SavePlan stores a generated plan.
	SavePlan(ctx context.Context, plan *domain.StudyPlan) error

	// GetPlan retrieves a plan by id.
	// Returns domain.ErrNotFound when absent.
	GetPlan(ctx context.Context, planID string) (*domain.StudyPlan, error)

	// ListPlans returns summaries of all stored plans, newest first.
	ListPlans(ctx context.Context) ([]domain.StudyPlan, error)

	// Close releases resources.
	Close() error
}
