package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/examplan-cli/internal/core/domain"
)

// PlannerService analyses workload feasibility and generates day-by-day
// study plans.
type PlannerService interface {
	// AnalyzeLoad reports whether the enriched workload fits the study
	// window. Pure calculation; no external calls.
	AnalyzeLoad(coverages []domain.EnrichedCoverage, start, end time.Time, minutesPerDay int) (*domain.LoadAnalysis, error)

	// GeneratePlan assigns priorities, orders topics under the chosen
	// strategy, and packs them into calendar days.
	GeneratePlan(ctx context.Context, coverages []domain.EnrichedCoverage, opts domain.PlanOptions) (*domain.StudyPlan, error)
}
