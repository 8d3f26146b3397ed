package domain

import (
	"fmt"
	"time"
)

// Default tuning values, mirrored by the file config.
const (
	DefaultTopK              = 10
	DefaultMinScore          = 0.6
	DefaultFallbackThreshold = 3
	DefaultParallelism       = 4
	DefaultMinutesPerDay     = 90
	DefaultBatchSize         = 100
)

// ResolveStats counts how a batch of chunks was embedded.
type ResolveStats struct {
	// Total is the number of chunks requested.
	Total int `json:"total"`

	// Cached is how many were served from the embedding cache.
	Cached int `json:"cached"`

	// Computed is how many had to be sent to the provider.
	Computed int `json:"computed"`
}

// IndexBuildReport summarises a completed index build.
type IndexBuildReport struct {
	Vectors    int          `json:"vectors"`
	Dimensions int          `json:"dimensions"`
	Stats      ResolveStats `json:"stats"`
}

// SearchOptions configures an ad-hoc index search.
type SearchOptions struct {
	// TopK is the maximum number of results. Must be positive.
	TopK int

	// Filters narrows the search.
	Filters SearchFilters
}

// Validate checks the search parameters.
func (o SearchOptions) Validate() error {
	if o.TopK <= 0 {
		return fmt.Errorf("%w: top_k must be positive, got %d", ErrInvalidInput, o.TopK)
	}
	if o.Filters.MinScore < 0 || o.Filters.MinScore > 1 {
		return fmt.Errorf("%w: min_score must be in [0,1], got %g", ErrInvalidInput, o.Filters.MinScore)
	}
	return nil
}

// EnrichOptions configures coverage enrichment.
type EnrichOptions struct {
	// TopK is how many chunks to retrieve per topic.
	TopK int

	// MinScore is the similarity floor for retrieval hits.
	MinScore float64

	// UseChapterFilter enables chapter-aware filtering with unfiltered
	// fallback.
	UseChapterFilter bool

	// FallbackThreshold is the hit count below which the chapter filter
	// is dropped and the search repeated.
	FallbackThreshold int

	// Parallelism bounds concurrent per-topic enrichment. Zero or one
	// means sequential.
	Parallelism int
}

// DefaultEnrichOptions returns the standard enrichment tuning.
func DefaultEnrichOptions() EnrichOptions {
	return EnrichOptions{
		TopK:              DefaultTopK,
		MinScore:          DefaultMinScore,
		UseChapterFilter:  true,
		FallbackThreshold: DefaultFallbackThreshold,
	}
}

// Validate checks the enrichment parameters.
func (o EnrichOptions) Validate() error {
	if o.TopK <= 0 {
		return fmt.Errorf("%w: top_k must be positive, got %d", ErrInvalidInput, o.TopK)
	}
	if o.MinScore < 0 || o.MinScore > 1 {
		return fmt.Errorf("%w: min_score must be in [0,1], got %g", ErrInvalidInput, o.MinScore)
	}
	if o.FallbackThreshold < 0 {
		return fmt.Errorf("%w: fallback threshold must not be negative", ErrInvalidInput)
	}
	return nil
}

// PlanOptions configures study plan generation.
type PlanOptions struct {
	// StartDate is the first candidate study day.
	StartDate time.Time

	// EndDate is the requested last study day. Packing past it is a
	// soft warning, not a failure.
	EndDate time.Time

	// MinutesPerDay is the per-day time budget. Must be positive.
	MinutesPerDay int

	// Strategy selects the topic ordering strategy.
	Strategy Strategy

	// GenerateQuestions enables the optional study-question post-pass.
	GenerateQuestions bool

	// UseExternalPriorities asks the external prioritizer for priority
	// assignments; on failure the heuristic fallback is recorded on the
	// plan rather than silently substituted.
	UseExternalPriorities bool

	// PriorityStrategy is passed to the external prioritizer.
	PriorityStrategy Recommendation
}

// Validate checks the planning parameters.
func (o PlanOptions) Validate() error {
	if o.StartDate.IsZero() || o.EndDate.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidInput)
	}
	if o.EndDate.Before(o.StartDate) {
		return fmt.Errorf("%w: start date %s is after end date %s",
			ErrInvalidInput, o.StartDate.Format("2006-01-02"), o.EndDate.Format("2006-01-02"))
	}
	if o.MinutesPerDay <= 0 {
		return fmt.Errorf("%w: minutes per day must be positive, got %d", ErrInvalidInput, o.MinutesPerDay)
	}
	if !o.Strategy.IsValid() {
		return fmt.Errorf("%w: unknown strategy %q", ErrInvalidInput, o.Strategy)
	}
	return nil
}
