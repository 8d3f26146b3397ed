package cli

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/examplan-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/examplan-cli/internal/core/domain"
	"github.com/custodia-labs/examplan-cli/internal/core/ports/driven"
)

// newEmptyPlanStore returns a plan store with nothing in it.
func newEmptyPlanStore() driven.PlanStore {
	return memory.NewPlanStore()
}

// mockIndexService returns canned search hits and a fixed build report.
type mockIndexService struct {
	buildErr  error
	searchErr error
	hits      []domain.SearchHit
	lastOpts  domain.SearchOptions
}

func (m *mockIndexService) BuildIndex(_ context.Context) (*domain.IndexBuildReport, error) {
	if m.buildErr != nil {
		return nil, m.buildErr
	}
	return &domain.IndexBuildReport{
		Vectors:    42,
		Dimensions: 768,
		Stats:      domain.ResolveStats{Total: 42, Cached: 40, Computed: 2},
	}, nil
}

func (m *mockIndexService) Search(_ context.Context, _ string, opts domain.SearchOptions) ([]domain.SearchHit, error) {
	m.lastOpts = opts
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.hits, nil
}

// mockEnrichService echoes the coverage back as a minimal enrichment.
type mockEnrichService struct {
	err      error
	lastOpts domain.EnrichOptions
}

func (m *mockEnrichService) Enrich(_ context.Context, coverage domain.ExamCoverage, opts domain.EnrichOptions) (*domain.EnrichedCoverage, error) {
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	enriched := &domain.EnrichedCoverage{
		ExamID:     coverage.ExamID,
		ExamName:   coverage.ExamName,
		ExamDate:   coverage.ExamDate,
		EnrichedAt: time.Now(),
	}
	for _, ct := range coverage.Topics {
		for _, bullet := range ct.Bullets {
			enriched.Topics = append(enriched.Topics, domain.EnrichedTopic{
				Chapter:         ct.Chapter,
				ChapterTitle:    ct.ChapterTitle,
				Bullet:          bullet,
				ConfidenceScore: 0.8,
			})
		}
	}
	enriched.CalculateStats()
	return enriched, nil
}

// mockPlannerService returns a one-day plan and a fixed analysis.
type mockPlannerService struct {
	analyzeErr error
	planErr    error
	lastOpts   domain.PlanOptions
}

func (m *mockPlannerService) AnalyzeLoad(coverages []domain.EnrichedCoverage, _, _ time.Time, _ int) (*domain.LoadAnalysis, error) {
	if m.analyzeErr != nil {
		return nil, m.analyzeErr
	}
	analysis := &domain.LoadAnalysis{
		TotalTopics:          3,
		TotalTimeNeededHours: 2.2,
		TimeAvailableHours:   21,
		DaysAvailable:        14,
		Feasibility:          domain.FeasibilityComfortable,
		Recommendation:       domain.RecommendComprehensive,
		CoveragePercentage:   100,
	}
	for _, c := range coverages {
		analysis.Exams = append(analysis.Exams, domain.ExamLoad{
			ExamName: c.ExamName,
			Topics:   len(c.Topics),
			ExamDate: c.ExamDate,
		})
	}
	return analysis, nil
}

func (m *mockPlannerService) GeneratePlan(_ context.Context, _ []domain.EnrichedCoverage, opts domain.PlanOptions) (*domain.StudyPlan, error) {
	m.lastOpts = opts
	if m.planErr != nil {
		return nil, m.planErr
	}
	plan := &domain.StudyPlan{
		PlanID:         "plan-123",
		CreatedAt:      time.Now(),
		Strategy:       opts.Strategy,
		StartDate:      opts.StartDate.Format("2006-01-02"),
		EndDate:        opts.EndDate.Format("2006-01-02"),
		MinutesPerDay:  opts.MinutesPerDay,
		PrioritySource: domain.PrioritySourceHeuristic,
		Exams:          []domain.ExamInfo{{ExamID: "exam-a", ExamName: "HLTH 204 Midterm"}},
		Days: []domain.StudyDay{
			{
				Date:    opts.StartDate.Format("2006-01-02"),
				DayName: opts.StartDate.Weekday().String(),
				Blocks: []domain.StudyBlock{
					{
						ExamID:              "exam-a",
						ExamName:            "HLTH 204 Midterm",
						Topic:               "Ch 3: Stress",
						Objective:           "Describe the stress response",
						TimeEstimateMinutes: 45,
						Priority:            domain.PriorityHigh,
					},
				},
			},
		},
	}
	plan.Days[0].TotalMinutes = 45
	plan.CalculateTotals()
	return plan, nil
}

// errPlannerService fails every operation.
type errPlannerService struct{}

func (errPlannerService) AnalyzeLoad([]domain.EnrichedCoverage, time.Time, time.Time, int) (*domain.LoadAnalysis, error) {
	return nil, errors.New("analysis boom")
}

func (errPlannerService) GeneratePlan(context.Context, []domain.EnrichedCoverage, domain.PlanOptions) (*domain.StudyPlan, error) {
	return nil, errors.New("plan boom")
}

// storedCoverage seeds the test plan store with one enriched coverage.
func storedCoverage(id string) *domain.EnrichedCoverage {
	return &domain.EnrichedCoverage{
		ExamID:     id,
		ExamName:   "HLTH 204 Midterm",
		ExamDate:   "2026-10-02",
		EnrichedAt: time.Now(),
		Topics: []domain.EnrichedTopic{
			{Chapter: 3, ChapterTitle: "Stress", Bullet: "Describe the stress response", ConfidenceScore: 0.8},
		},
		TotalTopics:         1,
		HighConfidenceCount: 1,
	}
}

// setupTestServices installs mock services and a fresh in-memory plan
// store, returning a cleanup that restores the previous wiring.
func setupTestServices() func() {
	oldIndex := indexService
	oldEnrich := enrichService
	oldPlanner := plannerService
	oldStore := planStore

	store := memory.NewPlanStore()
	_ = store.SaveCoverage(context.Background(), storedCoverage("exam-a"))

	indexService = &mockIndexService{
		hits: []domain.SearchHit{
			{
				Score: 0.87,
				Row:   0,
				Meta: domain.ChunkMeta{
					ChunkID:       "c1",
					Filename:      "stats.pdf",
					PageStart:     41,
					PageEnd:       43,
					ChapterNumber: 3,
					ChapterTitle:  "Stress",
				},
			},
		},
	}
	enrichService = &mockEnrichService{}
	plannerService = &mockPlannerService{}
	planStore = store

	return func() {
		indexService = oldIndex
		enrichService = oldEnrich
		plannerService = oldPlanner
		planStore = oldStore
	}
}
