package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/examplan-cli/internal/core/domain"
	"github.com/custodia-labs/examplan-cli/internal/core/ports/driven"
)

// Ensure PlanStore implements the interface.
var _ driven.PlanStore = (*PlanStore)(nil)

// PlanStore is an in-memory implementation of driven.PlanStore.
type PlanStore struct {
	mu        sync.RWMutex
	coverages map[string]domain.EnrichedCoverage
	plans     map[string]domain.StudyPlan
}

// NewPlanStore creates an empty in-memory plan store.
func NewPlanStore() *PlanStore {
	return &PlanStore{
		coverages: make(map[string]domain.EnrichedCoverage),
		plans:     make(map[string]domain.StudyPlan),
	}
}

// SaveCoverage stores or replaces an exam's enriched coverage.
func (s *PlanStore) SaveCoverage(_ context.Context, coverage *domain.EnrichedCoverage) error {
	if coverage.ExamID == "" {
		return fmt.Errorf("%w: coverage has no exam id", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coverages[coverage.ExamID] = *coverage
	return nil
}

// GetCoverage retrieves an enriched coverage by exam id.
func (s *PlanStore) GetCoverage(_ context.Context, examID string) (*domain.EnrichedCoverage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	coverage, ok := s.coverages[examID]
	if !ok {
		return nil, fmt.Errorf("%w: coverage for exam %s", domain.ErrNotFound, examID)
	}
	return &coverage, nil
}

// ListCoverages returns all stored coverages, newest first.
func (s *PlanStore) ListCoverages(_ context.Context) ([]domain.EnrichedCoverage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	coverages := make([]domain.EnrichedCoverage, 0, len(s.coverages))
	for _, c := range s.coverages {
		coverages = append(coverages, c)
	}
	sort.Slice(coverages, func(i, j int) bool {
		if !coverages[i].EnrichedAt.Equal(coverages[j].EnrichedAt) {
			return coverages[i].EnrichedAt.After(coverages[j].EnrichedAt)
		}
		return coverages[i].ExamID < coverages[j].ExamID
	})
	return coverages, nil
}

// SavePlan stores a generated plan. Plans are write-once.
func (s *PlanStore) SavePlan(_ context.Context, plan *domain.StudyPlan) error {
	if plan.PlanID == "" {
		return fmt.Errorf("%w: plan has no id", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.plans[plan.PlanID]; exists {
		return fmt.Errorf("%w: plan %s already exists", domain.ErrInvalidInput, plan.PlanID)
	}
	s.plans[plan.PlanID] = *plan
	return nil
}

// GetPlan retrieves a plan by id.
func (s *PlanStore) GetPlan(_ context.Context, planID string) (*domain.StudyPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	plan, ok := s.plans[planID]
	if !ok {
		return nil, fmt.Errorf("%w: plan %s", domain.ErrNotFound, planID)
	}
	return &plan, nil
}

// ListPlans returns all stored plans, newest first.
func (s *PlanStore) ListPlans(_ context.Context) ([]domain.StudyPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	plans := make([]domain.StudyPlan, 0, len(s.plans))
	for _, p := range s.plans {
		plans = append(plans, p)
	}
	sort.Slice(plans, func(i, j int) bool {
		if !plans[i].CreatedAt.Equal(plans[j].CreatedAt) {
			return plans[i].CreatedAt.After(plans[j].CreatedAt)
		}
		return plans[i].PlanID < plans[j].PlanID
	})
	return plans, nil
}

// Close releases resources.
func (s *PlanStore) Close() error {
	return nil
}
