package services

import (
	"context"

	"github.com/custodia-labs/examplan-cli/internal/core/domain"
	"github.com/custodia-labs/examplan-cli/internal/core/ports/driven"
	"github.com/custodia-labs/examplan-cli/internal/logger"
)

// Defaults for topics an external prioritizer failed to echo back.
const (
	defaultPriorityMinutes = 45
	defaultPriorityReason  = "Default priority"
)

// PriorityPolicy assigns a priority, reason, and time estimate to every
// topic across the given coverages.
type PriorityPolicy interface {
	Assign(ctx context.Context, coverages []domain.EnrichedCoverage) domain.PriorityAssignment
}

// HeuristicPolicy is the deterministic chapter-based priority rule:
// foundational chapters are critical, middle chapters high, the rest
// medium.
type HeuristicPolicy struct{}

// Assign implements PriorityPolicy.
func (HeuristicPolicy) Assign(_ context.Context, coverages []domain.EnrichedCoverage) domain.PriorityAssignment {
	assignment := domain.PriorityAssignment{Source: domain.PrioritySourceHeuristic}
	for _, coverage := range coverages {
		for _, topic := range coverage.Topics {
			priority, minutes := heuristicPriority(topic.Chapter)
			assignment.Topics = append(assignment.Topics, domain.PrioritizedTopic{
				Chapter:   topic.Chapter,
				Objective: topic.Bullet,
				Priority:  priority,
				Reason:    "Chapter-based heuristic",
				Minutes:   minutes,
			})
		}
	}
	return assignment
}

// heuristicPriority maps a chapter number to priority and minutes.
func heuristicPriority(chapter int) (domain.Priority, int) {
	switch {
	case chapter <= 2:
		return domain.PriorityCritical, 50
	case chapter <= 5:
		return domain.PriorityHigh, 45
	default:
		return domain.PriorityMedium, 40
	}
}

// ExternalPolicy asks an external prioritizer for verdicts and matches
// them back to topics by exact (chapter, objective) key. A prioritizer
// failure falls back to the heuristic and is recorded on the assignment.
type ExternalPolicy struct {
	Prioritizer driven.Prioritizer
	Strategy    domain.Recommendation
}

// priorityKey is the match key between a topic and an external verdict.
// Matching by text equality is fragile when wording drifts through the
// prioritizer round trip; unmatched topics get the documented default.
type priorityKey struct {
	chapter   int
	objective string
}

// Assign implements PriorityPolicy.
func (p ExternalPolicy) Assign(ctx context.Context, coverages []domain.EnrichedCoverage) domain.PriorityAssignment {
	if p.Prioritizer == nil {
		return HeuristicPolicy{}.Assign(ctx, coverages)
	}

	verdicts, err := p.Prioritizer.Prioritize(ctx, coverages, p.Strategy)
	if err != nil {
		logger.Warn("External prioritization failed: %v", err)
		assignment := HeuristicPolicy{}.Assign(ctx, coverages)
		assignment.FallbackReason = err.Error()
		return assignment
	}

	byKey := make(map[priorityKey]domain.PrioritizedTopic, len(verdicts))
	for _, v := range verdicts {
		byKey[priorityKey{chapter: v.Chapter, objective: v.Objective}] = v
	}

	assignment := domain.PriorityAssignment{Source: domain.PrioritySourceExternal}
	for _, coverage := range coverages {
		for _, topic := range coverage.Topics {
			verdict, ok := byKey[priorityKey{chapter: topic.Chapter, objective: topic.Bullet}]
			if !ok {
				verdict = domain.PrioritizedTopic{
					Chapter:   topic.Chapter,
					Objective: topic.Bullet,
					Priority:  domain.PriorityMedium,
					Reason:    defaultPriorityReason,
					Minutes:   defaultPriorityMinutes,
				}
			}
			if !verdict.Priority.IsValid() {
				verdict.Priority = domain.PriorityMedium
			}
			assignment.Topics = append(assignment.Topics, verdict)
		}
	}
	return assignment
}

// EstimateTopicMinutes is the finer per-topic time heuristic used when a
// verdict carries no estimate: a 30 minute base, more for practice
// problems, foundational chapters, and shaky evidence.
func EstimateTopicMinutes(topic domain.EnrichedTopic) int {
	minutes := 30

	switch {
	case len(topic.PracticeProblems) > 2:
		minutes += 20
	case len(topic.PracticeProblems) > 0:
		minutes += 10
	}

	if topic.Chapter <= 3 {
		minutes += 15
	}
	if topic.ConfidenceScore < 0.7 {
		minutes += 10
	}
	return minutes
}
