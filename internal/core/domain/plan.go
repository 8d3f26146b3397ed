package domain

import "time"

// Priority is the ordinal importance of a topic for scheduling.
type Priority string

// Priority levels, most to least important.
const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
	PriorityOptional Priority = "optional"
)

// Rank returns the sort rank of a priority; lower ranks schedule first.
// Unknown values rank as medium.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	case PriorityOptional:
		return 4
	default:
		return 2
	}
}

// IsValid reports whether p is a known priority level.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow, PriorityOptional:
		return true
	}
	return false
}

// Strategy selects how topics from multiple exams are ordered before
// day packing.
type Strategy string

// Scheduling strategies.
const (
	// StrategyRoundRobin interleaves exams topic by topic.
	StrategyRoundRobin Strategy = "round_robin"

	// StrategyPriorityFirst orders all topics by priority globally.
	StrategyPriorityFirst Strategy = "priority_first"

	// StrategyBalanced equalises cumulative minutes across exams.
	StrategyBalanced Strategy = "balanced"
)

// IsValid reports whether s is a known strategy.
func (s Strategy) IsValid() bool {
	switch s {
	case StrategyRoundRobin, StrategyPriorityFirst, StrategyBalanced:
		return true
	}
	return false
}

// PrioritySource records which variant produced a priority assignment.
type PrioritySource string

const (
	// PrioritySourceExternal means an external prioritizer assigned the
	// priorities.
	PrioritySourceExternal PrioritySource = "external"

	// PrioritySourceHeuristic means the deterministic chapter heuristic
	// assigned them, either by choice or as a recorded fallback after an
	// external prioritizer failure.
	PrioritySourceHeuristic PrioritySource = "heuristic"
)

// PrioritizedTopic is one topic's priority verdict, keyed by chapter and
// objective text.
type PrioritizedTopic struct {
	Chapter   int      `json:"chapter"`
	Objective string   `json:"objective"`
	Priority  Priority `json:"priority"`
	Reason    string   `json:"reason"`
	Minutes   int      `json:"time_estimate_minutes"`
}

// PriorityAssignment is the explicit two-variant result of priority
// analysis: either externally assigned or the heuristic fallback, never
// a silently swallowed error.
type PriorityAssignment struct {
	// Source tells which variant produced the assignment.
	Source PrioritySource `json:"source"`

	// FallbackReason is set when Source is heuristic because an external
	// prioritizer failed.
	FallbackReason string `json:"fallback_reason,omitempty"`

	// Topics are the per-topic verdicts.
	Topics []PrioritizedTopic `json:"topics"`
}

// TimeBreakdown sums assigned minutes per priority level.
func (a PriorityAssignment) TimeBreakdown() map[Priority]int {
	breakdown := map[Priority]int{
		PriorityCritical: 0,
		PriorityHigh:     0,
		PriorityMedium:   0,
		PriorityLow:      0,
		PriorityOptional: 0,
	}
	for _, t := range a.Topics {
		breakdown[t.Priority] += t.Minutes
	}
	return breakdown
}

// ExamInfo describes one exam participating in a plan.
type ExamInfo struct {
	ExamID   string `json:"exam_id"`
	ExamName string `json:"exam_name"`
	ExamDate string `json:"exam_date,omitempty"`

	// Course is the course code, e.g. "HLTH 204", extracted from the
	// exam name.
	Course string `json:"course,omitempty"`

	SourceFileID string `json:"source_file_id,omitempty"`
}

// WorkItem is the scheduler's unit of work: a topic paired with its
// exam, priority, and time estimate, ready for ordering.
type WorkItem struct {
	// Topic is the enriched topic to study.
	Topic EnrichedTopic `json:"topic"`

	// Exam is the exam the topic belongs to.
	Exam ExamInfo `json:"exam"`

	// ExamIndex is the exam's declared position, used for ordering
	// tie-breaks and round-robin cycling.
	ExamIndex int `json:"exam_index"`

	// Priority is the assigned importance level.
	Priority Priority `json:"priority"`

	// PriorityReason explains the assignment.
	PriorityReason string `json:"priority_reason,omitempty"`

	// EstimatedMinutes is the time budget for the topic.
	EstimatedMinutes int `json:"estimated_minutes"`
}

// PracticeProblemRef is a formatted problem reference on a study block.
type PracticeProblemRef struct {
	Text string `json:"text"`
	Page int    `json:"page"`
}

// StudyBlock is one scheduled topic inside a study day.
type StudyBlock struct {
	ExamID       string `json:"exam_id"`
	ExamName     string `json:"exam_name"`
	Course       string `json:"course,omitempty"`
	Chapter      int    `json:"chapter"`
	ChapterTitle string `json:"chapter_title"`

	// Topic is the display label, e.g. "Ch 3: Probability".
	Topic string `json:"topic"`

	// Objective is the objective text being studied.
	Objective string `json:"objective"`

	// ReadingPages is the formatted reading reference,
	// e.g. "Triola, pp. 21-27, p. 38".
	ReadingPages string `json:"reading_pages,omitempty"`

	PracticeProblems []PracticeProblemRef `json:"practice_problems,omitempty"`
	KeyTerms         []string             `json:"key_terms,omitempty"`

	// StudyQuestion is an optional generated question grounded in the
	// topic's evidence excerpts. Blank when generation is disabled or
	// failed.
	StudyQuestion string `json:"study_question,omitempty"`

	TimeEstimateMinutes int      `json:"time_estimate_minutes"`
	ConfidenceScore     float64  `json:"confidence_score"`
	Priority            Priority `json:"priority"`
	PriorityReason      string   `json:"priority_reason,omitempty"`
	Notes               string   `json:"notes,omitempty"`
}

// StudyDay is the schedule for a single calendar day.
type StudyDay struct {
	// Date in ISO format YYYY-MM-DD.
	Date string `json:"date"`

	// DayName is the weekday name, e.g. "Monday".
	DayName string `json:"day_name"`

	// TotalMinutes is the sum of the blocks' estimates.
	TotalMinutes int `json:"total_minutes"`

	Blocks []StudyBlock `json:"blocks"`
}

// AddBlock appends a block and updates TotalMinutes.
func (d *StudyDay) AddBlock(b StudyBlock) {
	d.Blocks = append(d.Blocks, b)
	d.TotalMinutes += b.TimeEstimateMinutes
}

// ExamStats summarises one exam's share of a plan.
type ExamStats struct {
	ExamName      string  `json:"exam_name"`
	Topics        int     `json:"topics"`
	TotalMinutes  int     `json:"total_minutes"`
	AvgConfidence float64 `json:"avg_confidence"`
}

// StudyPlan is a complete multi-exam study schedule. A plan is created
// once per planning run and is immutable thereafter; exports are derived
// views, not mutations.
type StudyPlan struct {
	PlanID    string    `json:"plan_id"`
	CreatedAt time.Time `json:"created_at"`

	Exams []ExamInfo `json:"exams"`
	Days  []StudyDay `json:"days"`

	Strategy      Strategy `json:"strategy"`
	StartDate     string   `json:"start_date"`
	EndDate       string   `json:"end_date"`
	MinutesPerDay int      `json:"minutes_per_day"`

	TotalDays       int     `json:"total_days"`
	TotalStudyHours float64 `json:"total_study_hours"`
	TotalTopics     int     `json:"total_topics"`

	// PrioritySource records which priority variant produced the plan.
	PrioritySource PrioritySource `json:"priority_source,omitempty"`

	// Warnings carries soft scheduling issues, such as packing past the
	// requested end date. A warning never fails plan generation.
	Warnings []string `json:"warnings,omitempty"`
}

// CalculateTotals recomputes the plan's aggregate counters from its days.
func (p *StudyPlan) CalculateTotals() {
	p.TotalDays = len(p.Days)
	totalMinutes := 0
	totalTopics := 0
	for _, d := range p.Days {
		totalMinutes += d.TotalMinutes
		totalTopics += len(d.Blocks)
	}
	p.TotalStudyHours = float64(totalMinutes) / 60.0
	p.TotalTopics = totalTopics
}

// ExamStats returns per-exam statistics keyed by exam id.
func (p *StudyPlan) ExamStats() map[string]ExamStats {
	stats := make(map[string]ExamStats, len(p.Exams))
	for _, exam := range p.Exams {
		var topics, minutes int
		var confidence float64
		for _, day := range p.Days {
			for _, block := range day.Blocks {
				if block.ExamID != exam.ExamID {
					continue
				}
				topics++
				minutes += block.TimeEstimateMinutes
				confidence += block.ConfidenceScore
			}
		}
		avg := 0.0
		if topics > 0 {
			avg = confidence / float64(topics)
		}
		stats[exam.ExamID] = ExamStats{
			ExamName:      exam.ExamName,
			Topics:        topics,
			TotalMinutes:  minutes,
			AvgConfidence: avg,
		}
	}
	return stats
}
