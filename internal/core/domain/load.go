package domain

// Feasibility classifies how the estimated workload compares with the
// available study time.
type Feasibility string

// Feasibility levels, from most to least slack.
const (
	FeasibilityComfortable Feasibility = "comfortable"
	FeasibilityRealistic   Feasibility = "realistic"
	FeasibilityTight       Feasibility = "tight"
	FeasibilityImpossible  Feasibility = "impossible"
)

// Recommendation is the planning strategy suggested for a feasibility
// level.
type Recommendation string

const (
	RecommendComprehensive Recommendation = "comprehensive"
	RecommendBalanced      Recommendation = "balanced"
	RecommendPrioritized   Recommendation = "prioritized"
	RecommendCramming      Recommendation = "cramming"
)

// ExamLoad is one exam's contribution to a load analysis.
type ExamLoad struct {
	ExamName string `json:"exam_name"`
	Topics   int    `json:"topics"`
	ExamDate string `json:"exam_date,omitempty"`
}

// LoadAnalysis is the result of comparing the enriched workload with the
// available study window. Pure calculation; no external calls.
type LoadAnalysis struct {
	// TotalTopics is the topic count summed over all coverages.
	TotalTopics int `json:"total_topics"`

	// TotalTimeNeededHours is the baseline estimate at 45 minutes per
	// topic.
	TotalTimeNeededHours float64 `json:"total_time_needed_hours"`

	// TimeAvailableHours is weekday count times minutes per day.
	TimeAvailableHours float64 `json:"time_available_hours"`

	// DaysAvailable is the approximate weekday count in the window.
	DaysAvailable int `json:"days_available"`

	// Feasibility buckets the available/needed ratio.
	Feasibility Feasibility `json:"feasibility"`

	// Recommendation is the suggested planning strategy.
	Recommendation Recommendation `json:"recommendation"`

	// CoveragePercentage is min(100, ratio*100): how much of the
	// material fits in the window.
	CoveragePercentage float64 `json:"coverage_percentage"`

	// Exams breaks the workload down per exam.
	Exams []ExamLoad `json:"exams"`
}
