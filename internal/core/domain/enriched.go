package domain

import "time"

// Confidence bucket thresholds. A topic is high confidence at or above
// HighConfidenceThreshold, low below LowConfidenceThreshold, and medium
// in between.
const (
	HighConfidenceThreshold = 0.75
	LowConfidenceThreshold  = 0.6
)

// ReadingPages points at consolidated page ranges in one source file.
type ReadingPages struct {
	// FileID identifies the source file.
	FileID string `json:"file_id"`

	// Filename is the human-readable name of the source file.
	Filename string `json:"filename"`

	// PageRanges are consolidated closed intervals [[start, end], ...].
	PageRanges [][2]int `json:"page_ranges"`
}

// PracticeProblem is a reference to a practice problem found in a chunk.
type PracticeProblem struct {
	// FileID identifies the source file.
	FileID string `json:"file_id"`

	// Filename is the human-readable name of the source file.
	Filename string `json:"filename"`

	// Page is the page the problem appears on.
	Page int `json:"page"`

	// Snippet is the problem text window, whitespace-collapsed.
	Snippet string `json:"snippet"`
}

// EnrichedTopic is a learning objective grounded in textbook evidence.
type EnrichedTopic struct {
	// Chapter is the chapter the objective belongs to.
	Chapter int `json:"chapter"`

	// ChapterTitle is the chapter title.
	ChapterTitle string `json:"chapter_title"`

	// Bullet is the objective text.
	Bullet string `json:"bullet"`

	// ReadingPages are the consolidated pages supporting the objective.
	ReadingPages ReadingPages `json:"reading_pages"`

	// PracticeProblems are problem references found in the evidence.
	PracticeProblems []PracticeProblem `json:"practice_problems,omitempty"`

	// KeyTerms are recurring title-case phrases from the evidence.
	KeyTerms []string `json:"key_terms,omitempty"`

	// ConfidenceScore is the mean similarity of the contributing
	// retrieval hits, in [0, 1]. Zero when no evidence was found.
	ConfidenceScore float64 `json:"confidence_score"`

	// ChunksRetrieved is the number of retrieval hits that survived
	// filtering.
	ChunksRetrieved int `json:"chunks_retrieved"`

	// Notes carries warnings such as low-confidence or no-evidence flags.
	Notes string `json:"notes,omitempty"`

	// TopChunks holds up to three evidence excerpts (truncated) kept for
	// study question generation.
	TopChunks []string `json:"top_chunks,omitempty"`
}

// EnrichedCoverage is one exam's coverage after enrichment, with
// confidence statistics over its topics.
type EnrichedCoverage struct {
	ExamID       string `json:"exam_id"`
	ExamName     string `json:"exam_name"`
	ExamDate     string `json:"exam_date,omitempty"`
	SourceFileID string `json:"source_file_id,omitempty"`

	// EnrichedAt is when the enrichment ran.
	EnrichedAt time.Time `json:"enriched_at"`

	// Topics are the enriched objectives, in coverage order.
	Topics []EnrichedTopic `json:"topics"`

	// TotalTopics equals len(Topics); the three bucket counts below
	// always sum to it.
	TotalTopics           int `json:"total_topics"`
	HighConfidenceCount   int `json:"high_confidence_count"`
	MediumConfidenceCount int `json:"medium_confidence_count"`
	LowConfidenceCount    int `json:"low_confidence_count"`
}

// CalculateStats recomputes TotalTopics and the confidence bucket counts.
func (c *EnrichedCoverage) CalculateStats() {
	c.TotalTopics = len(c.Topics)
	c.HighConfidenceCount = 0
	c.MediumConfidenceCount = 0
	c.LowConfidenceCount = 0
	for _, t := range c.Topics {
		switch {
		case t.ConfidenceScore >= HighConfidenceThreshold:
			c.HighConfidenceCount++
		case t.ConfidenceScore >= LowConfidenceThreshold:
			c.MediumConfidenceCount++
		default:
			c.LowConfidenceCount++
		}
	}
}
