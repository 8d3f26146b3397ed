package domain

// ChapterTopics groups the learning objectives of a single chapter.
type ChapterTopics struct {
	// Chapter is the chapter number.
	Chapter int `json:"chapter"`

	// ChapterTitle is the chapter title.
	ChapterTitle string `json:"chapter_title"`

	// Bullets are the learning objectives for the chapter.
	Bullets []string `json:"bullets"`
}

// ExamCoverage is the set of learning objectives one exam covers,
// grouped by chapter. It is the input to enrichment.
type ExamCoverage struct {
	// ExamID is the unique identifier for the exam.
	ExamID string `json:"exam_id"`

	// ExamName is the display name, e.g. "HLTH 204 - Midterm Examination 1".
	ExamName string `json:"exam_name"`

	// ExamDate is the exam date in ISO format, if known.
	ExamDate string `json:"exam_date,omitempty"`

	// SourceFileID identifies the syllabus/outline file the coverage
	// was extracted from.
	SourceFileID string `json:"source_file_id,omitempty"`

	// Chapters lists the chapter numbers the exam covers.
	Chapters []int `json:"chapters,omitempty"`

	// Topics are the per-chapter objective groups.
	Topics []ChapterTopics `json:"topics"`
}

// TotalBullets counts the learning objectives across all chapters.
func (c ExamCoverage) TotalBullets() int {
	n := 0
	for _, t := range c.Topics {
		n += len(t.Bullets)
	}
	return n
}
