package domain

// SearchFilters narrows a vector search. The zero value applies no
// filtering. Filters are applied in a fixed precedence: chapter, then
// file id, then minimum score.
type SearchFilters struct {
	// Chapters restricts results to chunks in any of these chapters.
	// Empty means no chapter filtering.
	Chapters []int

	// FileID restricts results to chunks from one source file.
	FileID string

	// MinScore drops results whose similarity is below this value.
	// Must be in [0, 1].
	MinScore float64
}

// IsZero reports whether no filtering is requested.
func (f SearchFilters) IsZero() bool {
	return len(f.Chapters) == 0 && f.FileID == "" && f.MinScore == 0
}

// MatchesChapter reports whether the chapter passes the chapter filter.
func (f SearchFilters) MatchesChapter(chapter int) bool {
	if len(f.Chapters) == 0 {
		return true
	}
	for _, ch := range f.Chapters {
		if ch == chapter {
			return true
		}
	}
	return false
}

// WithoutChapters returns a copy of the filters with chapter filtering
// removed. Used by the enrichment fallback search.
func (f SearchFilters) WithoutChapters() SearchFilters {
	f.Chapters = nil
	return f
}

// SearchHit is a single vector search result.
type SearchHit struct {
	// Score is the similarity score (cosine, via inner product over
	// normalised vectors).
	Score float64 `json:"score"`

	// Row is the index row the hit came from. Ties in score are broken
	// by lower row.
	Row int `json:"row"`

	// Meta is the chunk metadata stored for the row.
	Meta ChunkMeta `json:"meta"`
}
