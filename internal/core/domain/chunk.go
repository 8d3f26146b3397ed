package domain

// ChunkMeta is the positional metadata for a chunk, without its text.
// It is what the vector index stores per row: enough to filter and to
// locate the chunk in its source document.
type ChunkMeta struct {
	// ChunkID is the unique identifier for the chunk.
	ChunkID string `json:"chunk_id"`

	// FileID identifies the source file the chunk was extracted from.
	FileID string `json:"file_id"`

	// Filename is the human-readable name of the source file.
	Filename string `json:"filename"`

	// PageStart is the first page the chunk spans (inclusive).
	PageStart int `json:"page_start"`

	// PageEnd is the last page the chunk spans (inclusive).
	PageEnd int `json:"page_end"`

	// ChapterNumber is the chapter the chunk belongs to.
	// Zero means the chunk could not be attributed to a chapter.
	ChapterNumber int `json:"chapter_number,omitempty"`

	// ChapterTitle is the title of the chapter, if known.
	ChapterTitle string `json:"chapter_title,omitempty"`

	// TokenCount is the approximate token count of the chunk text.
	TokenCount int `json:"token_count"`
}

// Chunk is an immutable span of source text with its provenance.
// Re-chunking a file replaces its chunks; it never mutates them.
type Chunk struct {
	ChunkMeta

	// Text is the chunk content.
	Text string `json:"text"`
}

// Pages returns every page number the chunk spans, inclusive.
func (c ChunkMeta) Pages() []int {
	if c.PageEnd < c.PageStart {
		return nil
	}
	pages := make([]int, 0, c.PageEnd-c.PageStart+1)
	for p := c.PageStart; p <= c.PageEnd; p++ {
		pages = append(pages, p)
	}
	return pages
}
