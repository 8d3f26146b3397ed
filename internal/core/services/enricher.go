package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/examplan-cli/internal/core/domain"
	"github.com/custodia-labs/examplan-cli/internal/core/ports/driven"
	"github.com/custodia-labs/examplan-cli/internal/core/ports/driving"
	"github.com/custodia-labs/examplan-cli/internal/logger"
)

// Notes attached to topics during enrichment.
const (
	noteNoEvidence    = "no evidence: no relevant chunks found above threshold"
	noteLowConfidence = "low confidence: textbook may not align well with this objective"
)

// excerptLen caps stored evidence excerpts used for question generation.
const excerptLen = 400

// Ensure Enricher implements the interface.
var _ driving.EnrichmentService = (*Enricher)(nil)

// Enricher grounds exam coverage in textbook evidence: per objective it
// queries the index (chapter-filtered, with unfiltered fallback),
// hydrates the matched chunks, and extracts reading pages, practice
// problems, key terms, and a confidence score.
type Enricher struct {
	index    driven.VectorIndex
	chunks   driven.ChunkStore
	embedder driven.EmbeddingService
	progress domain.ProgressFunc
}

// NewEnricher creates an enrichment service.
func NewEnricher(index driven.VectorIndex, chunks driven.ChunkStore, embedder driven.EmbeddingService) *Enricher {
	return &Enricher{
		index:    index,
		chunks:   chunks,
		embedder: embedder,
		progress: domain.NopProgress,
	}
}

// SetProgress sets the progress callback.
func (s *Enricher) SetProgress(fn domain.ProgressFunc) {
	if fn != nil {
		s.progress = fn
	}
}

// pendingTopic is one bullet queued for enrichment.
type pendingTopic struct {
	chapter      int
	chapterTitle string
	bullet       string
}

// Enrich produces the enriched coverage for one exam. It has no side
// effects beyond the returned value; a cancelled context aborts between
// topics and discards all partial work. An empty index fails before any
// provider call is made.
func (s *Enricher) Enrich(ctx context.Context, coverage domain.ExamCoverage, opts domain.EnrichOptions) (*domain.EnrichedCoverage, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if s.index.Len() == 0 {
		return nil, fmt.Errorf("vector index is empty, run build-index first: %w", domain.ErrInputMissing)
	}

	logger.Section("Coverage Enrichment")
	logger.Debug("Exam: %s, chapters: %v", coverage.ExamName, coverage.Chapters)

	var pending []pendingTopic
	for _, ct := range coverage.Topics {
		for _, bullet := range ct.Bullets {
			pending = append(pending, pendingTopic{
				chapter:      ct.Chapter,
				chapterTitle: ct.ChapterTitle,
				bullet:       bullet,
			})
		}
	}

	enriched := make([]domain.EnrichedTopic, len(pending))

	if opts.Parallelism > 1 {
		// Results are reinserted by topic position, never appended on
		// completion, so coverage order is stable.
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opts.Parallelism)
		for i, topic := range pending {
			i, topic := i, topic
			g.Go(func() error {
				result, err := s.enrichTopic(gctx, topic, opts)
				if err != nil {
					return err
				}
				enriched[i] = result
				s.progress(domain.ProgressEvent{
					Stage: "enrich", Message: topic.bullet, Current: i + 1, Total: len(pending),
				})
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, topic := range pending {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			result, err := s.enrichTopic(ctx, topic, opts)
			if err != nil {
				return nil, err
			}
			enriched[i] = result
			s.progress(domain.ProgressEvent{
				Stage: "enrich", Message: topic.bullet, Current: i + 1, Total: len(pending),
			})
		}
	}

	result := &domain.EnrichedCoverage{
		ExamID:       coverage.ExamID,
		ExamName:     coverage.ExamName,
		ExamDate:     coverage.ExamDate,
		SourceFileID: coverage.SourceFileID,
		EnrichedAt:   time.Now(),
		Topics:       enriched,
	}
	result.CalculateStats()

	logger.Info("Enriched %d topics: %d high, %d medium, %d low confidence",
		result.TotalTopics, result.HighConfidenceCount, result.MediumConfidenceCount, result.LowConfidenceCount)

	return result, nil
}

// enrichTopic runs the per-bullet pipeline: query embedding, filtered
// search with fallback, hydration, and evidence extraction.
func (s *Enricher) enrichTopic(ctx context.Context, topic pendingTopic, opts domain.EnrichOptions) (domain.EnrichedTopic, error) {
	queryVec, err := s.embedder.EmbedQuery(ctx, topic.bullet)
	if err != nil {
		return domain.EnrichedTopic{}, fmt.Errorf("embed objective %q: %w", topic.bullet, err)
	}

	filters := domain.SearchFilters{MinScore: opts.MinScore}
	chapterFiltered := opts.UseChapterFilter && topic.chapter > 0
	if chapterFiltered {
		filters.Chapters = []int{topic.chapter}
	}

	hits, err := s.index.Search(ctx, queryVec, opts.TopK, filters)
	if err != nil {
		return domain.EnrichedTopic{}, fmt.Errorf("search for %q: %w", topic.bullet, err)
	}

	// Too few chapter-local hits: widen to the whole library, keeping
	// the score floor.
	if chapterFiltered && len(hits) < opts.FallbackThreshold {
		logger.Debug("Fallback search for %q (%d chapter hits)", topic.bullet, len(hits))
		hits, err = s.index.Search(ctx, queryVec, opts.TopK, filters.WithoutChapters())
		if err != nil {
			return domain.EnrichedTopic{}, fmt.Errorf("fallback search for %q: %w", topic.bullet, err)
		}
	}

	if len(hits) == 0 {
		return domain.EnrichedTopic{
			Chapter:      topic.chapter,
			ChapterTitle: topic.chapterTitle,
			Bullet:       topic.bullet,
			Notes:        noteNoEvidence,
		}, nil
	}

	retrieved, err := s.hydrate(ctx, hits)
	if err != nil {
		return domain.EnrichedTopic{}, err
	}

	confidence := MeanScore(hits)

	var pages []int
	for _, chunk := range retrieved {
		pages = append(pages, chunk.Pages()...)
	}

	reading := domain.ReadingPages{PageRanges: ConsolidatePageRanges(pages, DefaultGapTolerance)}
	if len(retrieved) > 0 {
		reading.FileID = retrieved[0].FileID
		reading.Filename = retrieved[0].Filename
	}

	var excerpts []string
	for _, chunk := range retrieved {
		if len(excerpts) == 3 {
			break
		}
		excerpts = append(excerpts, truncateExcerpt(chunk.Text, excerptLen))
	}

	notes := ""
	if confidence < domain.LowConfidenceThreshold {
		notes = noteLowConfidence
	}

	return domain.EnrichedTopic{
		Chapter:          topic.chapter,
		ChapterTitle:     topic.chapterTitle,
		Bullet:           topic.bullet,
		ReadingPages:     reading,
		PracticeProblems: ExtractPracticeProblems(retrieved, DefaultMaxProblems),
		KeyTerms:         ExtractKeyTerms(retrieved, DefaultKeyTerms, DefaultMinTermFrequency),
		ConfidenceScore:  confidence,
		ChunksRetrieved:  len(hits),
		Notes:            notes,
		TopChunks:        excerpts,
	}, nil
}

// hydrate resolves hits into full chunk records, preserving hit order.
// Hits whose chunk has vanished from the store are skipped.
func (s *Enricher) hydrate(ctx context.Context, hits []domain.SearchHit) ([]domain.Chunk, error) {
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.Meta.ChunkID
	}

	byID, err := s.chunks.ByID(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrate chunks: %w", err)
	}

	retrieved := make([]domain.Chunk, 0, len(hits))
	for _, h := range hits {
		if chunk, ok := byID[h.Meta.ChunkID]; ok {
			retrieved = append(retrieved, chunk)
		}
	}
	return retrieved, nil
}

// truncateExcerpt trims text to at most n characters, marking the cut.
func truncateExcerpt(text string, n int) string {
	text = strings.TrimSpace(text)
	if len(text) <= n {
		return text
	}
	return text[:n] + "..."
}
