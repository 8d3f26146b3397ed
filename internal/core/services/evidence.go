package services

import (
	"regexp"
	"sort"
	"strings"

	"github.com/custodia-labs/examplan-cli/internal/core/domain"
)

// Evidence extraction tuning.
const (
	// DefaultGapTolerance is the largest page gap still merged into one
	// reading range.
	DefaultGapTolerance = 3

	// DefaultMaxProblems caps practice problem references per topic.
	DefaultMaxProblems = 5

	// DefaultKeyTerms caps extracted key terms per topic.
	DefaultKeyTerms = 8

	// DefaultMinTermFrequency is the minimum appearances for a phrase to
	// count as a key term.
	DefaultMinTermFrequency = 2

	// keyTermChunks is how many top chunks are scanned for key terms.
	keyTermChunks = 5

	// problemSnippetLen is the capture window after a problem marker.
	problemSnippetLen = 250
)

// problemPatterns are the practice problem markers, in fixed priority
// order. Each pattern is scanned per chunk before the next one.
var problemPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Problem\s+\d+\.?\d*`),
	regexp.MustCompile(`(?i)Exercise\s+\d+\.?\d*`),
	regexp.MustCompile(`(?i)Question\s+\d+\.?\d*`),
	regexp.MustCompile(`(?i)Challenge\s+\d+\.\d+\.\d+`),
	regexp.MustCompile(`(?i)Practice\s+\d+\.?\d*`),
}

// keyTermPattern matches title-case phrases of 2-4 consecutive
// capitalised words.
var keyTermPattern = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+){1,3}\b`)

// whitespaceRun collapses runs of whitespace in snippets.
var whitespaceRun = regexp.MustCompile(`\s+`)

// termStopwords excludes common sentence starts and structural words
// from key term phrases.
var termStopwords = map[string]struct{}{
	"The": {}, "A": {}, "An": {}, "This": {}, "That": {}, "These": {}, "Those": {},
	"In": {}, "On": {}, "At": {}, "To": {}, "For": {}, "Of": {}, "With": {}, "By": {},
	"From": {}, "As": {}, "Is": {}, "Are": {}, "Was": {}, "Were": {}, "Be": {},
	"Been": {}, "Being": {}, "Have": {}, "Has": {}, "Had": {}, "Do": {}, "Does": {},
	"Did": {}, "Will": {}, "Would": {}, "Could": {}, "Should": {}, "May": {},
	"Might": {}, "Must": {}, "Can": {},
	"Chapter": {}, "Section": {}, "Figure": {}, "Table": {}, "Page": {},
}

// ConsolidatePageRanges merges page numbers into minimal closed
// [start, end] intervals. Pages are deduped and sorted first; a page
// within gapTolerance of the current interval's end extends it.
//
//	ConsolidatePageRanges([1,2,3,7,8,15], 3) == [[1,3],[7,8],[15,15]]
func ConsolidatePageRanges(pages []int, gapTolerance int) [][2]int {
	if len(pages) == 0 {
		return nil
	}

	seen := make(map[int]struct{}, len(pages))
	unique := make([]int, 0, len(pages))
	for _, p := range pages {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		unique = append(unique, p)
	}
	sort.Ints(unique)

	ranges := make([][2]int, 0, len(unique))
	start, end := unique[0], unique[0]
	for _, page := range unique[1:] {
		if page-end <= gapTolerance {
			end = page
			continue
		}
		ranges = append(ranges, [2]int{start, end})
		start, end = page, page
	}
	return append(ranges, [2]int{start, end})
}

// ExtractPracticeProblems scans chunks in order for problem markers and
// captures a fixed window of text after each. Scanning stops as soon as
// maxProblems references are collected.
func ExtractPracticeProblems(chunks []domain.Chunk, maxProblems int) []domain.PracticeProblem {
	if maxProblems <= 0 {
		return nil
	}

	var problems []domain.PracticeProblem
	for _, chunk := range chunks {
		for _, pattern := range problemPatterns {
			for _, loc := range pattern.FindAllStringIndex(chunk.Text, -1) {
				end := loc[0] + problemSnippetLen
				if end > len(chunk.Text) {
					end = len(chunk.Text)
				}
				snippet := strings.TrimSpace(whitespaceRun.ReplaceAllString(chunk.Text[loc[0]:end], " "))

				problems = append(problems, domain.PracticeProblem{
					FileID:   chunk.FileID,
					Filename: chunk.Filename,
					Page:     chunk.PageStart,
					Snippet:  snippet,
				})
				if len(problems) >= maxProblems {
					return problems
				}
			}
		}
	}
	return problems
}

// ExtractKeyTerms finds title-case phrases recurring across the top
// chunks, ranked by descending frequency with ties broken by first
// occurrence, truncated to topK.
func ExtractKeyTerms(chunks []domain.Chunk, topK, minFrequency int) []string {
	if topK <= 0 {
		return nil
	}
	if len(chunks) > keyTermChunks {
		chunks = chunks[:keyTermChunks]
	}

	counts := make(map[string]int)
	var order []string // first-occurrence order for tie-breaking

	for _, chunk := range chunks {
		for _, match := range keyTermPattern.FindAllString(chunk.Text, -1) {
			if containsStopword(match) {
				continue
			}
			if _, ok := counts[match]; !ok {
				order = append(order, match)
			}
			counts[match]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	terms := make([]string, 0, topK)
	for _, term := range order {
		if counts[term] < minFrequency {
			continue
		}
		terms = append(terms, term)
		if len(terms) >= topK {
			break
		}
	}
	return terms
}

// containsStopword reports whether any word of the phrase is excluded.
func containsStopword(phrase string) bool {
	for _, word := range strings.Fields(phrase) {
		if _, ok := termStopwords[word]; ok {
			return true
		}
	}
	return false
}

// MeanScore is the confidence score of a topic: the arithmetic mean of
// its retrieval hit similarities. Zero for no hits.
func MeanScore(hits []domain.SearchHit) float64 {
	if len(hits) == 0 {
		return 0
	}
	sum := 0.0
	for _, h := range hits {
		sum += h.Score
	}
	return sum / float64(len(hits))
}
