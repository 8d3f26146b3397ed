package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestEnrichedCoverage_CalculateStats tests confidence bucket counting
func TestEnrichedCoverage_CalculateStats(t *testing.T) {
	c := EnrichedCoverage{
		Topics: []EnrichedTopic{
			{ConfidenceScore: 0.9},  // high
			{ConfidenceScore: 0.75}, // high (boundary)
			{ConfidenceScore: 0.74}, // medium
			{ConfidenceScore: 0.6},  // medium (boundary)
			{ConfidenceScore: 0.59}, // low
			{ConfidenceScore: 0.0},  // low
		},
	}

	c.CalculateStats()

	assert.Equal(t, 6, c.TotalTopics)
	assert.Equal(t, 2, c.HighConfidenceCount)
	assert.Equal(t, 2, c.MediumConfidenceCount)
	assert.Equal(t, 2, c.LowConfidenceCount)
}

// TestEnrichedCoverage_BucketsSumToTotal tests the bucket invariant over
// a spread of scores
func TestEnrichedCoverage_BucketsSumToTotal(t *testing.T) {
	scores := []float64{0.0, 0.1, 0.3, 0.59, 0.6, 0.61, 0.7, 0.749, 0.75, 0.8, 0.99, 1.0}
	c := EnrichedCoverage{}
	for _, s := range scores {
		c.Topics = append(c.Topics, EnrichedTopic{ConfidenceScore: s})
	}

	c.CalculateStats()

	sum := c.HighConfidenceCount + c.MediumConfidenceCount + c.LowConfidenceCount
	assert.Equal(t, c.TotalTopics, sum)
	assert.Equal(t, len(scores), c.TotalTopics)
}

// TestChunkMeta_Pages tests inclusive page expansion
func TestChunkMeta_Pages(t *testing.T) {
	m := ChunkMeta{PageStart: 21, PageEnd: 23}
	assert.Equal(t, []int{21, 22, 23}, m.Pages())

	single := ChunkMeta{PageStart: 7, PageEnd: 7}
	assert.Equal(t, []int{7}, single.Pages())

	inverted := ChunkMeta{PageStart: 9, PageEnd: 8}
	assert.Nil(t, inverted.Pages())
}

// TestExamCoverage_TotalBullets tests objective counting across chapters
func TestExamCoverage_TotalBullets(t *testing.T) {
	c := ExamCoverage{
		Topics: []ChapterTopics{
			{Chapter: 1, Bullets: []string{"a", "b"}},
			{Chapter: 2, Bullets: []string{"c"}},
			{Chapter: 3},
		},
	}
	assert.Equal(t, 3, c.TotalBullets())
}
