package flat

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/examplan-cli/internal/core/domain"
)

func meta(chunkID, fileID string, chapter int) domain.ChunkMeta {
	return domain.ChunkMeta{ChunkID: chunkID, FileID: fileID, ChapterNumber: chapter}
}

// buildFixture indexes four easily separable 2D vectors.
func buildFixture(t *testing.T) *Index {
	t.Helper()
	index := New()
	err := index.Build(
		[][]float32{
			{1, 0},     // c1: aligned with the x axis
			{0.9, 0.1}, // c2: near x
			{0, 1},     // c3: orthogonal
			{0.7, 0.7}, // c4: diagonal
		},
		[]domain.ChunkMeta{
			meta("c1", "f1", 1),
			meta("c2", "f1", 2),
			meta("c3", "f2", 2),
			meta("c4", "f2", 3),
		},
	)
	require.NoError(t, err)
	return index
}

func TestIndex_Search_Ranking(t *testing.T) {
	index := buildFixture(t)

	hits, err := index.Search(context.Background(), []float32{1, 0}, 3, domain.SearchFilters{})
	require.NoError(t, err)

	require.Len(t, hits, 3)
	assert.Equal(t, "c1", hits[0].Meta.ChunkID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	assert.Equal(t, "c2", hits[1].Meta.ChunkID)
	assert.Equal(t, "c4", hits[2].Meta.ChunkID)
	assert.Greater(t, hits[1].Score, hits[2].Score)
}

func TestIndex_Search_QueryNormalised(t *testing.T) {
	index := buildFixture(t)

	// Scaling the query must not change scores.
	small, err := index.Search(context.Background(), []float32{1, 0}, 4, domain.SearchFilters{})
	require.NoError(t, err)
	large, err := index.Search(context.Background(), []float32{250, 0}, 4, domain.SearchFilters{})
	require.NoError(t, err)
	assert.Equal(t, small, large)
}

func TestIndex_Search_ChapterFilter(t *testing.T) {
	index := buildFixture(t)

	hits, err := index.Search(context.Background(), []float32{1, 0}, 4, domain.SearchFilters{Chapters: []int{2}})
	require.NoError(t, err)

	require.Len(t, hits, 2)
	assert.Equal(t, "c2", hits[0].Meta.ChunkID)
	assert.Equal(t, "c3", hits[1].Meta.ChunkID)
}

func TestIndex_Search_FileFilter(t *testing.T) {
	index := buildFixture(t)

	hits, err := index.Search(context.Background(), []float32{1, 0}, 4, domain.SearchFilters{FileID: "f2"})
	require.NoError(t, err)

	require.Len(t, hits, 2)
	for _, h := range hits {
		assert.Equal(t, "f2", h.Meta.FileID)
	}
}

func TestIndex_Search_MinScore(t *testing.T) {
	index := buildFixture(t)

	hits, err := index.Search(context.Background(), []float32{1, 0}, 4, domain.SearchFilters{MinScore: 0.9})
	require.NoError(t, err)

	require.Len(t, hits, 2, "only c1 and c2 clear 0.9")
	for _, h := range hits {
		assert.GreaterOrEqual(t, h.Score, 0.9)
	}
}

func TestIndex_Search_FilteredOverfetch(t *testing.T) {
	// 10 rows near the query in chapter 1, then one chapter 2 row far
	// down the ranking. With topK 2 the candidate set is 6, so the
	// chapter 2 row must not appear even though it matches the filter.
	var vectors [][]float32
	var metas []domain.ChunkMeta
	for i := 0; i < 10; i++ {
		vectors = append(vectors, []float32{1, float32(i) * 0.01})
		metas = append(metas, meta(string(rune('a'+i)), "f1", 1))
	}
	vectors = append(vectors, []float32{0, 1})
	metas = append(metas, meta("far", "f1", 2))

	index := New()
	require.NoError(t, index.Build(vectors, metas))

	hits, err := index.Search(context.Background(), []float32{1, 0}, 2, domain.SearchFilters{Chapters: []int{2}})
	require.NoError(t, err)
	assert.Empty(t, hits, "filter applies to the ranked candidate window")
}

func TestIndex_Search_TieBrokenByRow(t *testing.T) {
	index := New()
	require.NoError(t, index.Build(
		[][]float32{{1, 0}, {2, 0}, {0.5, 0}},
		[]domain.ChunkMeta{meta("r0", "f1", 1), meta("r1", "f1", 1), meta("r2", "f1", 1)},
	))

	// All normalise to the same vector; order must be row order.
	hits, err := index.Search(context.Background(), []float32{1, 0}, 3, domain.SearchFilters{})
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{hits[0].Row, hits[1].Row, hits[2].Row})
}

func TestIndex_Search_ZeroVectorNeverMatches(t *testing.T) {
	index := New()
	require.NoError(t, index.Build(
		[][]float32{{0, 0}, {1, 0}},
		[]domain.ChunkMeta{meta("zero", "f1", 1), meta("c1", "f1", 1)},
	))

	hits, err := index.Search(context.Background(), []float32{1, 0}, 2, domain.SearchFilters{MinScore: 0.1})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c1", hits[0].Meta.ChunkID)
}

func TestIndex_Search_Empty(t *testing.T) {
	hits, err := New().Search(context.Background(), []float32{1, 0}, 5, domain.SearchFilters{})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndex_Search_DimensionMismatch(t *testing.T) {
	index := buildFixture(t)

	_, err := index.Search(context.Background(), []float32{1, 0, 0}, 5, domain.SearchFilters{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIndex_Build_LengthMismatch(t *testing.T) {
	err := New().Build([][]float32{{1, 0}}, nil)
	assert.ErrorIs(t, err, domain.ErrIndexMismatch)
}

func TestIndex_Build_RaggedVectors(t *testing.T) {
	err := New().Build(
		[][]float32{{1, 0}, {1, 0, 0}},
		[]domain.ChunkMeta{meta("a", "f1", 1), meta("b", "f1", 1)},
	)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIndex_SaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	indexPath := filepath.Join(dir, "index.bin")
	mappingPath := filepath.Join(dir, "mapping.json")

	original := buildFixture(t)
	require.NoError(t, original.Save(indexPath, mappingPath))

	loaded := New()
	require.NoError(t, loaded.Load(indexPath, mappingPath))
	assert.Equal(t, original.Len(), loaded.Len())

	query := []float32{0.6, 0.4}
	want, err := original.Search(context.Background(), query, 4, domain.SearchFilters{})
	require.NoError(t, err)
	got, err := loaded.Search(context.Background(), query, 4, domain.SearchFilters{})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestIndex_Load_Missing(t *testing.T) {
	dir := t.TempDir()
	err := New().Load(filepath.Join(dir, "index.bin"), filepath.Join(dir, "mapping.json"))
	assert.ErrorIs(t, err, domain.ErrInputMissing)
}

func TestIndex_Load_MappingMismatch(t *testing.T) {
	dir := t.TempDir()
	indexPath := filepath.Join(dir, "index.bin")
	mappingPath := filepath.Join(dir, "mapping.json")

	require.NoError(t, buildFixture(t).Save(indexPath, mappingPath))
	// Drop one mapping entry.
	require.NoError(t, os.WriteFile(mappingPath, []byte(`[{"chunk_id":"c1"}]`), 0o644))

	err := New().Load(indexPath, mappingPath)
	assert.ErrorIs(t, err, domain.ErrIndexMismatch)
}

func TestIndex_Load_BadMagic(t *testing.T) {
	dir := t.TempDir()
	indexPath := filepath.Join(dir, "index.bin")
	require.NoError(t, os.WriteFile(indexPath, []byte("not an index artifact"), 0o644))

	err := New().Load(indexPath, filepath.Join(dir, "mapping.json"))
	assert.ErrorContains(t, err, "not in the expected format")
}
