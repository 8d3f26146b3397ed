package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/examplan-cli/internal/core/domain"
)

func TestPlanStore_Coverages(t *testing.T) {
	store := NewPlanStore()
	ctx := context.Background()

	older := &domain.EnrichedCoverage{ExamID: "exam-old", EnrichedAt: time.Now().Add(-time.Hour)}
	newer := &domain.EnrichedCoverage{ExamID: "exam-new", EnrichedAt: time.Now()}
	require.NoError(t, store.SaveCoverage(ctx, older))
	require.NoError(t, store.SaveCoverage(ctx, newer))

	got, err := store.GetCoverage(ctx, "exam-old")
	require.NoError(t, err)
	assert.Equal(t, "exam-old", got.ExamID)

	all, err := store.ListCoverages(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "exam-new", all[0].ExamID, "newest first")

	_, err = store.GetCoverage(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPlanStore_CoverageReplaced(t *testing.T) {
	store := NewPlanStore()
	ctx := context.Background()

	require.NoError(t, store.SaveCoverage(ctx, &domain.EnrichedCoverage{ExamID: "e1", ExamName: "v1"}))
	require.NoError(t, store.SaveCoverage(ctx, &domain.EnrichedCoverage{ExamID: "e1", ExamName: "v2"}))

	got, err := store.GetCoverage(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.ExamName)
}

func TestPlanStore_Plans(t *testing.T) {
	store := NewPlanStore()
	ctx := context.Background()

	plan := &domain.StudyPlan{PlanID: "p1", CreatedAt: time.Now()}
	require.NoError(t, store.SavePlan(ctx, plan))

	got, err := store.GetPlan(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", got.PlanID)

	assert.Error(t, store.SavePlan(ctx, plan), "plans are write-once")

	_, err = store.GetPlan(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChunkStore(t *testing.T) {
	chunks := []domain.Chunk{
		{ChunkMeta: domain.ChunkMeta{ChunkID: "c1"}, Text: "one"},
		{ChunkMeta: domain.ChunkMeta{ChunkID: "c2"}, Text: "two"},
	}
	store := NewChunkStore(chunks)
	ctx := context.Background()

	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, chunks, all)

	byID, err := store.ByID(ctx, []string{"c2", "ghost"})
	require.NoError(t, err)
	require.Len(t, byID, 1)
	assert.Equal(t, "two", byID["c2"].Text)
}

func TestChunkStore_Empty(t *testing.T) {
	_, err := NewChunkStore(nil).All(context.Background())
	assert.ErrorIs(t, err, domain.ErrInputMissing)
}
