package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCoverageFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "coverage.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const testCoverageJSON = `{
	"exam_id": "exam-b",
	"exam_name": "HLTH 204 Final",
	"chapters": [3, 4],
	"topics": [
		{"chapter": 3, "chapter_title": "Stress", "bullets": ["Describe the stress response", "Define homeostasis"]}
	]
}`

func TestEnrichCmd_Use(t *testing.T) {
	assert.Equal(t, "enrich [coverage-file]", enrichCmd.Use)
}

func TestEnrichCmd_Executes(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	path := writeCoverageFile(t, testCoverageJSON)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"enrich", path})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Enriched HLTH 204 Final: 2 topics")
	assert.Contains(t, buf.String(), "Confidence: 2 high, 0 medium, 0 low")
	assert.Contains(t, buf.String(), "Saved coverage for exam exam-b")

	stored, err := planStore.GetCoverage(context.Background(), "exam-b")
	require.NoError(t, err)
	assert.Equal(t, "HLTH 204 Final", stored.ExamName)
}

func TestEnrichCmd_NoChapterFilterFlag(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	mock := enrichService.(*mockEnrichService)
	path := writeCoverageFile(t, testCoverageJSON)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"enrich", "--no-chapter-filter", "--top-k", "15", path})
	defer func() {
		rootCmd.SetArgs(nil)
		enrichNoChapterFilter = false
		enrichTopK = 10
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.False(t, mock.lastOpts.UseChapterFilter)
	assert.Equal(t, 15, mock.lastOpts.TopK)
}

func TestEnrichCmd_JSONOutput(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	path := writeCoverageFile(t, testCoverageJSON)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"enrich", "--json", path})
	defer func() {
		rootCmd.SetArgs(nil)
		enrichJSON = false
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "\"exam_id\": \"exam-b\"")
	assert.Contains(t, buf.String(), "\"total_topics\": 2")
}

func TestEnrichCmd_FileNotFound(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"enrich", "/nonexistent/coverage.json"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "coverage file not found")
}

func TestEnrichCmd_MalformedFile(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	path := writeCoverageFile(t, "not json")

	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"enrich", path})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse coverage file")
}

func TestEnrichCmd_MissingExamID(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	path := writeCoverageFile(t, `{"exam_name": "No ID"}`)

	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"enrich", path})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "missing exam_id")
}

func TestEnrichCmd_ServiceNotConfigured(t *testing.T) {
	oldService := enrichService
	enrichService = nil
	defer func() {
		enrichService = oldService
	}()

	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"enrich", "whatever.json"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "enrichment service not configured")
}
