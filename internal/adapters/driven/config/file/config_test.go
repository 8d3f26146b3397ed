package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/examplan-cli/internal/core/domain"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.Provider)
	assert.Equal(t, "gemini-embedding-001", cfg.Gemini.EmbedModel)
	assert.Equal(t, domain.DefaultTopK, cfg.Retrieval.TopK)
	assert.Equal(t, domain.DefaultMinScore, cfg.Retrieval.MinScore)
	assert.True(t, cfg.Retrieval.UseChapterFilter)
	assert.Equal(t, domain.DefaultParallelism, cfg.Retrieval.Parallelism)
	assert.Equal(t, domain.DefaultMinutesPerDay, cfg.Planning.MinutesPerDay)

	assert.Equal(t, filepath.Join(dir, "data"), cfg.Paths.DataDir)
	assert.Equal(t, filepath.Join(dir, "data", "chunks.jsonl"), cfg.Paths.ChunksFile)
	assert.Equal(t, filepath.Join(dir, "data", "index.bin"), cfg.Paths.IndexFile)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `
provider = "ollama"

[ollama]
base_url = "http://box:11434"
embed_model = "nomic-embed-text"

[gemini]
embed_model = "embedding-001"

[retrieval]
top_k = 25
min_score = 0.4
use_chapter_filter = false
fallback_threshold = 3

[planning]
minutes_per_day = 120
strategy = "round_robin"

[paths]
chunks_file = "/srv/chunks.jsonl"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.Provider)
	assert.Equal(t, "http://box:11434", cfg.Ollama.BaseURL)
	assert.Equal(t, "embedding-001", cfg.Gemini.EmbedModel)
	assert.Equal(t, "gemini-2.0-flash", cfg.Gemini.LLMModel, "unset keys keep defaults")
	assert.Equal(t, 25, cfg.Retrieval.TopK)
	assert.False(t, cfg.Retrieval.UseChapterFilter)
	assert.Equal(t, 120, cfg.Planning.MinutesPerDay)
	assert.Equal(t, "round_robin", cfg.Planning.Strategy)

	assert.Equal(t, "/srv/chunks.jsonl", cfg.Paths.ChunksFile, "absolute paths pass through")
	assert.Equal(t, filepath.Join(dir, "data", "index.bin"), cfg.Paths.IndexFile, "unset paths derive from data dir")
}

func TestLoad_Malformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("not toml ["), 0o600))

	_, err := Load(dir)
	assert.ErrorContains(t, err, "parse config")
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	cfg := Default()
	cfg.Gemini.APIKey = "secret"
	cfg.Retrieval.TopK = 7
	require.NoError(t, cfg.Save(dir))

	info, err := os.Stat(filepath.Join(dir, ConfigFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "secret", loaded.Gemini.APIKey)
	assert.Equal(t, 7, loaded.Retrieval.TopK)
}

func TestResolveAPIKey(t *testing.T) {
	cfg := Default()
	cfg.Gemini.APIKey = "from-file"

	t.Setenv("GEMINI_API_KEY", "")
	assert.Equal(t, "from-file", cfg.ResolveAPIKey())

	t.Setenv("GEMINI_API_KEY", "from-env")
	assert.Equal(t, "from-env", cfg.ResolveAPIKey())
}
