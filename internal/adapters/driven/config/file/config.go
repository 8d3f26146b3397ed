// Package file provides TOML-backed configuration for examplan.
package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/examplan-cli/internal/core/domain"
)

// ConfigFileName is the name of the config file inside the config dir.
const ConfigFileName = "config.toml"

// Config is the examplan configuration, stored as TOML in the config
// directory (~/.examplan by default).
type Config struct {
	// Provider selects the embedding and LLM backend, "gemini" or
	// "ollama".
	Provider string `toml:"provider"`

	Paths     PathsConfig     `toml:"paths"`
	Gemini    GeminiConfig    `toml:"gemini"`
	Ollama    OllamaConfig    `toml:"ollama"`
	Retrieval RetrievalConfig `toml:"retrieval"`
	Planning  PlanningConfig  `toml:"planning"`
}

// PathsConfig locates the data artifacts. Relative entries are resolved
// against DataDir.
type PathsConfig struct {
	// DataDir is the root for all artifacts (default: ~/.examplan/data).
	DataDir string `toml:"data_dir"`

	// ChunksFile is the ingested chunk library (JSONL).
	ChunksFile string `toml:"chunks_file"`

	// CacheDir holds the per-chunk embedding cache artifacts.
	CacheDir string `toml:"cache_dir"`

	// IndexFile is the binary vector index artifact.
	IndexFile string `toml:"index_file"`

	// MappingFile is the index row metadata mapping (JSON).
	MappingFile string `toml:"mapping_file"`
}

// GeminiConfig configures the Google Gemini provider.
type GeminiConfig struct {
	// APIKey is the Gemini API key. The GEMINI_API_KEY environment
	// variable takes precedence when set.
	APIKey string `toml:"api_key"`

	// EmbedModel is the embedding model name.
	EmbedModel string `toml:"embed_model"`

	// LLMModel is the generation model name.
	LLMModel string `toml:"llm_model"`

	// RequestsPerSecond is the client-side embedding rate limit.
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// OllamaConfig configures a local Ollama server, used when the
// provider is "ollama". Empty fields fall back to the adapter defaults.
type OllamaConfig struct {
	// BaseURL is the Ollama API base URL.
	BaseURL string `toml:"base_url"`

	// EmbedModel is the embedding model name.
	EmbedModel string `toml:"embed_model"`

	// LLMModel is the generation model name.
	LLMModel string `toml:"llm_model"`

	// Dimensions is the embedding vector size for EmbedModel.
	Dimensions int `toml:"dimensions"`
}

// RetrievalConfig tunes coverage enrichment. The values become the
// enrich command's flag defaults.
type RetrievalConfig struct {
	TopK              int     `toml:"top_k"`
	MinScore          float64 `toml:"min_score"`
	UseChapterFilter  bool    `toml:"use_chapter_filter"`
	FallbackThreshold int     `toml:"fallback_threshold"`
	Parallelism       int     `toml:"parallelism"`
}

// PlanningConfig tunes plan generation. The values become the plan and
// analyze commands' flag defaults.
type PlanningConfig struct {
	MinutesPerDay int    `toml:"minutes_per_day"`
	Strategy      string `toml:"strategy"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Provider: "gemini",
		Gemini: GeminiConfig{
			EmbedModel: "gemini-embedding-001",
			LLMModel:   "gemini-2.0-flash",
		},
		Retrieval: RetrievalConfig{
			TopK:              domain.DefaultTopK,
			MinScore:          domain.DefaultMinScore,
			UseChapterFilter:  true,
			FallbackThreshold: domain.DefaultFallbackThreshold,
			Parallelism:       domain.DefaultParallelism,
		},
		Planning: PlanningConfig{
			MinutesPerDay: domain.DefaultMinutesPerDay,
			Strategy:      string(domain.StrategyBalanced),
		},
	}
}

// Load reads the config file from configDir, filling defaults for
// anything unset. A missing file is not an error; the defaults apply.
// If configDir is empty, defaults to ~/.examplan.
func Load(configDir string) (*Config, error) {
	dir, err := resolveDir(configDir)
	if err != nil {
		return nil, err
	}

	cfg := Default()

	raw, err := os.ReadFile(filepath.Join(dir, ConfigFileName))
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyPathDefaults(dir)
			return &cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyPathDefaults(dir)
	return &cfg, nil
}

// Save writes the config to configDir with restricted permissions.
func (c *Config) Save(configDir string) error {
	dir, err := resolveDir(configDir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	// The file may carry an API key.
	return os.WriteFile(filepath.Join(dir, ConfigFileName), data, 0600)
}

// ResolveAPIKey returns the Gemini API key, preferring the environment.
func (c *Config) ResolveAPIKey() string {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key
	}
	return c.Gemini.APIKey
}

// applyPathDefaults fills unset paths relative to the data directory.
func (c *Config) applyPathDefaults(configDir string) {
	if c.Paths.DataDir == "" {
		c.Paths.DataDir = filepath.Join(configDir, "data")
	}
	c.Paths.ChunksFile = resolvePath(c.Paths.DataDir, c.Paths.ChunksFile, "chunks.jsonl")
	c.Paths.CacheDir = resolvePath(c.Paths.DataDir, c.Paths.CacheDir, "embedding_cache")
	c.Paths.IndexFile = resolvePath(c.Paths.DataDir, c.Paths.IndexFile, "index.bin")
	c.Paths.MappingFile = resolvePath(c.Paths.DataDir, c.Paths.MappingFile, "index_mapping.json")
}

// resolvePath fills in a default file name and anchors relative paths
// at the data directory.
func resolvePath(dataDir, value, defaultName string) string {
	if value == "" {
		value = defaultName
	}
	if filepath.IsAbs(value) {
		return value
	}
	return filepath.Join(dataDir, value)
}

func resolveDir(configDir string) (string, error) {
	if configDir != "" {
		return configDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".examplan"), nil
}
