// Command examplan is a study planner grounded in textbook evidence.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/custodia-labs/examplan-cli/internal/adapters/driven/config/file"
	geminiembed "github.com/custodia-labs/examplan-cli/internal/adapters/driven/embedding/gemini"
	ollamaembed "github.com/custodia-labs/examplan-cli/internal/adapters/driven/embedding/ollama"
	geminillm "github.com/custodia-labs/examplan-cli/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/examplan-cli/internal/adapters/driven/llm/ollama"
	"github.com/custodia-labs/examplan-cli/internal/adapters/driven/storage/fscache"
	"github.com/custodia-labs/examplan-cli/internal/adapters/driven/storage/jsonl"
	"github.com/custodia-labs/examplan-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/examplan-cli/internal/adapters/driven/vector/flat"
	"github.com/custodia-labs/examplan-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/examplan-cli/internal/core/domain"
	"github.com/custodia-labs/examplan-cli/internal/core/ports/driven"
	"github.com/custodia-labs/examplan-cli/internal/core/services"
)

// version is overridden at build time with -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := file.Load(os.Getenv("EXAMPLAN_CONFIG_DIR"))
	if err != nil {
		return err
	}

	chunks := jsonl.NewChunkStore(cfg.Paths.ChunksFile)

	cache, err := fscache.New(cfg.Paths.CacheDir)
	if err != nil {
		return fmt.Errorf("open embedding cache: %w", err)
	}

	index := flat.New()
	// A never-built index is tolerated here; commands that need one
	// refuse to run without it. Corrupt artifacts fail outright.
	if err := index.Load(cfg.Paths.IndexFile, cfg.Paths.MappingFile); err != nil &&
		!errors.Is(err, domain.ErrInputMissing) {
		return fmt.Errorf("load index: %w", err)
	}

	var (
		embedder    driven.EmbeddingService
		questions   driven.QuestionService
		prioritizer driven.Prioritizer
	)
	switch cfg.Provider {
	case "ollama":
		embedder = ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    cfg.Ollama.BaseURL,
			Model:      cfg.Ollama.EmbedModel,
			Dimensions: cfg.Ollama.Dimensions,
		})
		llmService := ollamallm.NewService(ollamallm.Config{
			BaseURL: cfg.Ollama.BaseURL,
			Model:   cfg.Ollama.LLMModel,
		})
		questions = llmService
		prioritizer = llmService
	default:
		// Gemini needs a key; without one the commands that only read
		// stored state still work.
		if key := cfg.ResolveAPIKey(); key != "" {
			embedService, err := geminiembed.NewEmbeddingService(geminiembed.Config{
				APIKey:            key,
				Model:             cfg.Gemini.EmbedModel,
				RequestsPerSecond: cfg.Gemini.RequestsPerSecond,
			})
			if err != nil {
				return fmt.Errorf("configure embedding provider: %w", err)
			}
			embedder = embedService

			llmService, err := geminillm.NewService(geminillm.Config{
				APIKey: key,
				Model:  cfg.Gemini.LLMModel,
			})
			if err != nil {
				return fmt.Errorf("configure llm provider: %w", err)
			}
			questions = llmService
			prioritizer = llmService
		}
	}

	store, err := sqlite.NewStore(cfg.Paths.DataDir)
	if err != nil {
		return fmt.Errorf("open plan store: %w", err)
	}
	defer store.Close()

	resolver := services.NewResolver(cache, embedder)
	indexer := services.NewIndexer(chunks, resolver, index, embedder,
		cfg.Paths.IndexFile, cfg.Paths.MappingFile)
	enricher := services.NewEnricher(index, chunks, embedder)
	planner := services.NewPlanner(prioritizer, questions)

	cli.SetVersion(version)
	cli.SetDefaults(cli.Defaults{
		TopK:              cfg.Retrieval.TopK,
		MinScore:          cfg.Retrieval.MinScore,
		UseChapterFilter:  cfg.Retrieval.UseChapterFilter,
		FallbackThreshold: cfg.Retrieval.FallbackThreshold,
		Parallelism:       cfg.Retrieval.Parallelism,
		MinutesPerDay:     cfg.Planning.MinutesPerDay,
		Strategy:          cfg.Planning.Strategy,
	})
	cli.SetServices(&cli.Services{
		Index:   indexer,
		Enrich:  enricher,
		Planner: planner,
		Plans:   store,
	})

	return cli.Execute()
}
