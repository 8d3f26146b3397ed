package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/examplan-cli/internal/core/domain"
)

var (
	enrichTopK            int
	enrichMinScore        float64
	enrichNoChapterFilter bool
	enrichParallelism     int
	enrichJSON            bool

	// enrichFallback has no flag; it comes from the configuration.
	enrichFallback = domain.DefaultFallbackThreshold
)

var enrichCmd = &cobra.Command{
	Use:   "enrich [coverage-file]",
	Short: "Ground exam coverage in textbook evidence",
	Long: `Enriches an exam coverage file with textbook evidence.

The coverage file is a JSON document listing an exam's chapters and
learning objectives. Each objective is matched against the index to
find its reading pages, practice problems, and key terms, along with a
confidence score. The result is stored for planning.`,
	Args: cobra.ExactArgs(1),
	RunE: runEnrich,
}

func init() {
	enrichCmd.Flags().IntVar(&enrichTopK, "top-k", domain.DefaultTopK, "chunks to retrieve per topic")
	enrichCmd.Flags().Float64Var(&enrichMinScore, "min-score", domain.DefaultMinScore, "minimum similarity score")
	enrichCmd.Flags().BoolVar(&enrichNoChapterFilter, "no-chapter-filter", false, "disable chapter filtering")
	enrichCmd.Flags().IntVar(&enrichParallelism, "parallelism", domain.DefaultParallelism, "concurrent topic enrichments")
	enrichCmd.Flags().BoolVar(&enrichJSON, "json", false, "output the enriched coverage as JSON")
	rootCmd.AddCommand(enrichCmd)
}

func runEnrich(cmd *cobra.Command, args []string) error {
	if enrichService == nil {
		return errors.New("enrichment service not configured")
	}

	coverage, err := loadCoverageFile(args[0])
	if err != nil {
		return err
	}

	opts := domain.EnrichOptions{
		TopK:              enrichTopK,
		MinScore:          enrichMinScore,
		UseChapterFilter:  !enrichNoChapterFilter,
		FallbackThreshold: enrichFallback,
		Parallelism:       enrichParallelism,
	}

	ctx := context.Background()
	enriched, err := enrichService.Enrich(ctx, *coverage, opts)
	if err != nil {
		return fmt.Errorf("enrichment failed: %w", err)
	}

	if planStore != nil {
		if err := planStore.SaveCoverage(ctx, enriched); err != nil {
			return fmt.Errorf("failed to save enriched coverage: %w", err)
		}
	}

	if enrichJSON {
		data, err := json.MarshalIndent(enriched, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal coverage: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Enriched %s: %d topics\n", enriched.ExamName, enriched.TotalTopics)
	cmd.Printf("Confidence: %d high, %d medium, %d low\n",
		enriched.HighConfidenceCount, enriched.MediumConfidenceCount, enriched.LowConfidenceCount)
	if planStore != nil {
		cmd.Printf("Saved coverage for exam %s\n", enriched.ExamID)
	}
	return nil
}

func loadCoverageFile(path string) (*domain.ExamCoverage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("coverage file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read coverage file: %w", err)
	}

	var coverage domain.ExamCoverage
	if err := json.Unmarshal(data, &coverage); err != nil {
		return nil, fmt.Errorf("failed to parse coverage file: %w", err)
	}
	if coverage.ExamID == "" {
		return nil, errors.New("coverage file is missing exam_id")
	}
	return &coverage, nil
}
