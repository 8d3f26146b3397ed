package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/examplan-cli/internal/core/domain"
)

var (
	searchTopK     int
	searchChapter  int
	searchMinScore float64
	searchJSON     bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the indexed textbook chunks",
	Long: `Runs a semantic search against the built vector index.
The query is embedded and matched against every indexed chunk; results
can be narrowed to a chapter or a minimum similarity score.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "n", 5, "maximum number of results")
	searchCmd.Flags().IntVar(&searchChapter, "chapter", 0, "filter results to one chapter")
	searchCmd.Flags().Float64Var(&searchMinScore, "min-score", 0, "minimum similarity score")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if indexService == nil {
		return errors.New("index service not configured")
	}

	filters := domain.SearchFilters{MinScore: searchMinScore}
	if searchChapter > 0 {
		filters.Chapters = []int{searchChapter}
	}

	ctx := context.Background()
	hits, err := indexService.Search(ctx, query, domain.SearchOptions{
		TopK:    searchTopK,
		Filters: filters,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, hits)
	}

	return outputSearchTable(cmd, hits)
}

func outputSearchJSON(cmd *cobra.Command, hits []domain.SearchHit) error {
	data, err := json.MarshalIndent(hits, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, hits []domain.SearchHit) error {
	if len(hits) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, hit := range hits {
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, hit.Meta.Filename, hit.Score)
		if hit.Meta.ChapterNumber > 0 {
			cmd.Printf("      Chapter %d: %s\n", hit.Meta.ChapterNumber, hit.Meta.ChapterTitle)
		}
		cmd.Printf("      Pages %d-%d\n", hit.Meta.PageStart, hit.Meta.PageEnd)
		cmd.Println()
	}

	return nil
}
