package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var buildIndexCmd = &cobra.Command{
	Use:   "build-index",
	Short: "Build the vector index over the chunk library",
	Long: `Embeds every textbook chunk and builds the searchable vector index.
Embeddings are cached by content digest, so rebuilding after small
changes only recomputes what actually changed.`,
	Args: cobra.NoArgs,
	RunE: runBuildIndex,
}

func init() {
	rootCmd.AddCommand(buildIndexCmd)
}

func runBuildIndex(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	ctx := context.Background()
	report, err := indexService.BuildIndex(ctx)
	if err != nil {
		return fmt.Errorf("index build failed: %w", err)
	}

	cmd.Printf("Indexed %d chunks (%d dimensions)\n", report.Vectors, report.Dimensions)
	cmd.Printf("Embeddings: %d cached, %d computed\n", report.Stats.Cached, report.Stats.Computed)
	return nil
}
