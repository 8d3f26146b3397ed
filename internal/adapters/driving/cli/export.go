package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/examplan-cli/internal/adapters/driving/export"
	"github.com/custodia-labs/examplan-cli/internal/core/domain"
)

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export [plan-id]",
	Short: "Export a study plan to Markdown, CSV, or JSON",
	Long: `Renders a stored study plan into a shareable format.

Without a plan id the most recent plan is exported. Output goes to
stdout unless --output names a file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "markdown", "output format: markdown, csv, or json")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file path (default stdout)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	if planStore == nil {
		return errors.New("plan store not configured")
	}

	format, err := export.ParseFormat(exportFormat)
	if err != nil {
		return err
	}

	ctx := context.Background()
	plan, err := resolvePlan(ctx, args)
	if err != nil {
		return err
	}

	if exportOutput == "" {
		return export.Write(cmd.OutOrStdout(), plan, format)
	}

	f, err := os.Create(exportOutput)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if err := export.Write(f, plan, format); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	cmd.Printf("Exported plan %s to %s\n", plan.PlanID, exportOutput)
	return nil
}

// resolvePlan loads the named plan, or the most recent one when no id
// is given.
func resolvePlan(ctx context.Context, args []string) (*domain.StudyPlan, error) {
	if len(args) > 0 {
		plan, err := planStore.GetPlan(ctx, args[0])
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("plan %q not found", args[0])
			}
			return nil, fmt.Errorf("failed to load plan: %w", err)
		}
		return plan, nil
	}

	plans, err := planStore.ListPlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	if len(plans) == 0 {
		return nil, errors.New("no plans stored; run plan first")
	}
	return &plans[0], nil
}
