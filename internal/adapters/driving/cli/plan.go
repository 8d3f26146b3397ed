package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/examplan-cli/internal/core/domain"
)

var (
	planExams       []string
	planStart       string
	planEnd         string
	planMinutes     int
	planStrategy    string
	planNoQuestions bool
	planPrioritize  bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Generate a day-by-day study plan",
	Long: `Generates a study schedule from the stored enriched coverages.

Topics are prioritized, ordered under the chosen strategy, and packed
into weekday study blocks within the daily time budget. The plan is
stored and can be exported with the export command.`,
	Args: cobra.NoArgs,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringArrayVar(&planExams, "exam", nil, "exam id to include (repeatable, default all)")
	planCmd.Flags().StringVar(&planStart, "start", "", "start date YYYY-MM-DD (default today)")
	planCmd.Flags().StringVar(&planEnd, "end", "", "end date YYYY-MM-DD (default start+20 days)")
	planCmd.Flags().IntVar(&planMinutes, "minutes", domain.DefaultMinutesPerDay, "study minutes per day")
	planCmd.Flags().StringVar(&planStrategy, "strategy", string(domain.StrategyBalanced),
		"scheduling strategy: round_robin, priority_first, or balanced")
	planCmd.Flags().BoolVar(&planNoQuestions, "no-questions", false, "skip study question generation")
	planCmd.Flags().BoolVar(&planPrioritize, "prioritize", false, "use the LLM prioritizer instead of the chapter heuristic")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, _ []string) error {
	if plannerService == nil {
		return errors.New("planner service not configured")
	}

	ctx := context.Background()
	coverages, err := loadStoredCoverages(ctx, planExams)
	if err != nil {
		return err
	}

	start, end, err := resolveWindow(planStart, planEnd)
	if err != nil {
		return err
	}

	opts := domain.PlanOptions{
		StartDate:             start,
		EndDate:               end,
		MinutesPerDay:         planMinutes,
		Strategy:              domain.Strategy(planStrategy),
		GenerateQuestions:     !planNoQuestions,
		UseExternalPriorities: planPrioritize,
	}

	if planPrioritize {
		// The load analysis recommendation steers the prioritizer.
		analysis, err := plannerService.AnalyzeLoad(coverages, start, end, planMinutes)
		if err != nil {
			return fmt.Errorf("load analysis failed: %w", err)
		}
		opts.PriorityStrategy = analysis.Recommendation
	}

	plan, err := plannerService.GeneratePlan(ctx, coverages, opts)
	if err != nil {
		return fmt.Errorf("plan generation failed: %w", err)
	}

	if planStore != nil {
		if err := planStore.SavePlan(ctx, plan); err != nil {
			return fmt.Errorf("failed to save plan: %w", err)
		}
	}

	cmd.Printf("Plan %s: %d topics over %d days (%.1fh total)\n",
		plan.PlanID, plan.TotalTopics, plan.TotalDays, plan.TotalStudyHours)
	cmd.Printf("Strategy: %s, priorities: %s\n", plan.Strategy, plan.PrioritySource)
	for _, warning := range plan.Warnings {
		cmd.Printf("Warning: %s\n", warning)
	}
	if planStore != nil {
		cmd.Printf("Export with: examplan export %s\n", plan.PlanID)
	}
	return nil
}
