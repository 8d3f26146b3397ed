package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/examplan-cli/internal/core/domain"
)

var (
	analyzeExams   []string
	analyzeStart   string
	analyzeEnd     string
	analyzeMinutes int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Check whether the workload fits the study window",
	Long: `Compares the enriched exam workload with the available study time.

Reports how many topics need covering, how many weekday study hours the
window offers, and whether the schedule is comfortable, realistic,
tight, or impossible, with a recommended planning strategy.`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringArrayVar(&analyzeExams, "exam", nil, "exam id to include (repeatable, default all)")
	analyzeCmd.Flags().StringVar(&analyzeStart, "start", "", "start date YYYY-MM-DD (default today)")
	analyzeCmd.Flags().StringVar(&analyzeEnd, "end", "", "end date YYYY-MM-DD (default start+20 days)")
	analyzeCmd.Flags().IntVar(&analyzeMinutes, "minutes", domain.DefaultMinutesPerDay, "study minutes per day")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	if plannerService == nil {
		return errors.New("planner service not configured")
	}

	ctx := context.Background()
	coverages, err := loadStoredCoverages(ctx, analyzeExams)
	if err != nil {
		return err
	}

	start, end, err := resolveWindow(analyzeStart, analyzeEnd)
	if err != nil {
		return err
	}

	analysis, err := plannerService.AnalyzeLoad(coverages, start, end, analyzeMinutes)
	if err != nil {
		return fmt.Errorf("load analysis failed: %w", err)
	}

	cmd.Printf("Study window: %s to %s (%d weekdays)\n",
		start.Format("2006-01-02"), end.Format("2006-01-02"), analysis.DaysAvailable)
	cmd.Printf("Topics: %d across %d exam(s)\n", analysis.TotalTopics, len(analysis.Exams))
	cmd.Printf("Time needed: %.1fh, available: %.1fh\n",
		analysis.TotalTimeNeededHours, analysis.TimeAvailableHours)
	cmd.Printf("Feasibility: %s (%.0f%% coverage)\n", analysis.Feasibility, analysis.CoveragePercentage)
	cmd.Printf("Recommended strategy: %s\n", analysis.Recommendation)
	cmd.Println()
	for _, exam := range analysis.Exams {
		line := fmt.Sprintf("  %s: %d topics", exam.ExamName, exam.Topics)
		if exam.ExamDate != "" {
			line += fmt.Sprintf(" (exam %s)", exam.ExamDate)
		}
		cmd.Println(line)
	}
	return nil
}

// loadStoredCoverages fetches enriched coverages from the plan store,
// either the named exams or everything stored.
func loadStoredCoverages(ctx context.Context, examIDs []string) ([]domain.EnrichedCoverage, error) {
	if planStore == nil {
		return nil, errors.New("plan store not configured")
	}

	if len(examIDs) > 0 {
		coverages := make([]domain.EnrichedCoverage, 0, len(examIDs))
		for _, id := range examIDs {
			coverage, err := planStore.GetCoverage(ctx, id)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return nil, fmt.Errorf("no enriched coverage for exam %q; run enrich first", id)
				}
				return nil, fmt.Errorf("failed to load coverage %q: %w", id, err)
			}
			coverages = append(coverages, *coverage)
		}
		return coverages, nil
	}

	coverages, err := planStore.ListCoverages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list coverages: %w", err)
	}
	if len(coverages) == 0 {
		return nil, errors.New("no enriched coverages stored; run enrich first")
	}
	return coverages, nil
}

// resolveWindow applies the date defaults: start today, end twenty days
// after start.
func resolveWindow(startFlag, endFlag string) (time.Time, time.Time, error) {
	start := time.Now().Truncate(24 * time.Hour)
	if startFlag != "" {
		parsed, err := parseDate(startFlag)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start = parsed
	}

	end := start.AddDate(0, 0, 20)
	if endFlag != "" {
		parsed, err := parseDate(endFlag)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = parsed
	}
	return start, end, nil
}
