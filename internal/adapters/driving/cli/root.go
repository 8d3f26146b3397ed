// Package cli implements the examplan command line interface.
package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/examplan-cli/internal/core/ports/driven"
	"github.com/custodia-labs/examplan-cli/internal/core/ports/driving"
	"github.com/custodia-labs/examplan-cli/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

// SetVersion sets the version string reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Services bundles the core services the commands depend on. Nil
// entries are tolerated; commands report a configuration error when
// their service is missing.
type Services struct {
	Index   driving.IndexService
	Enrich  driving.EnrichmentService
	Planner driving.PlannerService
	Plans   driven.PlanStore
}

var (
	indexService   driving.IndexService
	enrichService  driving.EnrichmentService
	plannerService driving.PlannerService
	planStore      driven.PlanStore
)

// SetServices wires the core services into the commands.
func SetServices(s *Services) {
	if s == nil {
		return
	}
	indexService = s.Index
	enrichService = s.Enrich
	plannerService = s.Planner
	planStore = s.Plans
}

// Defaults carries configuration-derived flag defaults. Explicit flags
// still win; parsing overwrites these values during execution.
type Defaults struct {
	TopK              int
	MinScore          float64
	UseChapterFilter  bool
	FallbackThreshold int
	Parallelism       int
	MinutesPerDay     int
	Strategy          string
}

// SetDefaults applies configuration values as the command flag
// defaults, so the config file tunes any run that does not pass the
// corresponding flag.
func SetDefaults(d Defaults) {
	if d.TopK > 0 {
		enrichTopK = d.TopK
		setFlagDefault(enrichCmd, "top-k", strconv.Itoa(d.TopK))
	}
	if d.MinScore > 0 {
		enrichMinScore = d.MinScore
		setFlagDefault(enrichCmd, "min-score", strconv.FormatFloat(d.MinScore, 'g', -1, 64))
	}
	enrichNoChapterFilter = !d.UseChapterFilter
	setFlagDefault(enrichCmd, "no-chapter-filter", strconv.FormatBool(!d.UseChapterFilter))
	if d.FallbackThreshold > 0 {
		enrichFallback = d.FallbackThreshold
	}
	if d.Parallelism > 0 {
		enrichParallelism = d.Parallelism
		setFlagDefault(enrichCmd, "parallelism", strconv.Itoa(d.Parallelism))
	}
	if d.MinutesPerDay > 0 {
		planMinutes = d.MinutesPerDay
		setFlagDefault(planCmd, "minutes", strconv.Itoa(d.MinutesPerDay))
		analyzeMinutes = d.MinutesPerDay
		setFlagDefault(analyzeCmd, "minutes", strconv.Itoa(d.MinutesPerDay))
	}
	if d.Strategy != "" {
		planStrategy = d.Strategy
		setFlagDefault(planCmd, "strategy", d.Strategy)
	}
}

// setFlagDefault updates the default shown in help text.
func setFlagDefault(cmd *cobra.Command, name, value string) {
	if flag := cmd.Flags().Lookup(name); flag != nil {
		flag.DefValue = value
	}
}

var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:   "examplan",
	Short: "Plan exam studying grounded in your textbook",
	Long: `Examplan builds a study schedule from what your exams actually cover.

It indexes your textbook chunks with embeddings, grounds each exam
objective in textbook evidence (reading pages, practice problems, key
terms), and packs the resulting topics into a day-by-day study plan.`,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// parseDate parses a YYYY-MM-DD flag value.
func parseDate(value string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return t, nil
}
