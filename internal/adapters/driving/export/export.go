// Package export renders study plans into shareable formats. Exports
// are derived views of an immutable plan and never modify it.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/custodia-labs/examplan-cli/internal/core/domain"
)

// Format identifies a supported export format.
type Format string

// Supported formats.
const (
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
)

// ParseFormat resolves a user-supplied format name. The short form "md"
// is accepted for markdown.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown export format %q: %w", name, domain.ErrInvalidInput)
	}
}

// Extension returns the conventional file extension for the format.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return ".md"
	case FormatCSV:
		return ".csv"
	case FormatJSON:
		return ".json"
	default:
		return ""
	}
}

// Write renders the plan to w in the given format.
func Write(w io.Writer, plan *domain.StudyPlan, format Format) error {
	switch format {
	case FormatMarkdown:
		return WriteMarkdown(w, plan)
	case FormatCSV:
		return WriteCSV(w, plan)
	case FormatJSON:
		return WriteJSON(w, plan)
	default:
		return fmt.Errorf("unknown export format %q: %w", format, domain.ErrInvalidInput)
	}
}

var priorityOrder = []domain.Priority{
	domain.PriorityCritical,
	domain.PriorityHigh,
	domain.PriorityMedium,
	domain.PriorityLow,
	domain.PriorityOptional,
}

var priorityLabels = map[domain.Priority]string{
	domain.PriorityCritical: "CRITICAL - Must Study",
	domain.PriorityHigh:     "HIGH PRIORITY",
	domain.PriorityMedium:   "MEDIUM PRIORITY",
	domain.PriorityLow:      "LOW PRIORITY - Optional",
	domain.PriorityOptional: "OPTIONAL - If Time Permits",
}

// WriteMarkdown renders the plan as a readable Markdown document with
// an overview table, per-exam statistics, and the daily schedule.
func WriteMarkdown(w io.Writer, plan *domain.StudyPlan) error {
	var b strings.Builder

	names := make([]string, 0, len(plan.Exams))
	for _, exam := range plan.Exams {
		names = append(names, exam.ExamName)
	}
	fmt.Fprintf(&b, "# Study Plan: %s\n\n", strings.Join(names, ", "))

	b.WriteString("## Plan Overview\n\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("|--------|-------|\n")
	fmt.Fprintf(&b, "| Plan ID | `%s` |\n", plan.PlanID)
	fmt.Fprintf(&b, "| Created | %s |\n", plan.CreatedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "| Date Range | %s to %s |\n", plan.StartDate, plan.EndDate)
	fmt.Fprintf(&b, "| Total Days | %d |\n", plan.TotalDays)
	fmt.Fprintf(&b, "| Total Hours | %.1fh |\n", plan.TotalStudyHours)
	fmt.Fprintf(&b, "| Total Topics | %d |\n", plan.TotalTopics)
	fmt.Fprintf(&b, "| Strategy | %s |\n", plan.Strategy)
	fmt.Fprintf(&b, "| Minutes/Day | %d |\n\n", plan.MinutesPerDay)

	b.WriteString("## Exam Breakdown\n\n")
	stats := plan.ExamStats()
	for _, exam := range plan.Exams {
		s := stats[exam.ExamID]
		fmt.Fprintf(&b, "### %s\n", s.ExamName)
		fmt.Fprintf(&b, "- Topics: %d\n", s.Topics)
		fmt.Fprintf(&b, "- Time: %.1fh (%d minutes)\n", float64(s.TotalMinutes)/60.0, s.TotalMinutes)
		fmt.Fprintf(&b, "- Avg Confidence: %.2f\n\n", s.AvgConfidence)
	}

	writePriorityBreakdown(&b, plan)

	b.WriteString("---\n\n")
	b.WriteString("## Daily Schedule\n\n")
	for _, day := range plan.Days {
		writeMarkdownDay(&b, day)
	}

	if len(plan.Warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, warning := range plan.Warnings {
			fmt.Fprintf(&b, "- %s\n", warning)
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// writePriorityBreakdown emits topic counts per priority level. The
// section is skipped when every block sits at the medium default, which
// happens for heuristic-free plans with nothing to distinguish.
func writePriorityBreakdown(b *strings.Builder, plan *domain.StudyPlan) {
	counts := make(map[domain.Priority]int)
	varied := false
	for _, day := range plan.Days {
		for _, block := range day.Blocks {
			counts[block.Priority]++
			if block.Priority != domain.PriorityMedium {
				varied = true
			}
		}
	}
	if !varied {
		return
	}

	b.WriteString("## Priority Breakdown\n\n")
	for _, priority := range priorityOrder {
		if counts[priority] == 0 {
			continue
		}
		label := strings.ToUpper(string(priority)[:1]) + string(priority)[1:]
		fmt.Fprintf(b, "- **%s:** %d topics\n", label, counts[priority])
	}
	b.WriteString("\n")
}

func writeMarkdownDay(b *strings.Builder, day domain.StudyDay) {
	fmt.Fprintf(b, "### %s, %s\n", day.DayName, day.Date)
	fmt.Fprintf(b, "**Total:** %d minutes, %d topics\n", day.TotalMinutes, len(day.Blocks))

	groups := make(map[domain.Priority][]domain.StudyBlock)
	for _, block := range day.Blocks {
		groups[block.Priority] = append(groups[block.Priority], block)
	}

	// Priority headers only help when the day actually mixes levels or
	// departs from the medium default.
	showHeaders := len(groups) > 1 || groups[domain.PriorityMedium] == nil

	counter := 1
	for _, priority := range priorityOrder {
		blocks := groups[priority]
		if len(blocks) == 0 {
			continue
		}
		if showHeaders {
			fmt.Fprintf(b, "\n**%s**\n", priorityLabels[priority])
		}
		for _, block := range blocks {
			writeMarkdownBlock(b, counter, block)
			counter++
		}
	}
	b.WriteString("\n---\n\n")
}

func writeMarkdownBlock(b *strings.Builder, n int, block domain.StudyBlock) {
	label := block.Course
	if label == "" {
		label = block.ExamName
	}
	fmt.Fprintf(b, "\n#### %d. %s - %s\n", n, label, block.Topic)
	fmt.Fprintf(b, "**Objective:** %s\n\n", block.Objective)

	if block.ReadingPages != "" {
		fmt.Fprintf(b, "**Reading:** %s\n\n", block.ReadingPages)
	}
	if len(block.PracticeProblems) > 0 {
		b.WriteString("**Practice:**\n")
		for _, problem := range block.PracticeProblems {
			fmt.Fprintf(b, "  - %s\n", formatProblem(problem))
		}
		b.WriteString("\n")
	}
	if len(block.KeyTerms) > 0 {
		fmt.Fprintf(b, "**Key Terms:** %s\n\n", strings.Join(block.KeyTerms, ", "))
	}
	if block.StudyQuestion != "" {
		fmt.Fprintf(b, "**Question:** %s\n\n", block.StudyQuestion)
	}
	if block.PriorityReason != "" {
		fmt.Fprintf(b, "**Why this priority:** %s\n\n", block.PriorityReason)
	}
	fmt.Fprintf(b, "**Time:** %d minutes | **Evidence:** %.2f\n", block.TimeEstimateMinutes, block.ConfidenceScore)
	if block.Notes != "" {
		fmt.Fprintf(b, "\n**Note:** %s\n", block.Notes)
	}
}

var csvHeader = []string{
	"Date",
	"Day",
	"Exam/Course",
	"Chapter",
	"Topic",
	"Learning Objective",
	"Priority",
	"Reading Pages",
	"Practice Problems",
	"Key Terms",
	"Study Question",
	"Time (min)",
	"Evidence Score",
}

// WriteCSV renders the plan as one row per scheduled block.
func WriteCSV(w io.Writer, plan *domain.StudyPlan) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, day := range plan.Days {
		for _, block := range day.Blocks {
			label := block.Course
			if label == "" {
				label = block.ExamName
			}

			problems := make([]string, 0, len(block.PracticeProblems))
			for _, problem := range block.PracticeProblems {
				problems = append(problems, formatProblem(problem))
			}

			row := []string{
				day.Date,
				day.DayName,
				label,
				fmt.Sprintf("Ch %d: %s", block.Chapter, block.ChapterTitle),
				block.Topic,
				block.Objective,
				strings.ToUpper(string(block.Priority)),
				block.ReadingPages,
				strings.Join(problems, "; "),
				strings.Join(block.KeyTerms, ", "),
				block.StudyQuestion,
				strconv.Itoa(block.TimeEstimateMinutes),
				fmt.Sprintf("%.2f", block.ConfidenceScore),
			}
			if err := writer.Write(row); err != nil {
				return fmt.Errorf("write csv row: %w", err)
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteJSON renders the plan as pretty-printed JSON.
func WriteJSON(w io.Writer, plan *domain.StudyPlan) error {
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

func formatProblem(p domain.PracticeProblemRef) string {
	return fmt.Sprintf("%s (p. %d)", p.Text, p.Page)
}
