package services

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/examplan-cli/internal/core/domain"
	"github.com/custodia-labs/examplan-cli/internal/core/ports/driven"
	"github.com/custodia-labs/examplan-cli/internal/core/ports/driving"
	"github.com/custodia-labs/examplan-cli/internal/logger"
)

// baselineTopicMinutes is the flat per-topic estimate used by load
// analysis before any priority refinement.
const baselineTopicMinutes = 45

// coursePattern extracts a course code such as "HLTH 204" from an exam
// name.
var coursePattern = regexp.MustCompile(`[A-Z]{3,5}\s+\d{3}`)

// Ensure Planner implements the interface.
var _ driving.PlannerService = (*Planner)(nil)

// Planner turns enriched coverages into a feasibility analysis and a
// day-by-day multi-exam study plan.
type Planner struct {
	prioritizer driven.Prioritizer     // optional
	questions   driven.QuestionService // optional
	progress    domain.ProgressFunc
}

// NewPlanner creates a planner. Both collaborators are optional: without
// a prioritizer only the heuristic policy is available, and without a
// question service scheduled topics carry no study question.
func NewPlanner(prioritizer driven.Prioritizer, questions driven.QuestionService) *Planner {
	return &Planner{
		prioritizer: prioritizer,
		questions:   questions,
		progress:    domain.NopProgress,
	}
}

// SetProgress sets the progress callback.
func (s *Planner) SetProgress(fn domain.ProgressFunc) {
	if fn != nil {
		s.progress = fn
	}
}

// AnalyzeLoad reports whether the enriched workload fits the window.
// Weekday counting is the 5/7 approximation of the inclusive day count.
func (s *Planner) AnalyzeLoad(coverages []domain.EnrichedCoverage, start, end time.Time, minutesPerDay int) (*domain.LoadAnalysis, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: start date is after end date", domain.ErrInvalidInput)
	}
	if minutesPerDay <= 0 {
		return nil, fmt.Errorf("%w: minutes per day must be positive", domain.ErrInvalidInput)
	}

	totalTopics := 0
	exams := make([]domain.ExamLoad, 0, len(coverages))
	for _, c := range coverages {
		totalTopics += len(c.Topics)
		exams = append(exams, domain.ExamLoad{
			ExamName: c.ExamName,
			Topics:   len(c.Topics),
			ExamDate: c.ExamDate,
		})
	}

	neededHours := float64(totalTopics*baselineTopicMinutes) / 60.0

	daysAvailable := int(end.Sub(start).Hours()/24) + 1
	weekdays := daysAvailable * 5 / 7
	availableHours := float64(weekdays*minutesPerDay) / 60.0

	ratio := 1.0
	if neededHours > 0 {
		ratio = availableHours / neededHours
	}

	var feasibility domain.Feasibility
	var recommendation domain.Recommendation
	switch {
	case ratio >= 1.5:
		feasibility, recommendation = domain.FeasibilityComfortable, domain.RecommendComprehensive
	case ratio >= 0.9:
		feasibility, recommendation = domain.FeasibilityRealistic, domain.RecommendBalanced
	case ratio >= 0.5:
		feasibility, recommendation = domain.FeasibilityTight, domain.RecommendPrioritized
	default:
		feasibility, recommendation = domain.FeasibilityImpossible, domain.RecommendCramming
	}

	coverage := ratio * 100
	if coverage > 100 {
		coverage = 100
	}

	return &domain.LoadAnalysis{
		TotalTopics:          totalTopics,
		TotalTimeNeededHours: neededHours,
		TimeAvailableHours:   availableHours,
		DaysAvailable:        weekdays,
		Feasibility:          feasibility,
		Recommendation:       recommendation,
		CoveragePercentage:   coverage,
		Exams:                exams,
	}, nil
}

// GeneratePlan assigns priorities, orders topics under the chosen
// strategy, and packs them into weekday study days.
func (s *Planner) GeneratePlan(ctx context.Context, coverages []domain.EnrichedCoverage, opts domain.PlanOptions) (*domain.StudyPlan, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(coverages) == 0 {
		return nil, fmt.Errorf("%w: no enriched coverages supplied", domain.ErrInputMissing)
	}

	logger.Section("Plan Generation")
	logger.Debug("Strategy: %s, window: %s to %s, %d min/day",
		opts.Strategy, opts.StartDate.Format("2006-01-02"), opts.EndDate.Format("2006-01-02"), opts.MinutesPerDay)

	exams := examInfos(coverages)

	var policy PriorityPolicy = HeuristicPolicy{}
	if opts.UseExternalPriorities {
		policy = ExternalPolicy{Prioritizer: s.prioritizer, Strategy: opts.PriorityStrategy}
	}
	assignment := policy.Assign(ctx, coverages)

	items := buildWorkItems(coverages, exams, assignment)
	s.progress(domain.ProgressEvent{Stage: "schedule", Message: fmt.Sprintf("ordering %d topics", len(items))})

	ordered := orderItems(items, exams, opts.Strategy)

	plan := &domain.StudyPlan{
		PlanID:         uuid.NewString(),
		CreatedAt:      time.Now(),
		Exams:          exams,
		Strategy:       opts.Strategy,
		StartDate:      opts.StartDate.Format("2006-01-02"),
		EndDate:        opts.EndDate.Format("2006-01-02"),
		MinutesPerDay:  opts.MinutesPerDay,
		PrioritySource: assignment.Source,
	}
	if assignment.FallbackReason != "" {
		plan.Warnings = append(plan.Warnings,
			fmt.Sprintf("external prioritization failed, heuristic fallback used: %s", assignment.FallbackReason))
	}

	s.packDays(plan, ordered, opts)

	if opts.GenerateQuestions {
		if err := s.generateQuestions(ctx, plan, coverages); err != nil {
			return nil, err
		}
	}

	plan.CalculateTotals()
	logger.Info("Plan %s: %d days, %d topics, %.1fh", plan.PlanID, plan.TotalDays, plan.TotalTopics, plan.TotalStudyHours)
	return plan, nil
}

// examInfos derives exam metadata, including the course code, in the
// declared coverage order.
func examInfos(coverages []domain.EnrichedCoverage) []domain.ExamInfo {
	exams := make([]domain.ExamInfo, len(coverages))
	for i, c := range coverages {
		exams[i] = domain.ExamInfo{
			ExamID:       c.ExamID,
			ExamName:     c.ExamName,
			ExamDate:     c.ExamDate,
			Course:       extractCourse(c.ExamName),
			SourceFileID: c.SourceFileID,
		}
	}
	return exams
}

// extractCourse pulls a course code out of an exam name, falling back
// to the name prefix before " - ".
func extractCourse(examName string) string {
	if code := coursePattern.FindString(examName); code != "" {
		return code
	}
	if before, _, found := strings.Cut(examName, " - "); found {
		return strings.TrimSpace(before)
	}
	return examName
}

// buildWorkItems pairs every topic with its exam and priority verdict.
func buildWorkItems(coverages []domain.EnrichedCoverage, exams []domain.ExamInfo, assignment domain.PriorityAssignment) []domain.WorkItem {
	byKey := make(map[priorityKey]domain.PrioritizedTopic, len(assignment.Topics))
	for _, v := range assignment.Topics {
		byKey[priorityKey{chapter: v.Chapter, objective: v.Objective}] = v
	}

	var items []domain.WorkItem
	for i, coverage := range coverages {
		for _, topic := range coverage.Topics {
			verdict, ok := byKey[priorityKey{chapter: topic.Chapter, objective: topic.Bullet}]
			if !ok {
				verdict = domain.PrioritizedTopic{
					Priority: domain.PriorityMedium,
					Reason:   defaultPriorityReason,
					Minutes:  defaultPriorityMinutes,
				}
			}
			minutes := verdict.Minutes
			if minutes <= 0 {
				minutes = EstimateTopicMinutes(topic)
			}
			items = append(items, domain.WorkItem{
				Topic:            topic,
				Exam:             exams[i],
				ExamIndex:        i,
				Priority:         verdict.Priority,
				PriorityReason:   verdict.Reason,
				EstimatedMinutes: minutes,
			})
		}
	}
	return items
}

// orderItems applies the scheduling strategy. All sorts are stable; ties
// break by declared exam order, then chapter number.
func orderItems(items []domain.WorkItem, exams []domain.ExamInfo, strategy domain.Strategy) []domain.WorkItem {
	switch strategy {
	case domain.StrategyPriorityFirst:
		ordered := make([]domain.WorkItem, len(items))
		copy(ordered, items)
		sort.SliceStable(ordered, func(i, j int) bool {
			a, b := ordered[i], ordered[j]
			if a.Priority.Rank() != b.Priority.Rank() {
				return a.Priority.Rank() < b.Priority.Rank()
			}
			if a.ExamIndex != b.ExamIndex {
				return a.ExamIndex < b.ExamIndex
			}
			return a.Topic.Chapter < b.Topic.Chapter
		})
		return ordered

	case domain.StrategyRoundRobin:
		queues := examQueues(items, exams)
		ordered := make([]domain.WorkItem, 0, len(items))
		for remaining := len(items); remaining > 0; {
			for e := range queues {
				if len(queues[e]) == 0 {
					continue
				}
				ordered = append(ordered, queues[e][0])
				queues[e] = queues[e][1:]
				remaining--
			}
		}
		return ordered

	default: // balanced
		queues := examQueues(items, exams)
		minutes := make([]int, len(queues))
		ordered := make([]domain.WorkItem, 0, len(items))
		for remaining := len(items); remaining > 0; remaining-- {
			// Pick the exam with the least scheduled time that still
			// has topics; ties go to the earlier declared exam.
			pick := -1
			for e := range queues {
				if len(queues[e]) == 0 {
					continue
				}
				if pick == -1 || minutes[e] < minutes[pick] {
					pick = e
				}
			}
			item := queues[pick][0]
			queues[pick] = queues[pick][1:]
			minutes[pick] += item.EstimatedMinutes
			ordered = append(ordered, item)
		}
		return ordered
	}
}

// examQueues splits items into per-exam queues, each stably sorted by
// (priority rank, chapter).
func examQueues(items []domain.WorkItem, exams []domain.ExamInfo) [][]domain.WorkItem {
	queues := make([][]domain.WorkItem, len(exams))
	for _, item := range items {
		queues[item.ExamIndex] = append(queues[item.ExamIndex], item)
	}
	for e := range queues {
		queue := queues[e]
		sort.SliceStable(queue, func(i, j int) bool {
			if queue[i].Priority.Rank() != queue[j].Priority.Rank() {
				return queue[i].Priority.Rank() < queue[j].Priority.Rank()
			}
			return queue[i].Topic.Chapter < queue[j].Topic.Chapter
		})
	}
	return queues
}

// packDays walks the ordered items and fills weekday study days under
// the per-day budget. A topic larger than the budget gets its own
// overflow day. Running past the requested end date is reported as a
// plan warning, never a failure.
func (s *Planner) packDays(plan *domain.StudyPlan, ordered []domain.WorkItem, opts domain.PlanOptions) {
	current := skipWeekend(opts.StartDate)
	var day *domain.StudyDay
	overflowed := false

	for _, item := range ordered {
		if day != nil && day.TotalMinutes+item.EstimatedMinutes > opts.MinutesPerDay {
			plan.Days = append(plan.Days, *day)
			day = nil
			current = skipWeekend(current.AddDate(0, 0, 1))
		}
		if day == nil {
			if current.After(opts.EndDate) && !overflowed {
				overflowed = true
				plan.Warnings = append(plan.Warnings,
					fmt.Sprintf("schedule extends past requested end date %s", opts.EndDate.Format("2006-01-02")))
				logger.Warn("Schedule ran past end date %s", opts.EndDate.Format("2006-01-02"))
			}
			day = &domain.StudyDay{
				Date:    current.Format("2006-01-02"),
				DayName: current.Weekday().String(),
			}
		}
		day.AddBlock(makeBlock(item))
	}
	if day != nil {
		plan.Days = append(plan.Days, *day)
	}
}

// skipWeekend advances a date to the next weekday.
func skipWeekend(t time.Time) time.Time {
	for t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// makeBlock renders a work item into a study block.
func makeBlock(item domain.WorkItem) domain.StudyBlock {
	topic := item.Topic

	notes := topic.Notes
	if topic.ConfidenceScore < domain.LowConfidenceThreshold && notes == "" {
		notes = "low confidence match, verify coverage in textbook"
	}

	problems := make([]domain.PracticeProblemRef, 0, len(topic.PracticeProblems))
	for _, p := range topic.PracticeProblems {
		if len(problems) == DefaultMaxProblems {
			break
		}
		problems = append(problems, domain.PracticeProblemRef{
			Text: strings.TrimSpace(p.Snippet),
			Page: p.Page,
		})
	}

	return domain.StudyBlock{
		ExamID:              item.Exam.ExamID,
		ExamName:            item.Exam.ExamName,
		Course:              item.Exam.Course,
		Chapter:             topic.Chapter,
		ChapterTitle:        topic.ChapterTitle,
		Topic:               fmt.Sprintf("Ch %d: %s", topic.Chapter, topic.ChapterTitle),
		Objective:           topic.Bullet,
		ReadingPages:        FormatReadingPages(topic.ReadingPages),
		PracticeProblems:    problems,
		KeyTerms:            topic.KeyTerms,
		TimeEstimateMinutes: item.EstimatedMinutes,
		ConfidenceScore:     topic.ConfidenceScore,
		Priority:            item.Priority,
		PriorityReason:      item.PriorityReason,
		Notes:               notes,
	}
}

// FormatReadingPages renders reading pages as a human-readable
// reference, e.g. "Triola, pp. 21-27, p. 38".
func FormatReadingPages(reading domain.ReadingPages) string {
	if len(reading.PageRanges) == 0 {
		return ""
	}

	name := reading.Filename
	if before, _, found := strings.Cut(name, " - "); found {
		name = strings.TrimSpace(before)
	} else {
		name, _, _ = strings.Cut(name, ".")
		if len(name) > 20 {
			name = name[:20]
		}
	}

	parts := make([]string, 0, len(reading.PageRanges))
	for _, r := range reading.PageRanges {
		if r[0] == r[1] {
			parts = append(parts, fmt.Sprintf("p. %d", r[0]))
		} else {
			parts = append(parts, fmt.Sprintf("pp. %d-%d", r[0], r[1]))
		}
	}
	return fmt.Sprintf("%s, %s", name, strings.Join(parts, ", "))
}

// generateQuestions fills in study questions from each topic's stored
// evidence excerpts. Individual failures leave the question blank; only
// cancellation aborts the pass.
func (s *Planner) generateQuestions(ctx context.Context, plan *domain.StudyPlan, coverages []domain.EnrichedCoverage) error {
	if s.questions == nil {
		logger.Debug("No question service configured, skipping question pass")
		return nil
	}

	excerptsByKey := make(map[priorityKey][]string)
	titleByKey := make(map[priorityKey]string)
	for _, coverage := range coverages {
		for _, topic := range coverage.Topics {
			key := priorityKey{chapter: topic.Chapter, objective: topic.Bullet}
			excerptsByKey[key] = topic.TopChunks
			titleByKey[key] = topic.ChapterTitle
		}
	}

	total := 0
	for _, day := range plan.Days {
		total += len(day.Blocks)
	}

	done := 0
	for d := range plan.Days {
		for b := range plan.Days[d].Blocks {
			if err := ctx.Err(); err != nil {
				return err
			}
			done++
			block := &plan.Days[d].Blocks[b]

			key := priorityKey{chapter: block.Chapter, objective: block.Objective}
			excerpts := excerptsByKey[key]
			if len(excerpts) == 0 {
				continue
			}
			if len(excerpts) > 2 {
				excerpts = excerpts[:2]
			}
			trimmed := make([]string, len(excerpts))
			for i, e := range excerpts {
				trimmed[i] = truncateExcerpt(e, excerptLen)
			}

			question, err := s.questions.Generate(ctx, block.Objective, trimmed, titleByKey[key])
			if err != nil {
				logger.Warn("Question generation failed for %q: %v", block.Objective, err)
				continue
			}
			block.StudyQuestion = question
			s.progress(domain.ProgressEvent{Stage: "questions", Message: block.Objective, Current: done, Total: total})
		}
	}
	return nil
}
