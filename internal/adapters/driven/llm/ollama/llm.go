// Package ollama provides question generation and topic prioritization
// adapters using a local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/examplan-cli/internal/core/domain"
	"github.com/custodia-labs/examplan-cli/internal/core/ports/driven"
	"github.com/custodia-labs/examplan-cli/internal/logger"
)

// Ensure Service implements both interfaces.
var (
	_ driven.QuestionService = (*Service)(nil)
	_ driven.Prioritizer     = (*Service)(nil)
)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.2"
	DefaultTimeout = 120 * time.Second
)

// Config holds configuration for the Ollama LLM service.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the generation model to use (default: llama3.2).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// Service provides text generation over the Ollama /api/generate API.
// Like its Gemini counterpart it backs both the study-question
// post-pass and the external topic prioritizer.
type Service struct {
	client  *http.Client
	baseURL string
	model   string
}

// generateRequest is the Ollama /api/generate request format.
type generateRequest struct {
	Model   string   `json:"model"`
	Prompt  string   `json:"prompt"`
	Stream  bool     `json:"stream"`
	Options *options `json:"options,omitempty"`
}

// options holds generation parameters.
type options struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature"`
}

// generateResponse is the Ollama /api/generate response format.
type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// NewService creates a new Ollama LLM service.
func NewService(cfg Config) *Service {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Service{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
	}
}

// Generate returns one focused study question for a learning objective,
// grounded in the given evidence excerpts.
func (s *Service) Generate(ctx context.Context, objective string, excerpts []string, chapterTitle string) (string, error) {
	var sb strings.Builder
	sb.WriteString("You are helping a student prepare for an exam.\n")
	if chapterTitle != "" {
		fmt.Fprintf(&sb, "Chapter: %s\n", chapterTitle)
	}
	fmt.Fprintf(&sb, "Learning objective: %s\n\n", objective)
	if len(excerpts) > 0 {
		sb.WriteString("Textbook excerpts:\n")
		for i, excerpt := range excerpts {
			fmt.Fprintf(&sb, "[%d] %s\n", i+1, excerpt)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("Write ONE exam-style practice question that tests this objective. " +
		"Reply with only the question text, no preamble and no answer.")

	text, err := s.generate(ctx, sb.String(), 0.7, 200)
	if err != nil {
		return "", err
	}

	question := strings.TrimSpace(text)
	// Models occasionally echo a label anyway.
	question = strings.TrimPrefix(question, "Question:")
	return strings.TrimSpace(question), nil
}

// prioritizedVerdict is the JSON shape the prioritizer prompt asks for.
type prioritizedVerdict struct {
	Chapter   int    `json:"chapter"`
	Objective string `json:"objective"`
	Priority  string `json:"priority"`
	Reason    string `json:"reason"`
	Minutes   int    `json:"time_estimate_minutes"`
}

// Prioritize asks the model to rank every topic across the coverages
// and returns one verdict per topic it echoed back.
func (s *Service) Prioritize(ctx context.Context, coverages []domain.EnrichedCoverage, strategy domain.Recommendation) ([]domain.PrioritizedTopic, error) {
	var sb strings.Builder
	sb.WriteString("You are an expert study coach. Assign a study priority to every topic below.\n")
	if strategy != "" {
		fmt.Fprintf(&sb, "Planning strategy: %s\n", strategy)
	}
	sb.WriteString("\nTopics:\n")
	for _, coverage := range coverages {
		fmt.Fprintf(&sb, "Exam: %s (date: %s)\n", coverage.ExamName, coverage.ExamDate)
		for _, topic := range coverage.Topics {
			fmt.Fprintf(&sb, "- chapter %d: %s (confidence %.2f, %d practice problems)\n",
				topic.Chapter, topic.Bullet, topic.ConfidenceScore, len(topic.PracticeProblems))
		}
	}
	sb.WriteString(`
Reply with a JSON array only, one object per topic:
[{"chapter": <int>, "objective": "<exact objective text>", "priority": "critical|high|medium|low|optional", "reason": "<short reason>", "time_estimate_minutes": <int>}]
The objective field must repeat the topic text exactly as given.`)

	text, err := s.generate(ctx, sb.String(), 0.2, 0)
	if err != nil {
		return nil, err
	}

	var verdicts []prioritizedVerdict
	if err := json.Unmarshal([]byte(stripFences(text)), &verdicts); err != nil {
		return nil, fmt.Errorf("ollama: parse prioritization response: %w", err)
	}

	topics := make([]domain.PrioritizedTopic, 0, len(verdicts))
	for _, v := range verdicts {
		topics = append(topics, domain.PrioritizedTopic{
			Chapter:   v.Chapter,
			Objective: v.Objective,
			Priority:  domain.Priority(strings.ToLower(v.Priority)),
			Reason:    v.Reason,
			Minutes:   v.Minutes,
		})
	}
	logger.Debug("Prioritizer returned %d verdicts", len(topics))
	return topics, nil
}

// generate runs one non-streaming /api/generate call.
func (s *Service) generate(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error) {
	reqBody := generateRequest{
		Model:  s.model,
		Prompt: prompt,
		Stream: false,
		Options: &options{
			NumPredict:  maxTokens,
			Temperature: temperature,
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/api/generate",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("ollama: %w", domain.ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return "", fmt.Errorf("ollama error (status %d): failed to read response", resp.StatusCode)
		}
		return "", fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, string(body))
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if genResp.Error != "" {
		return "", fmt.Errorf("ollama error: %s", genResp.Error)
	}
	return genResp.Response, nil
}

// stripFences removes a surrounding markdown code fence, which models
// add around JSON despite instructions.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// ModelName returns the name of the model being used.
func (s *Service) ModelName() string {
	return s.model
}

// Close releases resources.
func (s *Service) Close() error {
	return nil
}
