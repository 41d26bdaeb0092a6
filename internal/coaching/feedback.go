// Package coaching writes post-answer feedback and final report prose.
package coaching

import (
	"context"
	"fmt"
	"strings"

	"github.com/abhisek/mockprep/internal/interview"
	"github.com/abhisek/mockprep/internal/llm"
)

// Purpose labels for the LLM event log.
const (
	PurposeFeedback = "feedback"
	PurposeReport   = "report"
)

// FeedbackService implements interview.FeedbackGenerator.
type FeedbackService struct {
	provider llm.Provider
	cfg      Config
}

var _ interview.FeedbackGenerator = (*FeedbackService)(nil)

// NewFeedbackService creates a feedback generator.
func NewFeedbackService(provider llm.Provider, cfg Config) *FeedbackService {
	return &FeedbackService{provider: provider, cfg: cfg}
}

type feedbackOutput struct {
	IdealAnswer     string   `json:"ideal_answer"`
	Mistakes        []string `json:"mistakes"`
	ImprovementTips []string `json:"improvement_tips"`
}

// Generate writes coaching for one answered question.
func (s *FeedbackService) Generate(ctx context.Context, q interview.QuestionBlock, answer string, eval interview.EvaluationBlock) (interview.FeedbackBlock, error) {
	ctx = llm.WithPurpose(ctx, PurposeFeedback)

	req := llm.Request{
		System: feedbackSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildFeedbackUserMessage(q, answer, eval)},
		},
		Schema:      FeedbackSchema,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	}

	resp, err := s.provider.Generate(ctx, req)
	if err != nil {
		return interview.FeedbackBlock{}, fmt.Errorf("feedback generation: %w", err)
	}

	parsed := llm.Parse[feedbackOutput](FeedbackSchema, resp.Content)
	if !parsed.Ok() {
		return interview.FeedbackBlock{}, fmt.Errorf("parse feedback response: %w", parsed.Err)
	}

	out := parsed.Value
	fb := interview.FeedbackBlock{
		IdealAnswer:     strings.TrimSpace(out.IdealAnswer),
		Mistakes:        compact(out.Mistakes),
		ImprovementTips: compact(out.ImprovementTips),
	}
	if fb.IdealAnswer == "" {
		return interview.FeedbackBlock{}, fmt.Errorf("parse feedback response: ideal_answer is empty")
	}
	return fb, nil
}

// compact trims items and drops blanks. It never returns nil.
func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}
