package coaching

import (
	"context"
	"fmt"
	"strings"

	"github.com/abhisek/mockprep/internal/interview"
	"github.com/abhisek/mockprep/internal/llm"
)

// ReportNarrator implements interview.ReportNarrator.
type ReportNarrator struct {
	provider llm.Provider
	cfg      ReportConfig
}

var _ interview.ReportNarrator = (*ReportNarrator)(nil)

// NewReportNarrator creates a report narrator.
func NewReportNarrator(provider llm.Provider, cfg ReportConfig) *ReportNarrator {
	return &ReportNarrator{provider: provider, cfg: cfg}
}

type reportOutput struct {
	Summary         string   `json:"summary"`
	Strengths       []string `json:"strengths"`
	WeakAreas       []string `json:"weak_areas"`
	Recommendations []string `json:"recommendations"`
}

// Narrate writes the prose part of a final report.
func (n *ReportNarrator) Narrate(ctx context.Context, in interview.NarrationInput) (interview.Narrative, error) {
	ctx = llm.WithPurpose(ctx, PurposeReport)

	resp, err := n.provider.Generate(ctx, llm.Request{
		System: reportSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildReportUserMessage(in)},
		},
		Schema:      ReportSchema,
		MaxTokens:   n.cfg.MaxTokens,
		Temperature: n.cfg.Temperature,
	})
	if err != nil {
		return interview.Narrative{}, fmt.Errorf("report generation: %w", err)
	}

	parsed := llm.Parse[reportOutput](ReportSchema, resp.Content)
	if !parsed.Ok() {
		return interview.Narrative{}, fmt.Errorf("parse report response: %w", parsed.Err)
	}

	out := parsed.Value
	narrative := interview.Narrative{
		Summary:         strings.TrimSpace(out.Summary),
		Strengths:       compact(out.Strengths),
		WeakAreas:       compact(out.WeakAreas),
		Recommendations: compact(out.Recommendations),
	}
	if narrative.Summary == "" {
		return interview.Narrative{}, fmt.Errorf("parse report response: summary is empty")
	}
	return narrative, nil
}
