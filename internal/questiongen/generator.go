// Package questiongen writes interview questions and role blocks with an
// LLM provider.
package questiongen

import (
	"context"
	"fmt"
	"strings"

	"github.com/abhisek/mockprep/internal/interview"
	"github.com/abhisek/mockprep/internal/llm"
)

// Purpose labels used in the LLM event log.
const (
	PurposeQuestion = "question"
	PurposeRole     = "role"
)

// LLMGenerator implements interview.QuestionGenerator using an LLM provider.
type LLMGenerator struct {
	provider llm.Provider
	config   Config
}

var _ interview.QuestionGenerator = (*LLMGenerator)(nil)

// New creates a question generator.
func New(provider llm.Provider, cfg Config) *LLMGenerator {
	return &LLMGenerator{provider: provider, config: cfg}
}

// Generate writes the next question for the requested category.
func (g *LLMGenerator) Generate(ctx context.Context, req interview.QuestionRequest) (interview.QuestionBlock, error) {
	const op = "generate question"
	ctx = llm.WithPurpose(ctx, PurposeQuestion)

	schema := questionSchema(req.Category)
	resp, err := g.provider.Generate(ctx, llm.Request{
		System: questionSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildQuestionMessage(req)},
		},
		Schema:      schema,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	})
	if err != nil {
		if llm.IsInvalidResponse(err) {
			return interview.QuestionBlock{}, invalidQuestion(op, err)
		}
		return interview.QuestionBlock{}, fmt.Errorf("LLM generation failed: %w", err)
	}

	parsed := llm.Parse[interview.QuestionBlock](schema, resp.Content)
	if !parsed.Ok() {
		return interview.QuestionBlock{}, invalidQuestion(op, parsed.Err)
	}

	q, err := checkQuestion(parsed.Value, req.Category)
	if err != nil {
		return interview.QuestionBlock{}, invalidQuestion(op, err)
	}
	return q, nil
}

// checkQuestion trims q and rejects it when it is blank or was written for
// a category other than want.
func checkQuestion(q interview.QuestionBlock, want interview.Category) (interview.QuestionBlock, error) {
	q.Intro = strings.TrimSpace(q.Intro)
	q.Question = strings.TrimSpace(q.Question)
	q.Skill = strings.TrimSpace(q.Skill)
	if q.Question == "" || q.Skill == "" {
		return q, fmt.Errorf("question or skill is empty")
	}
	if q.Category != want {
		return q, fmt.Errorf("question is %q, want %q", q.Category, want)
	}
	return q, nil
}

func invalidQuestion(op string, err error) error {
	return &interview.Error{
		Kind:    interview.KindQuestionGeneration,
		Op:      op,
		Message: "the model returned an unusable question",
		Err:     err,
	}
}
