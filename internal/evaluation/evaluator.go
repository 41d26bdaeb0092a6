// Package evaluation scores interview answers against a role's rubric.
package evaluation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/abhisek/mockprep/internal/interview"
	"github.com/abhisek/mockprep/internal/llm"
)

// Purpose is the LLM event label for evaluation calls.
const Purpose = "evaluation"

// Config holds configuration for the evaluator.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   768,
		Temperature: 0.3,
	}
}

// Evaluator implements interview.AnswerEvaluator with an LLM.
type Evaluator struct {
	provider llm.Provider
	cfg      Config
}

var _ interview.AnswerEvaluator = (*Evaluator)(nil)

// New creates an LLM-based evaluator.
func New(provider llm.Provider, cfg Config) *Evaluator {
	return &Evaluator{provider: provider, cfg: cfg}
}

type scoresOutput struct {
	Correctness *float64 `json:"correctness"`
	Clarity     *float64 `json:"clarity"`
	Depth       *float64 `json:"depth"`
	Relevance   *float64 `json:"relevance"`
}

// evaluationOutput is the raw LLM response. Pointers let a missing
// score be told apart from a zero.
type evaluationOutput struct {
	Scores         *scoresOutput `json:"scores"`
	OverallScore   *float64      `json:"overall_score"`
	Weaknesses     []string      `json:"weaknesses"`
	Notes          string        `json:"notes"`
	NeedsFollowup  bool          `json:"needs_followup"`
	FollowupReason string        `json:"followup_reason"`
}

func (o evaluationOutput) block() (interview.EvaluationBlock, error) {
	s := o.Scores
	if s == nil || s.Correctness == nil || s.Clarity == nil || s.Depth == nil || s.Relevance == nil {
		return interview.EvaluationBlock{}, fmt.Errorf("scores are missing")
	}
	if o.OverallScore == nil {
		return interview.EvaluationBlock{}, fmt.Errorf("overall_score is missing")
	}
	eval := interview.EvaluationBlock{
		Scores: interview.Scores{
			Correctness: *s.Correctness,
			Clarity:     *s.Clarity,
			Depth:       *s.Depth,
			Relevance:   *s.Relevance,
		},
		OverallScore:  *o.OverallScore,
		Weaknesses:    o.Weaknesses,
		Notes:         strings.TrimSpace(o.Notes),
		NeedsFollowup: o.NeedsFollowup,
	}
	if eval.Weaknesses == nil {
		eval.Weaknesses = []string{}
	}
	if eval.NeedsFollowup {
		eval.FollowupReason = strings.TrimSpace(o.FollowupReason)
	}
	return eval, nil
}

// Evaluate scores one answer. Output that is not a complete evaluation
// fails with KindInvalidEvaluation. Range checks against the rubric are
// left to the orchestrator.
func (e *Evaluator) Evaluate(ctx context.Context, question interview.QuestionBlock, rubric interview.Rubric, answer string) (interview.EvaluationBlock, error) {
	const op = "evaluate answer"
	ctx = llm.WithPurpose(ctx, Purpose)

	userMsg, err := buildEvaluationMessage(question, rubric, answer)
	if err != nil {
		return interview.EvaluationBlock{}, fmt.Errorf("build evaluation prompt: %w", err)
	}

	resp, err := e.provider.Generate(ctx, llm.Request{
		System: evaluationSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: userMsg},
		},
		Schema:      EvaluationSchema,
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
	})
	if err != nil {
		if llm.IsInvalidResponse(err) {
			return interview.EvaluationBlock{}, invalidEvaluation(op, err)
		}
		return interview.EvaluationBlock{}, fmt.Errorf("LLM evaluation failed: %w", err)
	}

	parsed := llm.Parse[evaluationOutput](EvaluationSchema, resp.Content)
	if !parsed.Ok() {
		return interview.EvaluationBlock{}, invalidEvaluation(op, parsed.Err)
	}
	eval, err := parsed.Value.block()
	if err != nil {
		return interview.EvaluationBlock{}, invalidEvaluation(op, err)
	}
	return eval, nil
}

func invalidEvaluation(op string, err error) error {
	return &interview.Error{
		Kind:    interview.KindInvalidEvaluation,
		Op:      op,
		Message: "the evaluator returned an incomplete evaluation",
		Err:     err,
	}
}

const evaluationSystemPrompt = `You are an extremely strict technical interview evaluator for top-tier tech companies.
Identify weak, incomplete or copied answers and give them low scores.
Penalize superficial answers heavily. If an answer lacks substance, technical accuracy or depth, score it harshly.
Return ONLY valid JSON. No explanations.`

type promptData struct {
	Question  interview.QuestionBlock
	Rubric    interview.Rubric
	RubricRaw string
	Answer    string
	Words     int
}

var evaluationUserTemplate = template.Must(template.New("evaluation").Parse(`Question:
{{.Question.Question}}

Skill Being Tested: {{.Question.Skill}}
Difficulty: {{.Question.Difficulty}}

Candidate Answer ({{.Words}} words):
{{.Answer}}

Evaluation Rubric (max scores):
{{.RubricRaw}}

Immediate disqualifiers (score 0-1 on every criterion):
- The answer repeats or paraphrases the question.
- The answer is generic filler, obviously copied, or off-topic.
- The answer shows no technical understanding.

Score each criterion from 0 up to its rubric maximum:
- correctness (0-{{.Rubric.Correctness}}): technical accuracy.
- clarity (0-{{.Rubric.Clarity}}): structure and coherence.
- depth (0-{{.Rubric.Depth}}): examples, detail and coverage.
- relevance (0-{{.Rubric.Relevance}}): how directly it addresses the question.

Word count caps on overall_score:
- under 10 words: at most 1
- 10-20 words: at most 3
- 20-30 words: at most 5
- 30-50 words: at most 7
- 50+ words: full range

Expected distribution for overall_score (0-10): 0-2 no effort or wrong, 3-4 poor,
5-7 average (most common), 8-9 strong, 10 exceptional and rare.

Set needs_followup to true for any answer scoring below 6 and give a short
followup_reason such as "too short", "lacks depth", "unclear" or "wrong direction".
Leave followup_reason empty when no follow-up is needed.`))

func buildEvaluationMessage(q interview.QuestionBlock, r interview.Rubric, answer string) (string, error) {
	raw, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	err = evaluationUserTemplate.Execute(&buf, promptData{
		Question:  q,
		Rubric:    r,
		RubricRaw: string(raw),
		Answer:    answer,
		Words:     interview.CountWords(answer),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
