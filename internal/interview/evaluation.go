package interview

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
)

// MinAnswerWords is the shortest answer sent to the evaluator.
const MinAnswerWords = 5

// SubmitInput is a candidate's answer to the pending question.
type SubmitInput struct {
	Answer   string
	AudioURL string
	// QuestionStartedAt is when the candidate saw the question. Zero means
	// unknown and is treated as the submission instant.
	QuestionStartedAt time.Time
}

// CountWords counts whitespace-delimited tokens.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// AutoFailEvaluation is the synthetic evaluation for empty or trivially
// short answers.
func AutoFailEvaluation(wordCount int) EvaluationBlock {
	return EvaluationBlock{
		Weaknesses: []string{
			"No meaningful answer provided",
			"Response is too short to evaluate",
		},
		Notes:          fmt.Sprintf("Answer contains only %d word(s). Minimum effort required.", wordCount),
		NeedsFollowup:  true,
		FollowupReason: "no answer provided",
	}
}

// IsAutoFail reports whether an answer skips the evaluator.
func IsAutoFail(answer string) bool {
	trimmed := strings.TrimSpace(answer)
	return trimmed == "" || CountWords(trimmed) < MinAnswerWords
}

// ValidateEvaluation checks every score against its bound.
func ValidateEvaluation(e EvaluationBlock, r Rubric) error {
	fields := map[string]string{}
	check := func(name string, v float64, max int) {
		if math.IsNaN(v) || v < 0 || v > float64(max) {
			fields[name] = fmt.Sprintf("%v is outside [0, %d]", v, max)
		}
	}
	check("scores.correctness", e.Scores.Correctness, r.Correctness)
	check("scores.clarity", e.Scores.Clarity, r.Clarity)
	check("scores.depth", e.Scores.Depth, r.Depth)
	check("scores.relevance", e.Scores.Relevance, r.Relevance)
	check("overall_score", e.OverallScore, 10)
	if len(fields) == 0 {
		return nil
	}
	return &Error{
		Kind:    KindInvalidEvaluation,
		Op:      "evaluate answer",
		Message: "the evaluator returned scores outside the rubric",
		Fields:  fields,
	}
}

// TimeSpent returns whole seconds between start and end, never negative.
// A zero start counts as end.
func TimeSpent(start, end time.Time) int64 {
	if start.IsZero() {
		return 0
	}
	d := int64(end.Sub(start) / time.Second)
	if d < 0 {
		return 0
	}
	return d
}

// EvaluateAnswer scores the answer to the session's pending question and
// builds the QA entry for it. The session is not modified; ApplyTurn
// commits the result.
func EvaluateAnswer(ctx context.Context, s *Session, evaluator AnswerEvaluator, in SubmitInput, now time.Time) (EvaluationBlock, QAEntry, error) {
	const op = "submit answer"

	if s.Status != StatusInProgress {
		return EvaluationBlock{}, QAEntry{}, errorf(KindInvalidTransition, op, "interview is %s", s.Status)
	}
	pending, ok := s.PendingQuestion()
	if !ok {
		return EvaluationBlock{}, QAEntry{}, errorf(KindNoActiveQuestion, op, "there is no question awaiting an answer")
	}

	answer := strings.TrimSpace(in.Answer)

	var eval EvaluationBlock
	if IsAutoFail(answer) {
		eval = AutoFailEvaluation(CountWords(answer))
	} else {
		var err error
		eval, err = evaluator.Evaluate(ctx, pending.Block, s.Role.Rubric, answer)
		if err != nil {
			return EvaluationBlock{}, QAEntry{}, asExternal(op, KindExternalService, "answer evaluation failed", err)
		}
		if err := ValidateEvaluation(eval, s.Role.Rubric); err != nil {
			return EvaluationBlock{}, QAEntry{}, err
		}
	}

	started := in.QuestionStartedAt
	if started.IsZero() {
		started = now
	}

	entry := QAEntry{
		QuestionNumber:    s.CurrentQuestionNumber + 1,
		Question:          pending.Block,
		AnswerText:        answer,
		AnswerAudioURL:    in.AudioURL,
		Evaluation:        eval,
		QuestionStartedAt: started,
		AnswerSubmittedAt: now,
		TimeSpentSeconds:  TimeSpent(started, now),
	}
	return eval, entry, nil
}

// ApplyTurn commits an evaluated turn: the entry is appended, the
// question counter advances, the pending question is cleared and the
// memory absorbs the evaluation. Auto-failed turns update memory too.
func ApplyTurn(s *Session, entry QAEntry) {
	s.History = append(s.History, entry)
	s.CurrentQuestionNumber = entry.QuestionNumber
	s.Pending = NoPendingQuestion{}
	s.Memory = UpdateMemory(s.Memory, entry.Evaluation, entry.Question, entry.AnswerText)
}

// asExternal wraps a collaborator failure. Orchestrator errors pass
// through unchanged; anything else becomes kind.
func asExternal(op string, kind Kind, message string, err error) error {
	if KindOf(err) != "" {
		return err
	}
	return newError(kind, op, message, err)
}
