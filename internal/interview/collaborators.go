package interview

import (
	"context"
	"time"
)

// QuestionRequest is everything the question generator may condition on.
type QuestionRequest struct {
	Role     RoleBlock
	Memory   MemorySummary
	LastQA   *QAEntry
	Category Category
	// Index is the 1-based number of the question being generated.
	Index int
}

// QuestionGenerator produces the next question. The returned block's
// category must equal the requested one.
type QuestionGenerator interface {
	Generate(ctx context.Context, req QuestionRequest) (QuestionBlock, error)
}

// AnswerEvaluator scores an answer against the rubric.
type AnswerEvaluator interface {
	Evaluate(ctx context.Context, question QuestionBlock, rubric Rubric, answer string) (EvaluationBlock, error)
}

// FeedbackGenerator writes coaching for one answered question.
type FeedbackGenerator interface {
	Generate(ctx context.Context, question QuestionBlock, answer string, eval EvaluationBlock) (FeedbackBlock, error)
}

// Transcriber turns a recorded answer into text. The filename's extension
// identifies the container format.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio []byte) (string, error)
}

// Statistics summarizes a finished interview for the narrator.
type Statistics struct {
	QuestionsAnswered  int     `json:"questions_answered"`
	AverageScore       float64 `json:"average_score"`
	OverallPerformance int     `json:"overall_performance"`
	AutoFailed         int     `json:"auto_failed"`
	ElapsedSeconds     int64   `json:"elapsed_seconds"`
}

// NarrationInput is what the report narrator sees.
type NarrationInput struct {
	Role          RoleBlock
	Statistics    Statistics
	SkillAverages map[string]int
	Notes         []string
	Memory        MemorySummary
}

// Narrative is the prose part of a final report. Numeric fields a
// narrator returns are not trusted and never read.
type Narrative struct {
	Summary         string
	Strengths       []string
	WeakAreas       []string
	Recommendations []string
}

// ReportNarrator writes the prose of the final report.
type ReportNarrator interface {
	Narrate(ctx context.Context, in NarrationInput) (Narrative, error)
}

// Repository persists sessions. UpdateSession must compare-and-swap on
// Version and return an error of kind KindConcurrency on mismatch.
type Repository interface {
	CreateSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	UpdateSession(ctx context.Context, s *Session) error
	ListSessions(ctx context.Context, userID string) ([]*Session, error)
}

// SavedRole is a reusable role block owned by a user.
type SavedRole struct {
	ID        string
	Title     string
	Role      RoleBlock
	CreatorID string
	Public    bool
}

// RoleSource resolves saved roles and tracks how often they are used.
type RoleSource interface {
	GetRole(ctx context.Context, id string) (*SavedRole, error)
	IncrementRoleUsage(ctx context.Context, id string) error
}

// Locker serializes operations on a single session.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// Clock returns the current time.
type Clock func() time.Time
