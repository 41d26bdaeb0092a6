package interview

import (
	"fmt"
	"time"
)

// Export is a flattened, shareable view of a session.
type Export struct {
	InterviewID        string       `json:"interview_id" yaml:"interview_id"`
	Role               string       `json:"role" yaml:"role"`
	Difficulty         Difficulty   `json:"difficulty" yaml:"difficulty"`
	Categories         []Category   `json:"categories" yaml:"categories"`
	Date               time.Time    `json:"date" yaml:"date"`
	StartedAt          time.Time    `json:"started_at" yaml:"started_at"`
	CompletedAt        *time.Time   `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	TotalTimeSeconds   int64        `json:"total_time_seconds" yaml:"total_time_seconds"`
	TotalTimeFormatted string       `json:"total_time_formatted" yaml:"total_time_formatted"`
	Status             Status       `json:"status" yaml:"status"`
	TotalQuestions     int          `json:"total_questions" yaml:"total_questions"`
	PauseCount         int          `json:"pause_count" yaml:"pause_count"`
	Questions          []ExportedQA `json:"questions" yaml:"questions"`
	Bookmarks          []Bookmark   `json:"bookmarks" yaml:"bookmarks"`
	FinalReport        *FinalReport `json:"final_report,omitempty" yaml:"final_report,omitempty"`
}

// ExportedQA is one answered question in an Export.
type ExportedQA struct {
	Number           int             `json:"number" yaml:"number"`
	Question         string          `json:"question" yaml:"question"`
	Skill            string          `json:"skill" yaml:"skill"`
	Category         Category        `json:"category" yaml:"category"`
	Answer           string          `json:"answer" yaml:"answer"`
	Evaluation       EvaluationBlock `json:"evaluation" yaml:"evaluation"`
	Feedback         *FeedbackBlock  `json:"feedback,omitempty" yaml:"feedback,omitempty"`
	TimeSpentSeconds int64           `json:"time_spent_seconds" yaml:"time_spent_seconds"`
}

// BuildExport flattens s as of now.
func BuildExport(s *Session, now time.Time) Export {
	total := s.ElapsedSeconds(now)
	e := Export{
		InterviewID:        s.ID,
		Role:               s.Role.RoleName,
		Difficulty:         s.Role.Difficulty,
		Categories:         s.Role.Categories,
		Date:               s.CreatedAt,
		StartedAt:          s.StartedAt,
		CompletedAt:        s.CompletedAt,
		TotalTimeSeconds:   total,
		TotalTimeFormatted: FormatDuration(total),
		Status:             s.Status,
		TotalQuestions:     len(s.History),
		PauseCount:         s.PauseCount,
		Questions:          make([]ExportedQA, 0, len(s.History)),
		Bookmarks:          s.Bookmarks,
		FinalReport:        s.FinalReport,
	}
	for _, qa := range s.History {
		e.Questions = append(e.Questions, ExportedQA{
			Number:           qa.QuestionNumber,
			Question:         qa.Question.Question,
			Skill:            qa.Question.Skill,
			Category:         qa.Question.Category,
			Answer:           qa.AnswerText,
			Evaluation:       qa.Evaluation,
			Feedback:         qa.Feedback,
			TimeSpentSeconds: qa.TimeSpentSeconds,
		})
	}
	if e.Bookmarks == nil {
		e.Bookmarks = []Bookmark{}
	}
	return e
}

// FormatDuration renders seconds as "1h 2m 3s", "4m 5s" or "6s".
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	sec := seconds % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, sec)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, sec)
	default:
		return fmt.Sprintf("%ds", sec)
	}
}
