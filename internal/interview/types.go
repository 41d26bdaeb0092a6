package interview

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Difficulty is the tier a question is pitched at.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is one of the three tiers.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Category is the interview type a question belongs to.
type Category string

const (
	CategoryTechnical  Category = "technical"
	CategoryBehavioral Category = "behavioral"
	CategoryHR         Category = "hr"
	CategoryCustom     Category = "custom"
)

// DefaultCategory is asked when every target is already met.
const DefaultCategory = CategoryTechnical

// ParseCategory parses a category name. "other" is accepted as an alias
// for custom.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "technical":
		return CategoryTechnical, nil
	case "behavioral", "behavioural":
		return CategoryBehavioral, nil
	case "hr":
		return CategoryHR, nil
	case "custom", "other":
		return CategoryCustom, nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// UnmarshalJSON accepts any spelling ParseCategory does. An empty string
// decodes to the zero Category.
func (c *Category) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*c = ""
		return nil
	}
	parsed, err := ParseCategory(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Status is the lifecycle state of a session.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusPaused     Status = "paused"
	StatusCompleted  Status = "completed"
)

// Rubric holds the per-criterion maximum scores.
type Rubric struct {
	Correctness int `json:"correctness" yaml:"correctness"`
	Clarity     int `json:"clarity" yaml:"clarity"`
	Depth       int `json:"depth" yaml:"depth"`
	Relevance   int `json:"relevance" yaml:"relevance"`
}

// RoleBlock is the immutable configuration of one interview.
type RoleBlock struct {
	RoleName       string     `json:"role_name" yaml:"role_name"`
	Skills         []string   `json:"skills" yaml:"skills"`
	Difficulty     Difficulty `json:"difficulty" yaml:"difficulty"`
	Rubric         Rubric     `json:"evaluation_rubric" yaml:"evaluation_rubric"`
	Categories     []Category `json:"categories" yaml:"categories"`
	CustomCategory string     `json:"custom_category,omitempty" yaml:"custom_category,omitempty"`
	TotalQuestions int        `json:"total_questions" yaml:"total_questions"`
}

// MaxQuestions bounds TotalQuestions.
const MaxQuestions = 50

// Validate checks the role block and reports every offending field.
func (r RoleBlock) Validate() error {
	fields := map[string]string{}
	if strings.TrimSpace(r.RoleName) == "" {
		fields["role_name"] = "is required"
	}
	if len(r.Skills) == 0 {
		fields["skills"] = "at least one skill is required"
	}
	for _, s := range r.Skills {
		if strings.TrimSpace(s) == "" {
			fields["skills"] = "skills must not be blank"
			break
		}
	}
	if !r.Difficulty.Valid() {
		fields["difficulty"] = "must be one of easy, medium, hard"
	}
	if r.Rubric.Correctness <= 0 || r.Rubric.Clarity <= 0 || r.Rubric.Depth <= 0 || r.Rubric.Relevance <= 0 {
		fields["evaluation_rubric"] = "every criterion must be a positive integer"
	}
	if len(r.Categories) == 0 {
		fields["categories"] = "at least one category is required"
	}
	seen := map[Category]bool{}
	for _, c := range r.Categories {
		if _, err := ParseCategory(string(c)); err != nil {
			fields["categories"] = err.Error()
			break
		}
		if seen[c] {
			fields["categories"] = fmt.Sprintf("duplicate category %q", c)
			break
		}
		seen[c] = true
	}
	if seen[CategoryCustom] && strings.TrimSpace(r.CustomCategory) == "" {
		fields["custom_category"] = "is required when the custom category is selected"
	}
	if r.TotalQuestions < 1 || r.TotalQuestions > MaxQuestions {
		fields["total_questions"] = fmt.Sprintf("must be between 1 and %d", MaxQuestions)
	}
	if len(fields) > 0 {
		return ValidationError("validate role", fields)
	}
	return nil
}

// Normalize returns a copy with canonical category names, trimmed skills
// and a lower-case difficulty. Unknown categories are kept for Validate
// to report.
func (r RoleBlock) Normalize() RoleBlock {
	r = r.clone()
	r.RoleName = strings.TrimSpace(r.RoleName)
	r.CustomCategory = strings.TrimSpace(r.CustomCategory)
	r.Difficulty = Difficulty(strings.ToLower(strings.TrimSpace(string(r.Difficulty))))
	for i, s := range r.Skills {
		r.Skills[i] = strings.TrimSpace(s)
	}
	for i, c := range r.Categories {
		if parsed, err := ParseCategory(string(c)); err == nil {
			r.Categories[i] = parsed
		}
	}
	return r
}

// CategoryLabel returns the human label of c, substituting the custom
// focus for the custom category.
func (r RoleBlock) CategoryLabel(c Category) string {
	if c == CategoryCustom && r.CustomCategory != "" {
		return r.CustomCategory
	}
	return string(c)
}

func (r RoleBlock) clone() RoleBlock {
	r.Skills = slices.Clone(r.Skills)
	r.Categories = slices.Clone(r.Categories)
	return r
}

// QuestionTypeTarget maps each category to its planned question count.
type QuestionTypeTarget map[Category]int

// AskedTypeCount maps each category to the questions issued so far.
type AskedTypeCount map[Category]int

// MemorySummary is the compact adaptive state carried between turns.
type MemorySummary struct {
	QuestionCount     int        `json:"question_count" yaml:"question_count"`
	WeakSkills        []string   `json:"weak_skills" yaml:"weak_skills"`
	StrongSkills      []string   `json:"strong_skills" yaml:"strong_skills"`
	LastScore         float64    `json:"last_score" yaml:"last_score"`
	Difficulty        Difficulty `json:"difficulty" yaml:"difficulty"`
	PrevAnswerSummary string     `json:"prev_answer_summary,omitempty" yaml:"prev_answer_summary,omitempty"`
	NeedsFollowup     bool       `json:"needs_followup" yaml:"needs_followup"`
}

// QuestionBlock is one generated question.
type QuestionBlock struct {
	Intro      string     `json:"intro" yaml:"intro"`
	Question   string     `json:"question" yaml:"question"`
	Skill      string     `json:"skill" yaml:"skill"`
	Difficulty Difficulty `json:"difficulty" yaml:"difficulty"`
	Category   Category   `json:"category" yaml:"category"`
}

// Scores holds the four rubric sub-scores.
type Scores struct {
	Correctness float64 `json:"correctness" yaml:"correctness"`
	Clarity     float64 `json:"clarity" yaml:"clarity"`
	Depth       float64 `json:"depth" yaml:"depth"`
	Relevance   float64 `json:"relevance" yaml:"relevance"`
}

// EvaluationBlock is the scoring result for one answer.
type EvaluationBlock struct {
	Scores         Scores   `json:"scores" yaml:"scores"`
	OverallScore   float64  `json:"overall_score" yaml:"overall_score"`
	Weaknesses     []string `json:"weaknesses" yaml:"weaknesses"`
	Notes          string   `json:"notes" yaml:"notes"`
	NeedsFollowup  bool     `json:"needs_followup" yaml:"needs_followup"`
	FollowupReason string   `json:"followup_reason,omitempty" yaml:"followup_reason,omitempty"`
}

// FeedbackBlock is post-hoc coaching for one answer.
type FeedbackBlock struct {
	IdealAnswer     string   `json:"ideal_answer" yaml:"ideal_answer"`
	Mistakes        []string `json:"mistakes" yaml:"mistakes"`
	ImprovementTips []string `json:"improvement_tips" yaml:"improvement_tips"`
}

// QAEntry is one completed turn.
type QAEntry struct {
	QuestionNumber    int             `json:"question_number" yaml:"question_number"`
	Question          QuestionBlock   `json:"question" yaml:"question"`
	AnswerText        string          `json:"answer_text" yaml:"answer_text"`
	AnswerAudioURL    string          `json:"answer_audio_url,omitempty" yaml:"answer_audio_url,omitempty"`
	Evaluation        EvaluationBlock `json:"evaluation" yaml:"evaluation"`
	Feedback          *FeedbackBlock  `json:"feedback,omitempty" yaml:"feedback,omitempty"`
	QuestionStartedAt time.Time       `json:"question_started_at" yaml:"question_started_at"`
	AnswerSubmittedAt time.Time       `json:"answer_submitted_at" yaml:"answer_submitted_at"`
	TimeSpentSeconds  int64           `json:"time_spent_seconds" yaml:"time_spent_seconds"`
}

// Pending is the question awaiting an answer: either NoPendingQuestion
// or PendingQuestion.
type Pending interface {
	isPending()
}

// NoPendingQuestion means no question is outstanding.
type NoPendingQuestion struct{}

// PendingQuestion is an issued, not yet answered question.
type PendingQuestion struct {
	Block    QuestionBlock
	IssuedAt time.Time
}

func (NoPendingQuestion) isPending() {}
func (PendingQuestion) isPending()   {}

// Bookmark marks an answered question for later review.
type Bookmark struct {
	QuestionNumber int       `json:"question_number" yaml:"question_number"`
	Question       string    `json:"question" yaml:"question"`
	Answer         string    `json:"answer" yaml:"answer"`
	Note           string    `json:"note,omitempty" yaml:"note,omitempty"`
	BookmarkedAt   time.Time `json:"bookmarked_at" yaml:"bookmarked_at"`
}

// FinalReport is the end-of-interview summary.
type FinalReport struct {
	Summary            string         `json:"summary" yaml:"summary"`
	Strengths          []string       `json:"strengths" yaml:"strengths"`
	WeakAreas          []string       `json:"weak_areas" yaml:"weak_areas"`
	SkillScores        map[string]int `json:"skill_scores" yaml:"skill_scores"`
	Recommendations    []string       `json:"recommendations" yaml:"recommendations"`
	OverallPerformance int            `json:"overall_performance" yaml:"overall_performance"`
}

// Session is the aggregate root of one interview.
type Session struct {
	ID                    string
	UserID                string
	Role                  RoleBlock
	Status                Status
	CurrentQuestionNumber int
	Memory                MemorySummary
	History               []QAEntry
	Targets               QuestionTypeTarget
	Asked                 AskedTypeCount
	Pending               Pending
	PausedAt              *time.Time
	PauseDurationSeconds  int64
	PauseCount            int
	Bookmarks             []Bookmark
	FinalReport           *FinalReport
	StartedAt             time.Time
	CompletedAt           *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time

	// Version is bumped by the repository on every successful update.
	Version int64
}

// PendingQuestion returns the outstanding question, if any.
func (s *Session) PendingQuestion() (PendingQuestion, bool) {
	p, ok := s.Pending.(PendingQuestion)
	return p, ok
}

// Entry returns the QA entry for question number n.
func (s *Session) Entry(n int) (*QAEntry, bool) {
	for i := range s.History {
		if s.History[i].QuestionNumber == n {
			return &s.History[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy, so a turn can be prepared without touching
// the committed state.
func (s *Session) Clone() *Session {
	c := *s
	c.Role = s.Role.clone()
	c.Memory = s.Memory.clone()
	c.History = make([]QAEntry, len(s.History))
	for i, e := range s.History {
		c.History[i] = e.clone()
	}
	c.Targets = cloneMap(s.Targets)
	c.Asked = cloneMap(s.Asked)
	c.Bookmarks = slices.Clone(s.Bookmarks)
	if s.PausedAt != nil {
		t := *s.PausedAt
		c.PausedAt = &t
	}
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		c.CompletedAt = &t
	}
	if s.FinalReport != nil {
		r := s.FinalReport.clone()
		c.FinalReport = &r
	}
	if s.Pending == nil {
		c.Pending = NoPendingQuestion{}
	}
	return &c
}

func (m MemorySummary) clone() MemorySummary {
	m.WeakSkills = slices.Clone(m.WeakSkills)
	m.StrongSkills = slices.Clone(m.StrongSkills)
	return m
}

func (e QAEntry) clone() QAEntry {
	e.Evaluation.Weaknesses = slices.Clone(e.Evaluation.Weaknesses)
	if e.Feedback != nil {
		f := *e.Feedback
		f.Mistakes = slices.Clone(f.Mistakes)
		f.ImprovementTips = slices.Clone(f.ImprovementTips)
		e.Feedback = &f
	}
	return e
}

func (r FinalReport) clone() FinalReport {
	r.Strengths = slices.Clone(r.Strengths)
	r.WeakAreas = slices.Clone(r.WeakAreas)
	r.Recommendations = slices.Clone(r.Recommendations)
	if r.SkillScores != nil {
		m := make(map[string]int, len(r.SkillScores))
		for k, v := range r.SkillScores {
			m[k] = v
		}
		r.SkillScores = m
	}
	return r
}

func cloneMap[M ~map[Category]int](m M) M {
	if m == nil {
		return nil
	}
	out := make(M, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// sessionJSON is the serialized form of Session. The pending question is
// flattened to an optional object.
type sessionJSON struct {
	ID                    string             `json:"id" yaml:"id"`
	UserID                string             `json:"user_id" yaml:"user_id"`
	Role                  RoleBlock          `json:"role_block" yaml:"role_block"`
	Status                Status             `json:"status" yaml:"status"`
	CurrentQuestionNumber int                `json:"current_question_number" yaml:"current_question_number"`
	Memory                MemorySummary      `json:"memory_summary" yaml:"memory_summary"`
	History               []QAEntry          `json:"qa_history" yaml:"qa_history"`
	Targets               QuestionTypeTarget `json:"question_type_targets" yaml:"question_type_targets"`
	Asked                 AskedTypeCount     `json:"asked_type_counts" yaml:"asked_type_counts"`
	CurrentQuestion       *QuestionBlock     `json:"current_question,omitempty" yaml:"current_question,omitempty"`
	QuestionIssuedAt      *time.Time         `json:"question_issued_at,omitempty" yaml:"question_issued_at,omitempty"`
	PausedAt              *time.Time         `json:"paused_at" yaml:"paused_at"`
	PauseDurationSeconds  int64              `json:"pause_duration_seconds" yaml:"pause_duration_seconds"`
	PauseCount            int                `json:"pause_count" yaml:"pause_count"`
	Bookmarks             []Bookmark         `json:"bookmarks" yaml:"bookmarks"`
	FinalReport           *FinalReport       `json:"final_report,omitempty" yaml:"final_report,omitempty"`
	StartedAt             time.Time          `json:"started_at" yaml:"started_at"`
	CompletedAt           *time.Time         `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	CreatedAt             time.Time          `json:"created_at" yaml:"created_at"`
	UpdatedAt             time.Time          `json:"updated_at" yaml:"updated_at"`
	Version               int64              `json:"version" yaml:"version"`
}

func (s Session) MarshalJSON() ([]byte, error) {
	out := sessionJSON{
		ID:                    s.ID,
		UserID:                s.UserID,
		Role:                  s.Role,
		Status:                s.Status,
		CurrentQuestionNumber: s.CurrentQuestionNumber,
		Memory:                s.Memory,
		History:               s.History,
		Targets:               s.Targets,
		Asked:                 s.Asked,
		PausedAt:              s.PausedAt,
		PauseDurationSeconds:  s.PauseDurationSeconds,
		PauseCount:            s.PauseCount,
		Bookmarks:             s.Bookmarks,
		FinalReport:           s.FinalReport,
		StartedAt:             s.StartedAt,
		CompletedAt:           s.CompletedAt,
		CreatedAt:             s.CreatedAt,
		UpdatedAt:             s.UpdatedAt,
		Version:               s.Version,
	}
	if out.History == nil {
		out.History = []QAEntry{}
	}
	if out.Bookmarks == nil {
		out.Bookmarks = []Bookmark{}
	}
	if p, ok := s.Pending.(PendingQuestion); ok {
		block := p.Block
		issued := p.IssuedAt
		out.CurrentQuestion = &block
		out.QuestionIssuedAt = &issued
	}
	return json.Marshal(out)
}

func (s *Session) UnmarshalJSON(b []byte) error {
	var in sessionJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*s = Session{
		ID:                    in.ID,
		UserID:                in.UserID,
		Role:                  in.Role,
		Status:                in.Status,
		CurrentQuestionNumber: in.CurrentQuestionNumber,
		Memory:                in.Memory,
		History:               in.History,
		Targets:               in.Targets,
		Asked:                 in.Asked,
		Pending:               NoPendingQuestion{},
		PausedAt:              in.PausedAt,
		PauseDurationSeconds:  in.PauseDurationSeconds,
		PauseCount:            in.PauseCount,
		Bookmarks:             in.Bookmarks,
		FinalReport:           in.FinalReport,
		StartedAt:             in.StartedAt,
		CompletedAt:           in.CompletedAt,
		CreatedAt:             in.CreatedAt,
		UpdatedAt:             in.UpdatedAt,
		Version:               in.Version,
	}
	if in.CurrentQuestion != nil {
		p := PendingQuestion{Block: *in.CurrentQuestion}
		if in.QuestionIssuedAt != nil {
			p.IssuedAt = *in.QuestionIssuedAt
		}
		s.Pending = p
	}
	return nil
}
