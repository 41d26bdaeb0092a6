package interview

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in      string
		want    Category
		wantErr bool
	}{
		{"technical", CategoryTechnical, false},
		{" HR ", CategoryHR, false},
		{"Behavioral", CategoryBehavioral, false},
		{"other", CategoryCustom, false},
		{"custom", CategoryCustom, false},
		{"trivia", "", true},
	}
	for _, tt := range tests {
		got, err := ParseCategory(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCategory(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseCategory(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRoleBlock_UnmarshalAcceptsOther(t *testing.T) {
	raw := `{
		"role_name": "SRE",
		"skills": ["linux"],
		"difficulty": "hard",
		"evaluation_rubric": {"correctness": 4, "clarity": 2, "depth": 2, "relevance": 2},
		"categories": ["technical", "other"],
		"custom_category": "Incident response",
		"total_questions": 6
	}`
	var r RoleBlock
	require.NoError(t, json.Unmarshal([]byte(raw), &r))
	assert.Equal(t, []Category{CategoryTechnical, CategoryCustom}, r.Categories)
	assert.NoError(t, r.Validate())
	assert.Equal(t, "Incident response", r.CategoryLabel(CategoryCustom))
	assert.Equal(t, "technical", r.CategoryLabel(CategoryTechnical))
}

func TestRoleBlock_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RoleBlock)
		field  string
	}{
		{"missing name", func(r *RoleBlock) { r.RoleName = "" }, "role_name"},
		{"no skills", func(r *RoleBlock) { r.Skills = nil }, "skills"},
		{"blank skill", func(r *RoleBlock) { r.Skills = []string{"go", " "} }, "skills"},
		{"bad difficulty", func(r *RoleBlock) { r.Difficulty = "extreme" }, "difficulty"},
		{"zero rubric", func(r *RoleBlock) { r.Rubric.Depth = 0 }, "evaluation_rubric"},
		{"no categories", func(r *RoleBlock) { r.Categories = nil }, "categories"},
		{"duplicate category", func(r *RoleBlock) { r.Categories = []Category{CategoryHR, CategoryHR} }, "categories"},
		{"custom without label", func(r *RoleBlock) { r.Categories = []Category{CategoryCustom} }, "custom_category"},
		{"too many questions", func(r *RoleBlock) { r.TotalQuestions = MaxQuestions + 1 }, "total_questions"},
		{"zero questions", func(r *RoleBlock) { r.TotalQuestions = 0 }, "total_questions"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := testRole()
			tt.mutate(&r)
			err := r.Validate()
			require.Error(t, err)
			var e *Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, KindValidation, e.Kind)
			assert.Contains(t, e.Fields, tt.field)
		})
	}

	assert.NoError(t, testRole().Validate())
}

func TestSession_JSONRoundTrip(t *testing.T) {
	now := time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC)
	paused := now.Add(time.Minute)
	s := NewSession("s1", "u1", testRole(), now)
	CommitQuestion(s, QuestionBlock{Question: "Q?", Skill: "go", Difficulty: DifficultyMedium, Category: CategoryTechnical}, now)
	s.PausedAt = &paused
	s.Status = StatusPaused
	s.PauseCount = 1
	s.History = append(s.History, QAEntry{
		QuestionNumber: 1,
		Question:       QuestionBlock{Question: "Earlier?", Skill: "sql", Category: CategoryBehavioral},
		AnswerText:     "an answer",
		Evaluation:     scored(6),
		Feedback:       &FeedbackBlock{IdealAnswer: "ideal", Mistakes: []string{}, ImprovementTips: []string{"x"}},
	})
	s.Version = 3

	b, err := json.Marshal(s)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Contains(t, m, "current_question")
	assert.Contains(t, m, "question_issued_at")
	assert.NotContains(t, m, "final_report")

	var got Session
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, s, &got)
}

func TestSession_JSONNoPending(t *testing.T) {
	s := NewSession("s1", "u1", testRole(), time.Now().UTC())
	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "current_question")

	var got Session
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, NoPendingQuestion{}, got.Pending)
}

func TestSession_CloneIsDeep(t *testing.T) {
	now := time.Now().UTC()
	s := NewSession("s1", "u1", testRole(), now)
	s.History = append(s.History, QAEntry{
		QuestionNumber: 1,
		Evaluation:     EvaluationBlock{Weaknesses: []string{"a"}},
		Feedback:       &FeedbackBlock{Mistakes: []string{"m"}},
	})
	s.Memory.WeakSkills = append(s.Memory.WeakSkills, "go")
	s.FinalReport = &FinalReport{SkillScores: map[string]int{"go": 5}}
	s.PausedAt = &now

	c := s.Clone()
	c.Role.Skills[0] = "changed"
	c.History[0].Evaluation.Weaknesses[0] = "changed"
	c.History[0].Feedback.Mistakes[0] = "changed"
	c.Memory.WeakSkills[0] = "changed"
	c.Targets[CategoryTechnical] = 99
	c.Asked[CategoryHR] = 7
	c.FinalReport.SkillScores["go"] = 0
	*c.PausedAt = now.Add(time.Hour)

	assert.Equal(t, "go", s.Role.Skills[0])
	assert.Equal(t, "a", s.History[0].Evaluation.Weaknesses[0])
	assert.Equal(t, "m", s.History[0].Feedback.Mistakes[0])
	assert.Equal(t, "go", s.Memory.WeakSkills[0])
	assert.Equal(t, 3, s.Targets[CategoryTechnical])
	assert.Zero(t, s.Asked[CategoryHR])
	assert.Equal(t, 5, s.FinalReport.SkillScores["go"])
	assert.Equal(t, now, *s.PausedAt)
}
