package questiongen

import (
	"context"
	"fmt"
	"strings"

	"github.com/abhisek/mockprep/internal/interview"
	"github.com/abhisek/mockprep/internal/llm"
)

// RoleRequest asks for a role block built from a job title or description.
type RoleRequest struct {
	JobText        string
	Categories     []interview.Category
	CustomCategory string
	QuestionCount  int
}

// ResumeRequest asks for a role block tailored to a candidate's resume.
type ResumeRequest struct {
	TargetRole      string
	ExperienceLevel string
	ResumeText      string
	Categories      []interview.Category
	CustomCategory  string
	QuestionCount   int
}

// roleOutput is the raw LLM response before it is merged with the request.
type roleOutput struct {
	RoleName     string           `json:"role_name"`
	Skills       []string         `json:"skills"`
	Difficulty   string           `json:"difficulty"`
	Rubric       interview.Rubric `json:"evaluation_rubric"`
	ContextNotes string           `json:"context_notes"`
}

// RoleArchitect turns job text or a resume into a role block.
type RoleArchitect struct {
	provider llm.Provider
	config   RoleConfig
}

// NewRoleArchitect creates a RoleArchitect.
func NewRoleArchitect(provider llm.Provider, cfg RoleConfig) *RoleArchitect {
	return &RoleArchitect{provider: provider, config: cfg}
}

// FromJobText generates a role block for a job title or description.
func (a *RoleArchitect) FromJobText(ctx context.Context, req RoleRequest) (interview.RoleBlock, error) {
	const op = "generate role"
	fields := checkPlan(req.Categories, req.CustomCategory, req.QuestionCount)
	if strings.TrimSpace(req.JobText) == "" {
		fields["job_text"] = "is required"
	}
	if len(fields) > 0 {
		return interview.RoleBlock{}, interview.ValidationError(op, fields)
	}

	req.Categories = canonical(req.Categories)
	total := a.questionCount(req.QuestionCount)
	out, err := a.generate(ctx, op, roleSystemPrompt, buildRoleMessage(req, total), a.config.Temperature)
	if err != nil {
		return interview.RoleBlock{}, err
	}
	return a.merge(op, out, req.Categories, req.CustomCategory, total)
}

// FromResume generates a role block from resume text and a target role.
func (a *RoleArchitect) FromResume(ctx context.Context, req ResumeRequest) (interview.RoleBlock, error) {
	const op = "generate role from resume"
	if len(req.Categories) == 0 {
		req.Categories = []interview.Category{interview.CategoryTechnical}
	}
	fields := checkPlan(req.Categories, req.CustomCategory, req.QuestionCount)
	if strings.TrimSpace(req.TargetRole) == "" {
		fields["role"] = "is required"
	}
	if strings.TrimSpace(req.ExperienceLevel) == "" {
		fields["experience_level"] = "is required"
	}
	if strings.TrimSpace(req.ResumeText) == "" {
		fields["resume"] = "no text could be extracted"
	}
	if len(fields) > 0 {
		return interview.RoleBlock{}, interview.ValidationError(op, fields)
	}

	resume := req.ResumeText
	if limit := a.config.MaxResumeChars; limit > 0 && len(resume) > limit {
		resume = resume[:limit]
	}

	req.Categories = canonical(req.Categories)
	total := a.questionCount(req.QuestionCount)
	out, err := a.generate(ctx, op, resumeSystemPrompt, buildResumeMessage(req, resume, total), a.config.ResumeTemperature)
	if err != nil {
		return interview.RoleBlock{}, err
	}
	return a.merge(op, out, req.Categories, req.CustomCategory, total)
}

func (a *RoleArchitect) questionCount(n int) int {
	if n > 0 {
		return n
	}
	if a.config.DefaultQuestionCount > 0 {
		return a.config.DefaultQuestionCount
	}
	return 10
}

func (a *RoleArchitect) generate(ctx context.Context, op, system, msg string, temperature float64) (roleOutput, error) {
	ctx = llm.WithPurpose(ctx, PurposeRole)
	resp, err := a.provider.Generate(ctx, llm.Request{
		System:      system,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: msg}},
		Schema:      RoleSchema,
		MaxTokens:   a.config.MaxTokens,
		Temperature: temperature,
	})
	if err != nil {
		if llm.IsInvalidResponse(err) {
			return roleOutput{}, invalidRole(op, err)
		}
		return roleOutput{}, &interview.Error{
			Kind:    interview.KindExternalService,
			Op:      op,
			Message: "role generation failed",
			Err:     err,
		}
	}
	parsed := llm.Parse[roleOutput](RoleSchema, resp.Content)
	if !parsed.Ok() {
		return roleOutput{}, invalidRole(op, parsed.Err)
	}
	return parsed.Value, nil
}

// merge combines model output with the caller's plan. The categories and
// question count always come from the request.
func (a *RoleArchitect) merge(op string, out roleOutput, categories []interview.Category, custom string, total int) (interview.RoleBlock, error) {
	role := interview.RoleBlock{
		RoleName:       out.RoleName,
		Skills:         out.Skills,
		Difficulty:     interview.Difficulty(out.Difficulty),
		Rubric:         out.Rubric,
		Categories:     append([]interview.Category(nil), categories...),
		TotalQuestions: total,
	}
	role = role.Normalize()
	for _, c := range role.Categories {
		if c == interview.CategoryCustom {
			role.CustomCategory = strings.TrimSpace(custom)
		}
	}
	if err := role.Validate(); err != nil {
		return interview.RoleBlock{}, invalidRole(op, err)
	}
	return role, nil
}

// checkPlan validates the caller-supplied half of a role request.
func checkPlan(categories []interview.Category, custom string, count int) map[string]string {
	fields := map[string]string{}
	if len(categories) == 0 {
		fields["interview_types"] = "at least one interview type is required"
	}
	for _, c := range categories {
		parsed, err := interview.ParseCategory(string(c))
		if err != nil {
			fields["interview_types"] = err.Error()
			break
		}
		if parsed == interview.CategoryCustom && strings.TrimSpace(custom) == "" {
			fields["custom_type"] = `must be specified when "other" is selected`
		}
	}
	if count < 0 || count > interview.MaxQuestions {
		fields["question_count"] = fmt.Sprintf("must be between 1 and %d", interview.MaxQuestions)
	}
	return fields
}

// canonical maps category aliases such as "other" to their canonical names.
// Callers have already rejected unknown categories.
func canonical(categories []interview.Category) []interview.Category {
	out := make([]interview.Category, len(categories))
	for i, c := range categories {
		parsed, _ := interview.ParseCategory(string(c))
		out[i] = parsed
	}
	return out
}

func invalidRole(op string, err error) error {
	return &interview.Error{
		Kind:    interview.KindExternalService,
		Op:      op,
		Message: "the model returned an unusable role block",
		Err:     err,
	}
}
