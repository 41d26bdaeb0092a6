package questiongen

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abhisek/mockprep/internal/interview"
)

const questionSystemPrompt = `You are a human interviewer.
Ask one question at a time.
Adapt difficulty and focus based on the candidate's performance.
Sound natural and professional.
Return ONLY valid JSON. No explanations.`

// categoryGuidance describes what each category may ask about.
var categoryGuidance = map[interview.Category]string{
	interview.CategoryHR:         "Ask only HR questions about soft skills, teamwork, communication, conflict resolution or leadership.",
	interview.CategoryTechnical:  "Ask only technical questions about code, algorithms, system design or programming concepts.",
	interview.CategoryBehavioral: "Ask only behavioral questions about past experiences that invite a STAR-style answer.",
}

func buildQuestionMessage(req interview.QuestionRequest) string {
	var b strings.Builder

	role, _ := json.MarshalIndent(req.Role, "", "  ")
	memory, _ := json.MarshalIndent(req.Memory, "", "  ")

	fmt.Fprintf(&b, "Role Block:\n%s\n\n", role)
	fmt.Fprintf(&b, "Interview State:\n%s\n", memory)

	if req.LastQA != nil {
		eval, _ := json.Marshal(req.LastQA.Evaluation)
		fmt.Fprintf(&b, "\nPrevious Question: %s\n", req.LastQA.Question.Question)
		fmt.Fprintf(&b, "Previous Answer: %s\n", req.LastQA.AnswerText)
		fmt.Fprintf(&b, "Previous Evaluation: %s\n", eval)
	}

	fmt.Fprintf(&b, "\nCurrent Question: %d of %d\n", req.Index, req.Role.TotalQuestions)
	fmt.Fprintf(&b, "Target Difficulty: %s\n", req.Memory.Difficulty)

	label := req.Role.CategoryLabel(req.Category)
	fmt.Fprintf(&b, "\nThe next question MUST be of category %q", req.Category)
	if label != string(req.Category) {
		fmt.Fprintf(&b, " focused on %q", label)
	}
	b.WriteString(". Do not ask questions from any other category.\n")
	if g, ok := categoryGuidance[req.Category]; ok {
		b.WriteString(g + "\n")
	} else {
		fmt.Fprintf(&b, "Ask only questions about %s.\n", label)
	}

	b.WriteString(`
Guidelines:
- Build on the previous answer and evaluation when there is one.
- If the candidate struggled, ask a simpler related question in the same category.
- If the candidate excelled, ask a more challenging follow-up in the same category.
- If weak_skills exist, focus on those areas without leaving the category.
- If needs_followup is true, ask a follow-up on the same topic.
- Keep the question clear and specific.`)
	fmt.Fprintf(&b, "\n- Set \"category\" to %q.", req.Category)

	return b.String()
}

const roleSystemPrompt = `You are an interview architect.
Return ONLY valid JSON. No explanations.
Be strict and accurate.`

const resumeSystemPrompt = `You are an expert technical interviewer and resume analyst.
Return ONLY valid JSON. No explanations.
Be strict and accurate.`

func categoryList(categories []interview.Category, custom string) string {
	labels := make([]string, 0, len(categories))
	for _, c := range categories {
		if c == interview.CategoryCustom && custom != "" {
			labels = append(labels, custom)
			continue
		}
		labels = append(labels, string(c))
	}
	return strings.Join(labels, ", ")
}

func buildRoleMessage(req RoleRequest, total int) string {
	types := categoryList(req.Categories, req.CustomCategory)

	var b strings.Builder
	b.WriteString("Given the following job role or description, create an interview role block.\n\n")
	fmt.Fprintf(&b, "Job Role / Description: %s\n", req.JobText)
	fmt.Fprintf(&b, "Interview Types: %s\n", types)
	fmt.Fprintf(&b, "Total Questions: %d\n", total)
	b.WriteString(`
Important:
- Extract key skills from the job description.
- Determine an appropriate difficulty level: easy, medium or hard.
- Set rubric maximums (integers from 1 to 10) based on role complexity.
`)
	fmt.Fprintf(&b, "- Focus on the interview types: %s", types)
	return b.String()
}

func buildResumeMessage(req ResumeRequest, resume string, total int) string {
	var b strings.Builder
	b.WriteString("Analyze the following resume and target role to create a personalized interview plan.\n\n")
	fmt.Fprintf(&b, "Target Role: %s\n", req.TargetRole)
	fmt.Fprintf(&b, "Experience Level: %s\n", req.ExperienceLevel)
	fmt.Fprintf(&b, "Resume Content:\n%s\n\n", resume)
	fmt.Fprintf(&b, "Interview Types: %s\n", categoryList(req.Categories, req.CustomCategory))
	fmt.Fprintf(&b, "Total Questions: %d\n", total)
	b.WriteString(`
Focus the role block on:
- Projects in the resume: architecture, challenges, the candidate's own contribution.
- Technologies listed, to verify depth of knowledge.
- Core concepts of the target role.
- Behavioral topics suited to the experience level.

Skills should include both generic role skills and specific tools found in the resume.`)
	return b.String()
}
