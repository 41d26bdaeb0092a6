package coaching

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/abhisek/mockprep/internal/interview"
)

const feedbackSystemPrompt = `You are a mentor and interview coach.
Give concise, actionable feedback.
Be encouraging but honest.
Return ONLY valid JSON. No explanations.`

func buildFeedbackUserMessage(q interview.QuestionBlock, answer string, eval interview.EvaluationBlock) string {
	evalJSON, _ := json.MarshalIndent(eval, "", "  ")

	var b strings.Builder
	fmt.Fprintf(&b, "Question:\n%s\n\n", q.Question)
	fmt.Fprintf(&b, "Candidate Answer:\n%s\n\n", answer)
	fmt.Fprintf(&b, "Evaluation:\n%s\n\n", evalJSON)
	b.WriteString(`Guidelines:
- ideal_answer should be brief but comprehensive.
- mistakes should be specific and actionable.
- improvement_tips should be practical and encouraging.
- Keep it concise. The candidate needs to move forward.`)
	return b.String()
}

const reportSystemPrompt = `You are an interview coach and career advisor.
Generate a comprehensive final interview report.
Be honest but encouraging.
Provide actionable recommendations.
Return ONLY valid JSON. No explanations.`

func orNone(items []string) string {
	if len(items) == 0 {
		return "None identified"
	}
	return strings.Join(items, ", ")
}

func buildReportUserMessage(in interview.NarrationInput) string {
	var b strings.Builder

	role, _ := json.MarshalIndent(in.Role, "", "  ")
	fmt.Fprintf(&b, "Role Block:\n%s\n\n", role)

	st := in.Statistics
	b.WriteString("Interview Statistics:\n")
	fmt.Fprintf(&b, "- Questions Answered: %d\n", st.QuestionsAnswered)
	fmt.Fprintf(&b, "- Overall Performance: %d/10\n", st.OverallPerformance)
	fmt.Fprintf(&b, "- Average Score: %.2f/10\n", st.AverageScore)
	if st.AutoFailed > 0 {
		fmt.Fprintf(&b, "- Unanswered or trivially short answers: %d\n", st.AutoFailed)
	}
	if st.ElapsedSeconds > 0 {
		fmt.Fprintf(&b, "- Time Spent: %s\n", interview.FormatDuration(st.ElapsedSeconds))
	}

	b.WriteString("\nSkill Breakdown (0-10):\n")
	skills := make([]string, 0, len(in.SkillAverages))
	for s := range in.SkillAverages {
		skills = append(skills, s)
	}
	slices.Sort(skills)
	for _, s := range skills {
		fmt.Fprintf(&b, "- %s: %d\n", s, in.SkillAverages[s])
	}

	fmt.Fprintf(&b, "\nStrong Skills: %s\n", orNone(in.Memory.StrongSkills))
	fmt.Fprintf(&b, "Weak Areas: %s\n", orNone(in.Memory.WeakSkills))

	if len(in.Notes) > 0 {
		b.WriteString("\nEvaluation Notes:\n")
		b.WriteString(strings.Join(in.Notes, "\n"))
		b.WriteString("\n")
	}

	b.WriteString(`
Guidelines:
- summary should be professional and balanced.
- strengths should highlight what went well.
- weak_areas should be constructive.
- recommendations should be specific and actionable.
- Include both technical and soft skill feedback if applicable.`)
	return b.String()
}
