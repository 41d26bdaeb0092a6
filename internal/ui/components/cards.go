// Package components renders interview artifacts for the terminal.
package components

import (
	"fmt"
	"sort"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/mockprep/internal/interview"
	"github.com/abhisek/mockprep/internal/ui/theme"
)

// DefaultWidth is used when the terminal width is unknown.
const DefaultWidth = 80

// QuestionCard renders the question with its number, category and skill.
func QuestionCard(next interview.NextQuestion, width int) string {
	q := next.Question
	header := theme.Title.Render(fmt.Sprintf("Question %d of %d", next.Number, next.Total)) +
		"  " + theme.Subtitle.Render(fmt.Sprintf("%s · %s · %s", q.Category, q.Skill, q.Difficulty))

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	if q.Intro != "" {
		b.WriteString(theme.Hint.Render(q.Intro))
		b.WriteString("\n")
	}
	b.WriteString(theme.Body.Render(q.Question))
	return theme.QuestionCard.Width(width).Render(b.String())
}

// EvaluationCard renders the scores for one answer against its rubric.
func EvaluationCard(eval interview.EvaluationBlock, rubric interview.Rubric, autoFailed bool, width int) string {
	var b strings.Builder
	b.WriteString(theme.Label.Render("Score "))
	b.WriteString(theme.ScoreStyle(eval.OverallScore).Render(fmt.Sprintf("%.1f/10", eval.OverallScore)))
	if autoFailed {
		b.WriteString("  " + theme.Weak.Render("(answer too short to evaluate)"))
	}
	b.WriteString("\n")

	rows := []struct {
		name  string
		score float64
		max   int
	}{
		{"Correctness", eval.Scores.Correctness, rubric.Correctness},
		{"Clarity", eval.Scores.Clarity, rubric.Clarity},
		{"Depth", eval.Scores.Depth, rubric.Depth},
		{"Relevance", eval.Scores.Relevance, rubric.Relevance},
	}
	for _, r := range rows {
		fmt.Fprintf(&b, "%-12s %s\n", r.name, theme.Subtitle.Render(fmt.Sprintf("%.1f/%d", r.score, r.max)))
	}
	if len(eval.Weaknesses) > 0 {
		b.WriteString(theme.Label.Render("Weaknesses") + "\n")
		b.WriteString(bullets(eval.Weaknesses))
	}
	if eval.Notes != "" {
		b.WriteString(theme.Hint.Render(eval.Notes))
	}
	return theme.Card.Width(width).Render(strings.TrimRight(b.String(), "\n"))
}

// FeedbackCard renders coaching for one answer.
func FeedbackCard(n int, fb interview.FeedbackBlock, width int) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render(fmt.Sprintf("Feedback on question %d", n)) + "\n\n")
	b.WriteString(theme.Label.Render("Ideal answer") + "\n")
	b.WriteString(theme.Body.Render(fb.IdealAnswer) + "\n")
	if len(fb.Mistakes) > 0 {
		b.WriteString(theme.Label.Render("Mistakes") + "\n")
		b.WriteString(bullets(fb.Mistakes))
	}
	if len(fb.ImprovementTips) > 0 {
		b.WriteString(theme.Label.Render("Tips") + "\n")
		b.WriteString(bullets(fb.ImprovementTips))
	}
	return theme.Card.Width(width).Render(strings.TrimRight(b.String(), "\n"))
}

// ReportCard renders the final report with a bar per skill.
func ReportCard(r interview.FinalReport, width int) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render("Interview report") + "  ")
	b.WriteString(theme.ScoreStyle(float64(r.OverallPerformance)).Render(fmt.Sprintf("%d/10", r.OverallPerformance)))
	b.WriteString("\n\n")
	b.WriteString(theme.Body.Render(r.Summary) + "\n")

	if len(r.SkillScores) > 0 {
		b.WriteString("\n" + theme.Label.Render("Skills") + "\n")
		skills := make([]string, 0, len(r.SkillScores))
		for s := range r.SkillScores {
			skills = append(skills, s)
		}
		sort.Strings(skills)
		nameWidth := 0
		for _, s := range skills {
			nameWidth = max(nameWidth, lipgloss.Width(s))
		}
		barWidth := max(width-nameWidth-12, 10)
		for _, s := range skills {
			bar := NewProgressBar(r.SkillScores[s], 10, barWidth)
			fmt.Fprintf(&b, "%-*s  %s\n", nameWidth, s, bar.View())
		}
	}
	for _, sec := range []struct {
		title string
		items []string
	}{
		{"Strengths", r.Strengths},
		{"Weak areas", r.WeakAreas},
		{"Recommendations", r.Recommendations},
	} {
		if len(sec.items) == 0 {
			continue
		}
		b.WriteString("\n" + theme.Label.Render(sec.title) + "\n")
		b.WriteString(bullets(sec.items))
	}
	return theme.ReportCard.Width(width).Render(strings.TrimRight(b.String(), "\n"))
}

func bullets(items []string) string {
	var b strings.Builder
	for _, it := range items {
		b.WriteString("  • " + it + "\n")
	}
	return b.String()
}
