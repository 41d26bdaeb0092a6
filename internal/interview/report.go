package interview

import (
	"fmt"
	"math"
	"strings"
)

// roundHalfUp rounds to the nearest integer, halves away from zero for
// the non-negative scores used here.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// AggregateScores computes the rounded mean overall score per skill and
// across all entries.
func AggregateScores(history []QAEntry) (skillScores map[string]int, overall int) {
	skillScores = map[string]int{}
	if len(history) == 0 {
		return skillScores, 0
	}

	sums := map[string]float64{}
	counts := map[string]int{}
	var total float64
	for _, e := range history {
		skill := e.Question.Skill
		sums[skill] += e.Evaluation.OverallScore
		counts[skill]++
		total += e.Evaluation.OverallScore
	}
	for skill, sum := range sums {
		skillScores[skill] = roundHalfUp(sum / float64(counts[skill]))
	}
	return skillScores, roundHalfUp(total / float64(len(history)))
}

// CollectNotes returns "Q<n>: <notes>" for every entry with notes.
func CollectNotes(history []QAEntry) []string {
	var notes []string
	for _, e := range history {
		if n := strings.TrimSpace(e.Evaluation.Notes); n != "" {
			notes = append(notes, fmt.Sprintf("Q%d: %s", e.QuestionNumber, n))
		}
	}
	return notes
}

// BuildStatistics summarizes the history for the narrator.
func BuildStatistics(history []QAEntry, elapsedSeconds int64) Statistics {
	st := Statistics{QuestionsAnswered: len(history), ElapsedSeconds: elapsedSeconds}
	if len(history) == 0 {
		return st
	}
	var total float64
	for _, e := range history {
		total += e.Evaluation.OverallScore
		if IsAutoFail(e.AnswerText) {
			st.AutoFailed++
		}
	}
	st.AverageScore = math.Round(total/float64(len(history))*100) / 100
	st.OverallPerformance = roundHalfUp(total / float64(len(history)))
	return st
}

// BuildReport combines the narrator's prose with locally computed scores.
// Only prose comes from the narrator.
func BuildReport(n Narrative, skillScores map[string]int, overall int) FinalReport {
	r := FinalReport{
		Summary:            n.Summary,
		Strengths:          n.Strengths,
		WeakAreas:          n.WeakAreas,
		SkillScores:        skillScores,
		Recommendations:    n.Recommendations,
		OverallPerformance: overall,
	}
	if r.Strengths == nil {
		r.Strengths = []string{}
	}
	if r.WeakAreas == nil {
		r.WeakAreas = []string{}
	}
	if r.Recommendations == nil {
		r.Recommendations = []string{}
	}
	return r.clone()
}
