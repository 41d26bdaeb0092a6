package interview

import (
	"slices"
	"strings"
)

// Score thresholds on the 0-10 overall scale.
const (
	strongSkillScore = 8
	weakSkillScore   = 5
	escalateScore    = 9
	deescalateScore  = 4
)

// summaryWords caps the previous-answer summary.
const summaryWords = 30

// InitialMemory returns the memory of an interview with no answers yet.
func InitialMemory() MemorySummary {
	return MemorySummary{
		WeakSkills:   []string{},
		StrongSkills: []string{},
		Difficulty:   DifficultyMedium,
	}
}

// UpdateMemory folds one evaluated answer into the memory. It is pure:
// the returned value shares no slices with current.
func UpdateMemory(current MemorySummary, eval EvaluationBlock, question QuestionBlock, answerText string) MemorySummary {
	next := current.clone()
	if next.WeakSkills == nil {
		next.WeakSkills = []string{}
	}
	if next.StrongSkills == nil {
		next.StrongSkills = []string{}
	}

	next.QuestionCount = current.QuestionCount + 1
	next.LastScore = eval.OverallScore
	next.NeedsFollowup = eval.NeedsFollowup

	skill := question.Skill
	switch {
	case eval.OverallScore >= strongSkillScore:
		next.StrongSkills = addSkill(next.StrongSkills, skill)
		next.WeakSkills = removeSkill(next.WeakSkills, skill)
	case eval.OverallScore < weakSkillScore:
		next.WeakSkills = addSkill(next.WeakSkills, skill)
		next.StrongSkills = removeSkill(next.StrongSkills, skill)
	}

	next.Difficulty = NextDifficulty(current.Difficulty, eval.OverallScore)
	next.PrevAnswerSummary = SummarizeAnswer(answerText)
	return next
}

// NextDifficulty moves at most one tier: up on a score of 9 or more, down
// below 4.
func NextDifficulty(current Difficulty, score float64) Difficulty {
	switch {
	case score >= escalateScore:
		switch current {
		case DifficultyEasy:
			return DifficultyMedium
		case DifficultyMedium:
			return DifficultyHard
		}
	case score < deescalateScore:
		switch current {
		case DifficultyHard:
			return DifficultyMedium
		case DifficultyMedium:
			return DifficultyEasy
		}
	}
	if !current.Valid() {
		return DifficultyMedium
	}
	return current
}

// SummarizeAnswer keeps the first 30 words of text, joined by single
// spaces, with "..." appended when words were dropped.
func SummarizeAnswer(text string) string {
	words := strings.Fields(text)
	if len(words) <= summaryWords {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:summaryWords], " ") + "..."
}

func addSkill(skills []string, skill string) []string {
	if skill == "" || slices.Contains(skills, skill) {
		return skills
	}
	return append(skills, skill)
}

func removeSkill(skills []string, skill string) []string {
	return slices.DeleteFunc(skills, func(s string) bool { return s == skill })
}
