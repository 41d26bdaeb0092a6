package interview

import "time"

// DistributeTargets splits total across categories as evenly as possible.
// The remainder goes to the first categories in listed order, so the
// targets always sum to total.
func DistributeTargets(categories []Category, total int) QuestionTypeTarget {
	target := make(QuestionTypeTarget, len(categories))
	if len(categories) == 0 || total <= 0 {
		return target
	}
	base := total / len(categories)
	extra := total % len(categories)
	for i, c := range categories {
		target[c] = base
		if i < extra {
			target[c]++
		}
	}
	return target
}

// Remaining returns how many questions category c still needs.
func Remaining(target QuestionTypeTarget, asked AskedTypeCount, c Category) int {
	return target[c] - asked[c]
}

// SelectNextCategory picks the category with the strictly largest
// remaining count. Ties go to the category listed first in order. When
// nothing remains it returns DefaultCategory. It does not mutate its
// inputs.
func SelectNextCategory(order []Category, target QuestionTypeTarget, asked AskedTypeCount) Category {
	best := Category("")
	bestRemaining := 0
	for _, c := range order {
		if r := Remaining(target, asked, c); r > bestRemaining {
			best, bestRemaining = c, r
		}
	}
	if best == "" {
		return DefaultCategory
	}
	return best
}

// CommitQuestion records a generated question on the session: it becomes
// the pending question and its category's asked count goes up by one.
// Callers invoke it only after generation succeeded.
func CommitQuestion(s *Session, block QuestionBlock, now time.Time) {
	if s.Asked == nil {
		s.Asked = AskedTypeCount{}
	}
	s.Asked[block.Category]++
	s.Pending = PendingQuestion{Block: block, IssuedAt: now}
}
