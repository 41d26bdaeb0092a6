package interview

import "time"

// NewSession creates an in-progress session for role.
func NewSession(id, userID string, role RoleBlock, now time.Time) *Session {
	return &Session{
		ID:        id,
		UserID:    userID,
		Role:      role.clone(),
		Status:    StatusInProgress,
		Memory:    InitialMemory(),
		History:   []QAEntry{},
		Targets:   DistributeTargets(role.Categories, role.TotalQuestions),
		Asked:     AskedTypeCount{},
		Pending:   NoPendingQuestion{},
		Bookmarks: []Bookmark{},
		StartedAt: now,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Pause stops the interview clock. Only an in-progress session can pause.
func (s *Session) Pause(now time.Time) error {
	if s.Status != StatusInProgress {
		return errorf(KindInvalidTransition, "pause", "cannot pause an interview that is %s", s.Status)
	}
	t := now
	s.Status = StatusPaused
	s.PausedAt = &t
	s.PauseCount++
	return nil
}

// Resume restarts the clock and adds the paused span to the total.
func (s *Session) Resume(now time.Time) error {
	if s.Status != StatusPaused {
		return errorf(KindInvalidTransition, "resume", "cannot resume an interview that is %s", s.Status)
	}
	s.closePause(now)
	s.Status = StatusInProgress
	return nil
}

// Complete ends the interview. An open pause is closed first so elapsed
// time stays consistent. Completed is terminal.
func (s *Session) Complete(now time.Time) error {
	switch s.Status {
	case StatusInProgress:
	case StatusPaused:
		s.closePause(now)
	default:
		return errorf(KindInvalidTransition, "complete", "cannot complete an interview that is %s", s.Status)
	}
	t := now
	s.Status = StatusCompleted
	s.CompletedAt = &t
	s.Pending = NoPendingQuestion{}
	return nil
}

func (s *Session) closePause(now time.Time) {
	if s.PausedAt != nil {
		s.PauseDurationSeconds += TimeSpent(*s.PausedAt, now)
	}
	s.PausedAt = nil
}

// ElapsedSeconds is the active interview time: completion (or now) minus
// start, minus time spent paused, never negative. A pause still open
// counts as paused.
func (s *Session) ElapsedSeconds(now time.Time) int64 {
	end := now
	if s.CompletedAt != nil {
		end = *s.CompletedAt
	}
	paused := s.PauseDurationSeconds
	if s.Status == StatusPaused && s.PausedAt != nil {
		paused += TimeSpent(*s.PausedAt, end)
	}
	elapsed := TimeSpent(s.StartedAt, end) - paused
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// IsComplete reports whether every planned question has been answered.
func (s *Session) IsComplete() bool {
	return s.CurrentQuestionNumber >= s.Role.TotalQuestions
}
