package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/abhisek/mockprep/internal/lock"
	"github.com/abhisek/mockprep/internal/metrics"
)

const tracerName = "github.com/abhisek/mockprep/internal/interview"

// Deps are the collaborators a Service needs. Roles is optional; without
// it StartFromSavedRole reports NotFound.
type Deps struct {
	Repo      Repository
	Roles     RoleSource
	Questions QuestionGenerator
	Evaluator AnswerEvaluator
	Feedback  FeedbackGenerator
	Narrator  ReportNarrator
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(c Clock) Option { return func(s *Service) { s.clock = c } }

// WithLocker replaces the in-process per-session lock.
func WithLocker(l Locker) Option { return func(s *Service) { s.locker = l } }

// WithLogger sets the structured logger.
func WithLogger(l *zap.Logger) Option { return func(s *Service) { s.logger = l } }

// WithIDGenerator replaces the UUID session id generator.
func WithIDGenerator(f func() string) Option { return func(s *Service) { s.newID = f } }

// WithTracer sets the tracer used for operation spans.
func WithTracer(t trace.Tracer) Option { return func(s *Service) { s.tracer = t } }

// Service is the interview orchestrator. Every mutating operation holds
// the session's lock for its whole duration and commits through the
// repository's version check.
type Service struct {
	deps   Deps
	clock  Clock
	locker Locker
	logger *zap.Logger
	newID  func() string
	tracer trace.Tracer
}

// NewService creates an orchestrator.
func NewService(deps Deps, opts ...Option) *Service {
	s := &Service{
		deps:   deps,
		clock:  time.Now,
		locker: lock.NewLocal(),
		logger: zap.NewNop(),
		newID:  uuid.NewString,
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NextQuestion is the result of SelectNextQuestion. When Complete is set
// every planned question has been answered and Question is empty.
type NextQuestion struct {
	Question QuestionBlock `json:"question"`
	Number   int           `json:"question_number"`
	Total    int           `json:"total_questions"`
	Complete bool          `json:"complete"`
}

// TurnResult is the outcome of SubmitAnswer.
type TurnResult struct {
	Evaluation EvaluationBlock `json:"evaluation"`
	Entry      QAEntry         `json:"entry"`
	AutoFailed bool            `json:"auto_failed"`
	// Complete is set once the last planned question has been answered.
	Complete bool `json:"complete"`
}

// errUnchanged tells mutate to skip the write.
var errUnchanged = errors.New("unchanged")

func (s *Service) now() time.Time { return s.clock().UTC() }

// StartInterview creates a session for role and returns its id.
func (s *Service) StartInterview(ctx context.Context, userID string, role RoleBlock) (string, error) {
	const op = "start interview"
	ctx, span := s.tracer.Start(ctx, op)
	defer span.End()

	if strings.TrimSpace(userID) == "" {
		return "", ValidationError(op, map[string]string{"user_id": "is required"})
	}
	role = role.Normalize()
	if err := role.Validate(); err != nil {
		return "", endSpan(span, err)
	}

	now := s.now()
	sess := NewSession(s.newID(), userID, role, now)
	span.SetAttributes(attribute.String("session.id", sess.ID))
	if err := s.deps.Repo.CreateSession(ctx, sess); err != nil {
		return "", endSpan(span, fmt.Errorf("%s: %w", op, err))
	}

	metrics.InterviewsStarted.Inc()
	s.logger.Info("interview started",
		zap.String("session_id", sess.ID),
		zap.String("user_id", userID),
		zap.String("role", role.RoleName),
		zap.Int("total_questions", role.TotalQuestions),
	)
	return sess.ID, nil
}

// StartFromSavedRole starts an interview from a saved role and bumps the
// role's usage counter. Private roles are visible only to their creator.
func (s *Service) StartFromSavedRole(ctx context.Context, userID, roleID string) (string, error) {
	const op = "start from saved role"
	if s.deps.Roles == nil {
		return "", errorf(KindNotFound, op, "role %s not found", roleID)
	}
	saved, err := s.deps.Roles.GetRole(ctx, roleID)
	if err != nil {
		return "", err
	}
	if !saved.Public && saved.CreatorID != userID {
		return "", errorf(KindNotFound, op, "role %s not found", roleID)
	}

	id, err := s.StartInterview(ctx, userID, saved.Role)
	if err != nil {
		return "", err
	}
	if err := s.deps.Roles.IncrementRoleUsage(ctx, roleID); err != nil {
		s.logger.Warn("failed to increment role usage", zap.String("role_id", roleID), zap.Error(err))
	}
	return id, nil
}

// Get returns a session by id.
func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	return s.deps.Repo.GetSession(ctx, id)
}

// List returns a user's sessions, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]*Session, error) {
	return s.deps.Repo.ListSessions(ctx, userID)
}

// Export returns the flattened view of a session.
func (s *Service) Export(ctx context.Context, id string) (Export, error) {
	sess, err := s.deps.Repo.GetSession(ctx, id)
	if err != nil {
		return Export{}, err
	}
	return BuildExport(sess, s.now()), nil
}

// SelectNextQuestion returns the question the candidate should answer
// next. An outstanding question is returned again rather than replaced.
// Otherwise the scheduler picks a category, the generator writes the
// question, and the session records it.
func (s *Service) SelectNextQuestion(ctx context.Context, id string) (NextQuestion, error) {
	const op = "select next question"
	var out NextQuestion

	_, err := s.mutate(ctx, op, id, func(ctx context.Context, sess *Session) error {
		out.Total = sess.Role.TotalQuestions

		if sess.Status == StatusCompleted {
			out.Complete = true
			out.Number = sess.CurrentQuestionNumber
			return errUnchanged
		}
		if sess.Status == StatusPaused {
			return errorf(KindInvalidTransition, op, "interview is paused; resume it first")
		}
		if p, ok := sess.PendingQuestion(); ok {
			out.Question = p.Block
			out.Number = sess.CurrentQuestionNumber + 1
			return errUnchanged
		}
		if sess.IsComplete() {
			out.Complete = true
			out.Number = sess.CurrentQuestionNumber
			return errUnchanged
		}

		category := SelectNextCategory(sess.Role.Categories, sess.Targets, sess.Asked)
		req := QuestionRequest{
			Role:     sess.Role,
			Memory:   sess.Memory,
			Category: category,
			Index:    sess.CurrentQuestionNumber + 1,
		}
		if n := len(sess.History); n > 0 {
			last := sess.History[n-1]
			req.LastQA = &last
		}

		block, err := s.deps.Questions.Generate(ctx, req)
		if err != nil {
			return asExternal(op, KindQuestionGeneration, "question generation failed", err)
		}
		if err := checkQuestion(block, category); err != nil {
			return err
		}
		if !block.Difficulty.Valid() {
			block.Difficulty = sess.Memory.Difficulty
		}

		CommitQuestion(sess, block, s.now())
		out.Question = block
		out.Number = sess.CurrentQuestionNumber + 1
		metrics.QuestionsIssued.WithLabelValues(string(category)).Inc()
		return nil
	})
	if err != nil {
		return NextQuestion{}, err
	}
	return out, nil
}

func checkQuestion(block QuestionBlock, want Category) error {
	const op = "select next question"
	fields := map[string]string{}
	if strings.TrimSpace(block.Question) == "" {
		fields["question"] = "is empty"
	}
	if strings.TrimSpace(block.Skill) == "" {
		fields["skill"] = "is empty"
	}
	if block.Category != want {
		fields["category"] = fmt.Sprintf("got %q, requested %q", block.Category, want)
	}
	if len(fields) == 0 {
		return nil
	}
	return &Error{
		Kind:    KindQuestionGeneration,
		Op:      op,
		Message: "the generated question was malformed",
		Fields:  fields,
	}
}

// SubmitAnswer evaluates the answer to the outstanding question and
// commits the turn. Either the whole turn is stored or nothing is.
func (s *Service) SubmitAnswer(ctx context.Context, id string, in SubmitInput) (TurnResult, error) {
	const op = "submit answer"
	var out TurnResult

	_, err := s.mutate(ctx, op, id, func(ctx context.Context, sess *Session) error {
		if sess.Status == StatusCompleted {
			return errorf(KindInterviewComplete, op, "interview is already complete")
		}
		eval, entry, err := EvaluateAnswer(ctx, sess, s.deps.Evaluator, in, s.now())
		if err != nil {
			return err
		}
		ApplyTurn(sess, entry)

		out = TurnResult{
			Evaluation: eval,
			Entry:      entry,
			AutoFailed: IsAutoFail(entry.AnswerText),
			Complete:   sess.IsComplete(),
		}
		return nil
	})
	if err != nil {
		return TurnResult{}, err
	}

	outcome := "scored"
	if out.AutoFailed {
		outcome = "auto_fail"
	}
	metrics.AnswersEvaluated.WithLabelValues(outcome).Inc()
	s.logger.Info("answer evaluated",
		zap.String("session_id", id),
		zap.Int("question_number", out.Entry.QuestionNumber),
		zap.Float64("overall_score", out.Evaluation.OverallScore),
		zap.Bool("auto_failed", out.AutoFailed),
	)
	return out, nil
}

// RequestFeedback returns coaching for answered question n, generating it
// on first request only.
func (s *Service) RequestFeedback(ctx context.Context, id string, n int) (FeedbackBlock, error) {
	const op = "request feedback"
	var out FeedbackBlock

	_, err := s.mutate(ctx, op, id, func(ctx context.Context, sess *Session) error {
		entry, ok := sess.Entry(n)
		if !ok {
			return errorf(KindNotFound, op, "question %d has not been answered", n)
		}
		if entry.Feedback != nil {
			out = *entry.Feedback
			return errUnchanged
		}

		fb, err := s.deps.Feedback.Generate(ctx, entry.Question, entry.AnswerText, entry.Evaluation)
		if err != nil {
			return asExternal(op, KindExternalService, "feedback generation failed", err)
		}
		entry.Feedback = &fb
		out = fb
		return nil
	})
	if err != nil {
		return FeedbackBlock{}, err
	}
	return out, nil
}

// Pause stops the interview clock.
func (s *Service) Pause(ctx context.Context, id string) (*Session, error) {
	return s.mutate(ctx, "pause", id, func(_ context.Context, sess *Session) error {
		return sess.Pause(s.now())
	})
}

// Resume restarts the interview clock.
func (s *Service) Resume(ctx context.Context, id string) (*Session, error) {
	return s.mutate(ctx, "resume", id, func(_ context.Context, sess *Session) error {
		return sess.Resume(s.now())
	})
}

// FinalizeReport builds the final report once and completes the session.
// Later calls return the stored report without calling the narrator.
func (s *Service) FinalizeReport(ctx context.Context, id string) (FinalReport, error) {
	const op = "finalize report"
	var out FinalReport
	var created bool

	_, err := s.mutate(ctx, op, id, func(ctx context.Context, sess *Session) error {
		if sess.FinalReport != nil {
			out = *sess.FinalReport
			return errUnchanged
		}
		if len(sess.History) == 0 {
			return errorf(KindNoAnswersYet, op, "answer at least one question before requesting a report")
		}

		now := s.now()
		skillScores, overall := AggregateScores(sess.History)
		narrative, err := s.deps.Narrator.Narrate(ctx, NarrationInput{
			Role:          sess.Role,
			Statistics:    BuildStatistics(sess.History, sess.ElapsedSeconds(now)),
			SkillAverages: skillScores,
			Notes:         CollectNotes(sess.History),
			Memory:        sess.Memory,
		})
		if err != nil {
			return asExternal(op, KindExternalService, "report generation failed", err)
		}

		report := BuildReport(narrative, skillScores, overall)
		sess.FinalReport = &report
		if err := sess.Complete(now); err != nil {
			return err
		}
		out = report
		created = true
		return nil
	})
	if err != nil {
		return FinalReport{}, err
	}
	if created {
		metrics.InterviewsCompleted.Inc()
		s.logger.Info("interview completed",
			zap.String("session_id", id),
			zap.Int("overall_performance", out.OverallPerformance),
		)
	}
	return out.clone(), nil
}

// Bookmark marks answered question n with an optional note. Bookmarking
// the same question again replaces the note.
func (s *Service) Bookmark(ctx context.Context, id string, n int, note string) (Bookmark, error) {
	const op = "bookmark"
	var out Bookmark

	_, err := s.mutate(ctx, op, id, func(_ context.Context, sess *Session) error {
		entry, ok := sess.Entry(n)
		if !ok {
			return errorf(KindNotFound, op, "question %d has not been answered", n)
		}
		b := Bookmark{
			QuestionNumber: n,
			Question:       entry.Question.Question,
			Answer:         entry.AnswerText,
			Note:           strings.TrimSpace(note),
			BookmarkedAt:   s.now(),
		}
		for i := range sess.Bookmarks {
			if sess.Bookmarks[i].QuestionNumber == n {
				sess.Bookmarks[i] = b
				out = b
				return nil
			}
		}
		sess.Bookmarks = append(sess.Bookmarks, b)
		out = b
		return nil
	})
	if err != nil {
		return Bookmark{}, err
	}
	return out, nil
}

// Unbookmark removes the bookmark on question n. Removing a bookmark that
// does not exist is a no-op.
func (s *Service) Unbookmark(ctx context.Context, id string, n int) error {
	_, err := s.mutate(ctx, "unbookmark", id, func(_ context.Context, sess *Session) error {
		for i := range sess.Bookmarks {
			if sess.Bookmarks[i].QuestionNumber == n {
				sess.Bookmarks = append(sess.Bookmarks[:i], sess.Bookmarks[i+1:]...)
				return nil
			}
		}
		return errUnchanged
	})
	return err
}

// mutate runs fn on a copy of the session under the session lock and
// stores the copy with a version check. If fn fails nothing is stored.
func (s *Service) mutate(ctx context.Context, op, id string, fn func(context.Context, *Session) error) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, op, trace.WithAttributes(attribute.String("session.id", id)))
	defer span.End()

	unlock, err := s.locker.Lock(ctx, id)
	if err != nil {
		metrics.LockConflicts.Inc()
		return nil, endSpan(span, asConflict(op, err))
	}
	defer unlock()

	current, err := s.deps.Repo.GetSession(ctx, id)
	if err != nil {
		return nil, endSpan(span, err)
	}

	next := current.Clone()
	if err := fn(ctx, next); err != nil {
		if errors.Is(err, errUnchanged) {
			return current, nil
		}
		s.logger.Debug("operation rejected",
			zap.String("op", op),
			zap.String("session_id", id),
			zap.String("kind", string(KindOf(err))),
			zap.Error(err),
		)
		return nil, endSpan(span, err)
	}

	next.UpdatedAt = s.now()
	if err := s.deps.Repo.UpdateSession(ctx, next); err != nil {
		if IsKind(err, KindConcurrency) {
			metrics.LockConflicts.Inc()
		}
		return nil, endSpan(span, err)
	}
	return next, nil
}

func asConflict(op string, err error) error {
	if KindOf(err) != "" {
		return err
	}
	return newError(KindConcurrency, op, "the interview is being updated by another request; retry", err)
}

func endSpan(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if k := KindOf(err); k != "" {
		span.SetAttributes(attribute.String("error.kind", string(k)))
	}
	return err
}
