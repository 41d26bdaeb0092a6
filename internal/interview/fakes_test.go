package interview

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"
)

// memRepo stores sessions as JSON so every read returns a fresh copy and
// the serialized form is exercised on each turn.
type memRepo struct {
	mu       sync.Mutex
	sessions map[string][]byte
	updates  int
	failNext error
}

func newMemRepo() *memRepo {
	return &memRepo{sessions: map[string][]byte{}}
}

func (r *memRepo) CreateSession(_ context.Context, s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.ID]; ok {
		return fmt.Errorf("session %s already exists", s.ID)
	}
	s.Version = 1
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	r.sessions[s.ID] = b
	return nil
}

func (r *memRepo) GetSession(_ context.Context, id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.sessions[id]
	if !ok {
		return nil, &Error{Kind: KindNotFound, Op: "get session", Message: "session " + id + " not found"}
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *memRepo) UpdateSession(_ context.Context, s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failNext; err != nil {
		r.failNext = nil
		return err
	}
	b, ok := r.sessions[s.ID]
	if !ok {
		return &Error{Kind: KindNotFound, Op: "update session", Message: "session " + s.ID + " not found"}
	}
	var stored Session
	if err := json.Unmarshal(b, &stored); err != nil {
		return err
	}
	if stored.Version != s.Version {
		return &Error{Kind: KindConcurrency, Op: "update session", Message: "version mismatch"}
	}
	s.Version++
	nb, err := json.Marshal(s)
	if err != nil {
		return err
	}
	r.sessions[s.ID] = nb
	r.updates++
	return nil
}

func (r *memRepo) ListSessions(ctx context.Context, userID string) ([]*Session, error) {
	r.mu.Lock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	var out []*Session
	for _, id := range ids {
		s, err := r.GetSession(ctx, id)
		if err != nil {
			return nil, err
		}
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memRepo) updateCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updates
}

// fakeQuestions writes a deterministic question for whatever category is
// requested and records each request.
type fakeQuestions struct {
	mu       sync.Mutex
	requests []QuestionRequest
	err      error
	mutate   func(*QuestionBlock)
}

func (f *fakeQuestions) Generate(_ context.Context, req QuestionRequest) (QuestionBlock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return QuestionBlock{}, f.err
	}
	skill := "general"
	if len(req.Role.Skills) > 0 {
		skill = req.Role.Skills[(req.Index-1)%len(req.Role.Skills)]
	}
	b := QuestionBlock{
		Intro:      "Next up.",
		Question:   fmt.Sprintf("Question %d about %s?", req.Index, skill),
		Skill:      skill,
		Difficulty: req.Memory.Difficulty,
		Category:   req.Category,
	}
	if f.mutate != nil {
		f.mutate(&b)
	}
	return b, nil
}

func (f *fakeQuestions) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// fakeEvaluator returns queued evaluations in order, then the last one.
type fakeEvaluator struct {
	mu      sync.Mutex
	queue   []EvaluationBlock
	err     error
	count   int
	answers []string
}

func (f *fakeEvaluator) Evaluate(_ context.Context, _ QuestionBlock, _ Rubric, answer string) (EvaluationBlock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count++
	f.answers = append(f.answers, answer)
	if f.err != nil {
		return EvaluationBlock{}, f.err
	}
	if len(f.queue) == 0 {
		return scored(7), nil
	}
	e := f.queue[0]
	if len(f.queue) > 1 {
		f.queue = f.queue[1:]
	}
	return e, nil
}

func (f *fakeEvaluator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

type fakeFeedback struct {
	count int
	err   error
}

func (f *fakeFeedback) Generate(_ context.Context, q QuestionBlock, _ string, _ EvaluationBlock) (FeedbackBlock, error) {
	f.count++
	if f.err != nil {
		return FeedbackBlock{}, f.err
	}
	return FeedbackBlock{
		IdealAnswer:     "An ideal answer to: " + q.Question,
		Mistakes:        []string{"too vague"},
		ImprovementTips: []string{"give an example"},
	}, nil
}

type fakeNarrator struct {
	count int
	last  NarrationInput
	err   error
}

func (f *fakeNarrator) Narrate(_ context.Context, in NarrationInput) (Narrative, error) {
	f.count++
	f.last = in
	if f.err != nil {
		return Narrative{}, f.err
	}
	return Narrative{
		Summary:         "Solid fundamentals.",
		Strengths:       []string{"communication"},
		WeakAreas:       []string{"depth"},
		Recommendations: []string{"practice system design"},
	}, nil
}

type fakeRoles struct {
	roles map[string]*SavedRole
	usage map[string]int
}

func (f *fakeRoles) GetRole(_ context.Context, id string) (*SavedRole, error) {
	r, ok := f.roles[id]
	if !ok {
		return nil, &Error{Kind: KindNotFound, Op: "get role", Message: "role " + id + " not found"}
	}
	return r, nil
}

func (f *fakeRoles) IncrementRoleUsage(_ context.Context, id string) error {
	if f.usage == nil {
		f.usage = map[string]int{}
	}
	f.usage[id]++
	return nil
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func scored(overall float64) EvaluationBlock {
	return EvaluationBlock{
		Scores:       Scores{Correctness: 3, Clarity: 2, Depth: 2, Relevance: 1},
		OverallScore: overall,
		Weaknesses:   []string{},
		Notes:        fmt.Sprintf("scored %v", overall),
	}
}

func testRole() RoleBlock {
	return RoleBlock{
		RoleName:       "Backend Engineer",
		Skills:         []string{"go", "sql"},
		Difficulty:     DifficultyMedium,
		Rubric:         Rubric{Correctness: 4, Clarity: 2, Depth: 2, Relevance: 2},
		Categories:     []Category{CategoryTechnical, CategoryBehavioral},
		TotalQuestions: 5,
	}
}

const longAnswer = "I would use a buffered channel to decouple producers from consumers here"

type harness struct {
	svc       *Service
	repo      *memRepo
	questions *fakeQuestions
	evaluator *fakeEvaluator
	feedback  *fakeFeedback
	narrator  *fakeNarrator
	roles     *fakeRoles
	clock     *fakeClock
}

func newHarness(opts ...Option) *harness {
	h := &harness{
		repo:      newMemRepo(),
		questions: &fakeQuestions{},
		evaluator: &fakeEvaluator{},
		feedback:  &fakeFeedback{},
		narrator:  &fakeNarrator{},
		roles:     &fakeRoles{roles: map[string]*SavedRole{}},
		clock:     newFakeClock(),
	}
	n := 0
	all := append([]Option{
		WithClock(h.clock.Now),
		WithIDGenerator(func() string { n++; return fmt.Sprintf("sess-%d", n) }),
	}, opts...)
	h.svc = NewService(Deps{
		Repo:      h.repo,
		Roles:     h.roles,
		Questions: h.questions,
		Evaluator: h.evaluator,
		Feedback:  h.feedback,
		Narrator:  h.narrator,
	}, all...)
	return h
}
