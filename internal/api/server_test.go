package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/mockprep/internal/coaching"
	"github.com/abhisek/mockprep/internal/evaluation"
	"github.com/abhisek/mockprep/internal/interview"
	"github.com/abhisek/mockprep/internal/llm"
	"github.com/abhisek/mockprep/internal/questiongen"
	"github.com/abhisek/mockprep/internal/resume"
	"github.com/abhisek/mockprep/internal/store"
	"github.com/abhisek/mockprep/internal/transcribe"
)

const testSecret = "test-secret"

// scriptedLLM answers every structured request by schema name.
func scriptedLLM(req llm.Request) llm.MockResponse {
	name := req.Schema.Name
	var body string
	switch {
	case strings.HasPrefix(name, "interview-question-"):
		cat := strings.TrimPrefix(name, "interview-question-")
		body = fmt.Sprintf(`{"intro":"Next one.","question":"Describe a %s challenge you solved.","skill":"go","difficulty":"medium","category":%q}`, cat, cat)
	case name == evaluation.EvaluationSchema.Name:
		body = `{"scores":{"correctness":3,"clarity":2,"depth":1,"relevance":2},"overall_score":8,"weaknesses":["brief"],"notes":"good","needs_followup":false,"followup_reason":""}`
	case name == coaching.FeedbackSchema.Name:
		body = `{"ideal_answer":"Mention trade-offs.","mistakes":["no numbers"],"improvement_tips":["quantify impact"]}`
	case name == coaching.ReportSchema.Name:
		body = `{"summary":"Well done.","strengths":["clarity"],"weak_areas":["depth"],"recommendations":["practice"]}`
	case name == questiongen.RoleSchema.Name:
		body = `{"role_name":"Platform Engineer","skills":["go","kubernetes"],"difficulty":"medium","evaluation_rubric":{"correctness":4,"clarity":2,"depth":2,"relevance":2},"context_notes":""}`
	default:
		return llm.MockResponse{Err: fmt.Errorf("unexpected schema %q", name)}
	}
	return llm.MockResponse{Content: json.RawMessage(body)}
}

// sessionRecorder remembers which interview each LLM call was made for.
type sessionRecorder struct {
	llm.Provider
	mu       sync.Mutex
	sessions []string
}

func (r *sessionRecorder) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	r.mu.Lock()
	r.sessions = append(r.sessions, llm.SessionFrom(ctx))
	r.mu.Unlock()
	return r.Provider.Generate(ctx, req)
}

type fakeTranscriber struct{ got []byte }

func (f *fakeTranscriber) Transcribe(_ context.Context, filename string, audio []byte) (string, error) {
	f.got = audio
	return "transcribed " + filename, nil
}

type harness struct {
	t        *testing.T
	server   *httptest.Server
	auth     *Auth
	recorder *sessionRecorder
	audio    *fakeTranscriber
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	st, err := store.Open(store.DriverSQLite, fmt.Sprintf("file:api_%d?mode=memory&cache=shared", time.Now().UnixNano()))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	mock := llm.NewMockProvider()
	mock.Fallback = scriptedLLM
	rec := &sessionRecorder{Provider: mock}

	logger := zaptest.NewLogger(t)
	svc := interview.NewService(interview.Deps{
		Repo:      st.Sessions(),
		Roles:     st.Roles(),
		Questions: questiongen.New(rec, questiongen.DefaultConfig()),
		Evaluator: evaluation.New(rec, evaluation.DefaultConfig()),
		Feedback:  coaching.NewFeedbackService(rec, coaching.DefaultConfig()),
		Narrator:  coaching.NewReportNarrator(rec, coaching.DefaultReportConfig()),
	}, interview.WithLogger(logger))

	audio := &fakeTranscriber{}
	auth := NewAuth(testSecret, "mockprep", time.Hour)
	srv := New(Deps{
		Interviews:  svc,
		Roles:       st.Roles(),
		Architect:   questiongen.NewRoleArchitect(rec, questiongen.DefaultRoleConfig()),
		Resumes:     resume.Extractor{},
		Transcriber: transcribe.NewService(audio, logger),
		Auth:        auth,
		Health:      st.Ping,
		Logger:      logger,
	})
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	return &harness{t: t, server: ts, auth: auth, recorder: rec, audio: audio}
}

func (h *harness) token(user string) string {
	tok, err := h.auth.Issue(user, time.Now())
	require.NoError(h.t, err)
	return tok
}

// do sends a JSON request as user and decodes the JSON response into out
// when out is non-nil.
func (h *harness) do(user, method, path string, body any, out any) *http.Response {
	h.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(h.t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, h.server.URL+path, rd)
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+h.token(user))
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(h.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	if out != nil && len(raw) > 0 {
		require.NoError(h.t, json.Unmarshal(raw, out), "body: %s", raw)
	}
	resp.Body = io.NopCloser(bytes.NewReader(raw))
	return resp
}

func testRoleBlock(total int) interview.RoleBlock {
	return interview.RoleBlock{
		RoleName:       "Backend Engineer",
		Skills:         []string{"go", "sql"},
		Difficulty:     interview.DifficultyMedium,
		Rubric:         interview.Rubric{Correctness: 4, Clarity: 2, Depth: 2, Relevance: 2},
		Categories:     []interview.Category{interview.CategoryTechnical, interview.CategoryBehavioral},
		TotalQuestions: total,
	}
}

const goodAnswer = "I profiled the service with pprof and removed an allocation hot path in the JSON encoder"

func (h *harness) start(user string, total int) string {
	h.t.Helper()
	var out struct {
		InterviewID string `json:"interview_id"`
	}
	resp := h.do(user, http.MethodPost, "/api/interviews", map[string]any{"role_block": testRoleBlock(total)}, &out)
	require.Equal(h.t, http.StatusCreated, resp.StatusCode)
	require.NotEmpty(h.t, out.InterviewID)
	return out.InterviewID
}

func TestInterviewFlow(t *testing.T) {
	h := newHarness(t)
	id := h.start("alice", 2)
	base := "/api/interviews/" + id

	for i := 1; i <= 2; i++ {
		var next interview.NextQuestion
		resp := h.do("alice", http.MethodPost, base+"/questions/next", nil, &next)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, i, next.Number)
		assert.False(t, next.Complete)
		assert.NotEmpty(t, next.Question.Question)

		var turn interview.TurnResult
		resp = h.do("alice", http.MethodPost, base+"/answers", map[string]any{
			"answer_text":         goodAnswer,
			"question_started_at": time.Now().Add(-30 * time.Second),
		}, &turn)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, 8.0, turn.Evaluation.OverallScore)
		assert.Equal(t, i, turn.Entry.QuestionNumber)
		assert.GreaterOrEqual(t, turn.Entry.TimeSpentSeconds, int64(29))
	}

	var next interview.NextQuestion
	h.do("alice", http.MethodPost, base+"/questions/next", nil, &next)
	assert.True(t, next.Complete)

	var fb struct {
		Feedback interview.FeedbackBlock `json:"feedback"`
	}
	resp := h.do("alice", http.MethodPost, base+"/feedback/1", nil, &fb)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Mention trade-offs.", fb.Feedback.IdealAnswer)

	var bm interview.Bookmark
	resp = h.do("alice", http.MethodPost, base+"/bookmarks", map[string]any{"question_number": 2, "note": "revisit"}, &bm)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, goodAnswer, bm.Answer)
	resp = h.do("alice", http.MethodDelete, base+"/bookmarks/2", nil, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	var rep struct {
		Report interview.FinalReport `json:"report"`
	}
	resp = h.do("alice", http.MethodPost, base+"/report", nil, &rep)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 8, rep.Report.OverallPerformance)
	assert.Equal(t, map[string]int{"go": 8}, rep.Report.SkillScores)
	assert.Equal(t, "Well done.", rep.Report.Summary)

	var sess struct {
		Status string `json:"status"`
	}
	h.do("alice", http.MethodGet, base, nil, &sess)
	assert.Equal(t, "completed", sess.Status)

	resp = h.do("alice", http.MethodGet, base+"/export?format=yaml", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/yaml", resp.Header.Get("Content-Type"))
	var exp map[string]any
	raw, _ := io.ReadAll(resp.Body)
	require.NoError(t, yaml.Unmarshal(raw, &exp))
	assert.Equal(t, id, exp["interview_id"])

	var list struct {
		Interviews []json.RawMessage `json:"interviews"`
	}
	h.do("alice", http.MethodGet, "/api/interviews", nil, &list)
	assert.Len(t, list.Interviews, 1)

	h.recorder.mu.Lock()
	defer h.recorder.mu.Unlock()
	require.NotEmpty(t, h.recorder.sessions)
	for _, s := range h.recorder.sessions {
		assert.Equal(t, id, s, "every LLM call is tagged with the interview id")
	}
}

func TestErrorMapping(t *testing.T) {
	h := newHarness(t)
	id := h.start("alice", 2)

	tests := []struct {
		name   string
		user   string
		method string
		path   string
		body   any
		status int
		kind   string
	}{
		{"answer without question", "alice", http.MethodPost, "/api/interviews/" + id + "/answers",
			map[string]any{"answer_text": goodAnswer}, http.StatusConflict, string(interview.KindNoActiveQuestion)},
		{"report before answers", "alice", http.MethodPost, "/api/interviews/" + id + "/report",
			nil, http.StatusConflict, string(interview.KindNoAnswersYet)},
		{"feedback for unanswered", "alice", http.MethodPost, "/api/interviews/" + id + "/feedback/1",
			nil, http.StatusNotFound, string(interview.KindNotFound)},
		{"someone else's interview", "bob", http.MethodGet, "/api/interviews/" + id,
			nil, http.StatusNotFound, string(interview.KindNotFound)},
		{"unknown interview", "alice", http.MethodPost, "/api/interviews/nope/questions/next",
			nil, http.StatusNotFound, string(interview.KindNotFound)},
		{"bad pause action", "alice", http.MethodPatch, "/api/interviews/" + id + "/pause",
			map[string]any{"action": "stop"}, http.StatusUnprocessableEntity, string(interview.KindValidation)},
		{"no role", "alice", http.MethodPost, "/api/interviews",
			map[string]any{}, http.StatusUnprocessableEntity, string(interview.KindValidation)},
		{"bad export format", "alice", http.MethodGet, "/api/interviews/" + id + "/export?format=xml",
			nil, http.StatusUnprocessableEntity, string(interview.KindValidation)},
		{"no token", "", http.MethodGet, "/api/interviews",
			nil, http.StatusUnauthorized, "unauthorized"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body errorBody
			resp := h.do(tt.user, tt.method, tt.path, tt.body, &body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.kind, body.Error.Kind)
			assert.NotEmpty(t, body.Error.Message)
		})
	}
}

func TestInvalidRoleReportsFields(t *testing.T) {
	h := newHarness(t)
	role := testRoleBlock(0)
	role.Skills = nil

	var body errorBody
	resp := h.do("alice", http.MethodPost, "/api/interviews", map[string]any{"role_block": role}, &body)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body.Error.Fields, "skills")
	assert.Contains(t, body.Error.Fields, "total_questions")
}

func TestPauseResume(t *testing.T) {
	h := newHarness(t)
	id := h.start("alice", 1)
	path := "/api/interviews/" + id + "/pause"

	var out struct {
		Status     string `json:"status"`
		PauseCount int    `json:"pause_count"`
	}
	resp := h.do("alice", http.MethodPatch, path, map[string]string{"action": "pause"}, &out)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "paused", out.Status)
	assert.Equal(t, 1, out.PauseCount)

	var errOut errorBody
	resp = h.do("alice", http.MethodPatch, path, map[string]string{"action": "pause"}, &errOut)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = h.do("alice", http.MethodPatch, path, map[string]string{"action": "resume"}, &out)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "in_progress", out.Status)
}

func TestSavedRoles(t *testing.T) {
	h := newHarness(t)

	var created store.Role
	resp := h.do("alice", http.MethodPost, "/api/roles", map[string]any{
		"title":      "Private backend",
		"role_block": testRoleBlock(3),
		"visibility": "private",
	}, &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NotEmpty(t, created.ID)

	var list struct {
		Roles []store.Role `json:"roles"`
	}
	h.do("bob", http.MethodGet, "/api/roles", nil, &list)
	assert.Empty(t, list.Roles, "private roles are hidden from others")

	var body errorBody
	resp = h.do("bob", http.MethodPatch, "/api/roles/"+created.ID, map[string]any{"visibility": "public"}, &body)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, string(interview.KindForbidden), body.Error.Kind)
	resp = h.do("alice", http.MethodPatch, "/api/roles/"+created.ID, map[string]any{"visibility": "team"}, &body)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp = h.do("alice", http.MethodPatch, "/api/roles/missing", map[string]any{"visibility": "public"}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = h.do("alice", http.MethodPatch, "/api/roles/"+created.ID, map[string]any{"visibility": "public"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	h.do("bob", http.MethodGet, "/api/roles", nil, &list)
	require.Len(t, list.Roles, 1, "public roles are listed for everyone")
	resp = h.do("alice", http.MethodPatch, "/api/roles/"+created.ID, map[string]any{"visibility": "private"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body = errorBody{}

	resp = h.do("bob", http.MethodPost, "/api/interviews", map[string]any{"role_id": created.ID}, &body)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var started struct {
		InterviewID string `json:"interview_id"`
	}
	resp = h.do("alice", http.MethodPost, "/api/interviews", map[string]any{"role_id": created.ID}, &started)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	h.do("alice", http.MethodGet, "/api/roles", nil, &list)
	require.Len(t, list.Roles, 1)
	assert.Equal(t, int64(1), list.Roles[0].UsageCount)

	resp = h.do("bob", http.MethodDelete, "/api/roles/"+created.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = h.do("alice", http.MethodDelete, "/api/roles/"+created.ID, nil, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestGenerateRole(t *testing.T) {
	h := newHarness(t)

	var out struct {
		RoleBlock interview.RoleBlock `json:"role_block"`
	}
	resp := h.do("alice", http.MethodPost, "/api/roles/generate", map[string]any{
		"job_text":        "Platform engineer running Kubernetes",
		"interview_types": []string{"technical", "other"},
		"custom_type":     "Incident response",
		"question_count":  4,
	}, &out)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Platform Engineer", out.RoleBlock.RoleName)
	assert.Equal(t, []interview.Category{interview.CategoryTechnical, interview.CategoryCustom}, out.RoleBlock.Categories)
	assert.Equal(t, "Incident response", out.RoleBlock.CustomCategory)
	assert.Equal(t, 4, out.RoleBlock.TotalQuestions)
}

func multipartRequest(t *testing.T, url, token, field, filename, contentType string, data []byte, values map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range values {
		require.NoError(t, mw.WriteField(k, v))
	}
	hdr := make(map[string][]string)
	hdr["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename)}
	if contentType != "" {
		hdr["Content-Type"] = []string{contentType}
	}
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestGenerateRoleFromResume(t *testing.T) {
	h := newHarness(t)

	req := multipartRequest(t, h.server.URL+"/api/roles/generate-from-resume", h.token("alice"),
		"resume", "cv.txt", "text/plain", []byte("Jane Doe\nBuilt a Kubernetes operator in Go."),
		map[string]string{
			"role":             "Platform Engineer",
			"experience_level": "senior",
			"interview_types":  `["technical","behavioral"]`,
			"question_count":   "6",
		})
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		RoleBlock interview.RoleBlock `json:"role_block"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, 6, out.RoleBlock.TotalQuestions)
	assert.Len(t, out.RoleBlock.Categories, 2)
}

func TestTranscribe(t *testing.T) {
	h := newHarness(t)
	url := h.server.URL + "/api/transcribe"

	req := multipartRequest(t, url, h.token("alice"), "audio", "blob", "audio/webm;codecs=opus", []byte("opus-bytes"), nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "transcribed blob.webm", out["transcript"])
	assert.Equal(t, []byte("opus-bytes"), h.audio.got)

	req = multipartRequest(t, url, h.token("alice"), "audio", "clip.mov", "video/quicktime", []byte("x"), nil)
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, resp2.StatusCode)
}

func TestTranscribe_NotConfigured(t *testing.T) {
	srv := New(Deps{Auth: NewAuth(testSecret, "", time.Hour)})
	tok, err := srv.deps.Auth.Issue("alice", time.Now())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/transcribe", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t)

	resp := h.do("", http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = h.do("", http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), "mockprep_http_requests_total")
}

func TestDevModeUsesHeader(t *testing.T) {
	var seen string
	a := (*Auth)(nil)
	handler := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, DevUser, seen)

	req.Header.Set(DevUserHeader, "carol")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "carol", seen)
}

func TestAuthVerify(t *testing.T) {
	a := NewAuth(testSecret, "mockprep", time.Minute)
	now := time.Now()

	tok, err := a.Issue("alice", now)
	require.NoError(t, err)
	user, err := a.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "alice", user)

	expired, err := a.Issue("alice", now.Add(-2*time.Minute))
	require.NoError(t, err)
	_, err = a.Verify(expired)
	assert.Error(t, err)

	other := NewAuth("other-secret", "mockprep", time.Minute)
	forged, err := other.Issue("mallory", now)
	require.NoError(t, err)
	_, err = a.Verify(forged)
	assert.Error(t, err)

	wrongIssuer := NewAuth(testSecret, "someone-else", time.Minute)
	tok, err = wrongIssuer.Issue("alice", now)
	require.NoError(t, err)
	_, err = a.Verify(tok)
	assert.Error(t, err)
}

func TestStatusFor(t *testing.T) {
	tests := map[interview.Kind]int{
		interview.KindValidation:         http.StatusUnprocessableEntity,
		interview.KindUnsupportedAudio:   http.StatusUnsupportedMediaType,
		interview.KindNotFound:           http.StatusNotFound,
		interview.KindForbidden:          http.StatusForbidden,
		interview.KindConcurrency:        http.StatusConflict,
		interview.KindInvalidTransition:  http.StatusConflict,
		interview.KindInterviewComplete:  http.StatusConflict,
		interview.KindExternalService:    http.StatusBadGateway,
		interview.KindInvalidEvaluation:  http.StatusBadGateway,
		interview.KindQuestionGeneration: http.StatusBadGateway,
		"mystery":                        http.StatusInternalServerError,
	}
	for kind, want := range tests {
		if got := statusFor(kind); got != want {
			t.Errorf("statusFor(%q) = %d, want %d", kind, got, want)
		}
	}
}
