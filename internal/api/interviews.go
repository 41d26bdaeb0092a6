package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/mockprep/internal/interview"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return interview.ValidationError("decode request", map[string]string{"body": "request body is required"})
		}
		return interview.ValidationError("decode request", map[string]string{"body": err.Error()})
	}
	return nil
}

func questionNumber(r *http.Request) (int, error) {
	n, err := strconv.Atoi(mux.Vars(r)["n"])
	if err != nil || n < 1 {
		return 0, interview.ValidationError("parse question number", map[string]string{"question_number": "must be a positive integer"})
	}
	return n, nil
}

// ownedSession loads the session named in the route and hides sessions
// that belong to someone else.
func (s *Server) ownedSession(r *http.Request) (*interview.Session, error) {
	id := mux.Vars(r)["id"]
	sess, err := s.deps.Interviews.Get(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if sess.UserID != UserFrom(r.Context()) {
		return nil, &interview.Error{
			Kind:    interview.KindNotFound,
			Op:      "get interview",
			Message: "interview " + id + " not found",
		}
	}
	return sess, nil
}

type startRequest struct {
	Role   *interview.RoleBlock `json:"role_block"`
	RoleID string               `json:"role_id"`
}

func (s *Server) startInterview(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	user := UserFrom(r.Context())
	var (
		id  string
		err error
	)
	switch {
	case req.RoleID != "" && req.Role != nil:
		err = interview.ValidationError("start interview", map[string]string{"role_id": "send either role_block or role_id, not both"})
	case req.RoleID != "":
		id, err = s.deps.Interviews.StartFromSavedRole(r.Context(), user, req.RoleID)
	case req.Role != nil:
		id, err = s.deps.Interviews.StartInterview(r.Context(), user, *req.Role)
	default:
		err = interview.ValidationError("start interview", map[string]string{"role_block": "role_block or role_id is required"})
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	sess, err := s.deps.Interviews.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"interview_id": id, "interview": sess})
}

func (s *Server) listInterviews(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.deps.Interviews.List(r.Context(), UserFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if sessions == nil {
		sessions = []*interview.Session{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"interviews": sessions})
}

func (s *Server) getInterview(w http.ResponseWriter, r *http.Request) {
	sess, err := s.ownedSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) nextQuestion(w http.ResponseWriter, r *http.Request) {
	sess, err := s.ownedSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	next, err := s.deps.Interviews.SelectNextQuestion(r.Context(), sess.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, next)
}

type answerRequest struct {
	AnswerText        string     `json:"answer_text"`
	AnswerAudioURL    string     `json:"answer_audio_url"`
	QuestionStartedAt *time.Time `json:"question_started_at"`
}

func (s *Server) submitAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.ownedSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	in := interview.SubmitInput{Answer: req.AnswerText, AudioURL: req.AnswerAudioURL}
	if req.QuestionStartedAt != nil {
		in.QuestionStartedAt = *req.QuestionStartedAt
	}
	res, err := s.deps.Interviews.SubmitAnswer(r.Context(), sess.ID, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) requestFeedback(w http.ResponseWriter, r *http.Request) {
	n, err := questionNumber(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.ownedSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	fb, err := s.deps.Interviews.RequestFeedback(r.Context(), sess.ID, n)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"question_number": n, "feedback": fb})
}

type pauseRequest struct {
	Action string `json:"action"`
}

func (s *Server) pause(w http.ResponseWriter, r *http.Request) {
	var req pauseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.ownedSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	switch strings.ToLower(req.Action) {
	case "pause":
		sess, err = s.deps.Interviews.Pause(r.Context(), sess.ID)
	case "resume":
		sess, err = s.deps.Interviews.Resume(r.Context(), sess.ID)
	default:
		err = interview.ValidationError("pause interview", map[string]string{"action": `must be "pause" or "resume"`})
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":                 sess.Status,
		"paused_at":              sess.PausedAt,
		"pause_duration_seconds": sess.PauseDurationSeconds,
		"pause_count":            sess.PauseCount,
	})
}

func (s *Server) finalizeReport(w http.ResponseWriter, r *http.Request) {
	sess, err := s.ownedSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	report, err := s.deps.Interviews.FinalizeReport(r.Context(), sess.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"report": report})
}

type bookmarkRequest struct {
	QuestionNumber int    `json:"question_number"`
	Note           string `json:"note"`
}

func (s *Server) bookmark(w http.ResponseWriter, r *http.Request) {
	var req bookmarkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.ownedSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	b, err := s.deps.Interviews.Bookmark(r.Context(), sess.ID, req.QuestionNumber, req.Note)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) unbookmark(w http.ResponseWriter, r *http.Request) {
	n, err := questionNumber(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.ownedSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.deps.Interviews.Unbookmark(r.Context(), sess.ID, n); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	sess, err := s.ownedSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	exp, err := s.deps.Interviews.Export(r.Context(), sess.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		w.Header().Set("Content-Disposition", `attachment; filename="interview-`+sess.ID+`.json"`)
		writeJSON(w, http.StatusOK, exp)
	case "yaml", "yml":
		out, err := yaml.Marshal(exp)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.Header().Set("Content-Disposition", `attachment; filename="interview-`+sess.ID+`.yaml"`)
		w.WriteHeader(http.StatusOK)
		w.Write(out)
	default:
		s.writeError(w, r, interview.ValidationError("export interview", map[string]string{"format": "must be json or yaml"}))
	}
}
