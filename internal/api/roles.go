package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/abhisek/mockprep/internal/interview"
	"github.com/abhisek/mockprep/internal/questiongen"
	"github.com/abhisek/mockprep/internal/store"
)

// maxUploadBytes bounds multipart uploads; resume and audio handlers
// apply tighter limits of their own.
const maxUploadBytes = 32 << 20

type generateRoleRequest struct {
	JobText        string               `json:"job_text"`
	InterviewTypes []interview.Category `json:"interview_types"`
	CustomType     string               `json:"custom_type"`
	QuestionCount  int                  `json:"question_count"`
}

func (s *Server) generateRole(w http.ResponseWriter, r *http.Request) {
	var req generateRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	role, err := s.deps.Architect.FromJobText(r.Context(), questiongen.RoleRequest{
		JobText:        req.JobText,
		Categories:     req.InterviewTypes,
		CustomCategory: req.CustomType,
		QuestionCount:  req.QuestionCount,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"role_block": role})
}

// parseCategories accepts a JSON array or a comma separated list.
func parseCategories(raw string) ([]interview.Category, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var names []string
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &names); err != nil {
			return nil, err
		}
	} else {
		names = strings.Split(raw, ",")
	}
	out := make([]interview.Category, 0, len(names))
	for _, n := range names {
		c, err := interview.ParseCategory(n)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *Server) generateRoleFromResume(w http.ResponseWriter, r *http.Request) {
	const op = "generate role from resume"
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, r, interview.ValidationError(op, map[string]string{"body": "expected multipart/form-data"}))
		return
	}

	file, header, err := r.FormFile("resume")
	if err != nil {
		s.writeError(w, r, interview.ValidationError(op, map[string]string{"resume": "resume file is required"}))
		return
	}
	defer file.Close()

	fields := map[string]string{}
	categories, err := parseCategories(r.FormValue("interview_types"))
	if err != nil {
		fields["interview_types"] = err.Error()
	}
	count := 0
	if v := r.FormValue("question_count"); v != "" {
		if count, err = strconv.Atoi(v); err != nil {
			fields["question_count"] = "must be an integer"
		}
	}
	if len(fields) > 0 {
		s.writeError(w, r, interview.ValidationError(op, fields))
		return
	}

	text, err := s.deps.Resumes.Extract(header.Filename, file)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	role, err := s.deps.Architect.FromResume(r.Context(), questiongen.ResumeRequest{
		TargetRole:      r.FormValue("role"),
		ExperienceLevel: r.FormValue("experience_level"),
		ResumeText:      text,
		Categories:      categories,
		CustomCategory:  r.FormValue("custom_type"),
		QuestionCount:   count,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"role_block": role})
}

type createRoleRequest struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	RoleBlock   interview.RoleBlock `json:"role_block"`
	Visibility  store.Visibility    `json:"visibility"`
}

func (s *Server) createRole(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	role := &store.Role{
		Title:       req.Title,
		Description: req.Description,
		RoleBlock:   req.RoleBlock,
		CreatorID:   UserFrom(r.Context()),
		Visibility:  req.Visibility,
	}
	if err := s.deps.Roles.CreateRole(r.Context(), role); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, role)
}

func (s *Server) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := s.deps.Roles.ListRoles(r.Context(), UserFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if roles == nil {
		roles = []*store.Role{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"roles": roles})
}

func (s *Server) deleteRole(w http.ResponseWriter, r *http.Request) {
	err := s.deps.Roles.DeleteRole(r.Context(), mux.Vars(r)["id"], UserFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type updateVisibilityRequest struct {
	Visibility store.Visibility `json:"visibility"`
}

func (s *Server) updateRoleVisibility(w http.ResponseWriter, r *http.Request) {
	var req updateVisibilityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	id := mux.Vars(r)["id"]
	if err := s.deps.Roles.UpdateVisibility(r.Context(), id, UserFrom(r.Context()), req.Visibility); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "visibility": req.Visibility})
}
