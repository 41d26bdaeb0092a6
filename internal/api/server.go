// Package api exposes the interview orchestrator over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/abhisek/mockprep/internal/interview"
	"github.com/abhisek/mockprep/internal/questiongen"
	"github.com/abhisek/mockprep/internal/resume"
	"github.com/abhisek/mockprep/internal/store"
)

// RoleStore persists saved roles.
type RoleStore interface {
	CreateRole(ctx context.Context, role *store.Role) error
	ListRoles(ctx context.Context, userID string) ([]*store.Role, error)
	DeleteRole(ctx context.Context, id, userID string) error
	UpdateVisibility(ctx context.Context, id, userID string, visibility store.Visibility) error
}

// RoleArchitect generates role blocks.
type RoleArchitect interface {
	FromJobText(ctx context.Context, req questiongen.RoleRequest) (interview.RoleBlock, error)
	FromResume(ctx context.Context, req questiongen.ResumeRequest) (interview.RoleBlock, error)
}

// Deps are the collaborators the HTTP layer calls.
type Deps struct {
	Interviews *interview.Service
	Roles      RoleStore
	Architect  RoleArchitect
	Resumes    resume.Extractor
	// Transcriber is optional; without it /api/transcribe answers 503.
	Transcriber interview.Transcriber
	Auth        *Auth
	// Health reports backing store health for /healthz.
	Health func(ctx context.Context) error
	Logger *zap.Logger
}

// Server routes HTTP requests to the orchestrator.
type Server struct {
	deps   Deps
	logger *zap.Logger
	router *mux.Router
}

// New builds the router.
func New(deps Deps) *Server {
	s := &Server{deps: deps, logger: deps.Logger}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.router = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.recoveryMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(corsMiddleware)

	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.deps.Auth.Middleware)

	api.HandleFunc("/interviews", s.startInterview).Methods(http.MethodPost)
	api.HandleFunc("/interviews", s.listInterviews).Methods(http.MethodGet)
	api.HandleFunc("/interviews/{id}", s.getInterview).Methods(http.MethodGet)

	iv := api.PathPrefix("/interviews/{id}").Subrouter()
	iv.Use(sessionMiddleware)
	iv.HandleFunc("/questions/next", s.nextQuestion).Methods(http.MethodPost)
	iv.HandleFunc("/answers", s.submitAnswer).Methods(http.MethodPost)
	iv.HandleFunc("/feedback/{n:[0-9]+}", s.requestFeedback).Methods(http.MethodPost)
	iv.HandleFunc("/pause", s.pause).Methods(http.MethodPatch)
	iv.HandleFunc("/report", s.finalizeReport).Methods(http.MethodPost)
	iv.HandleFunc("/bookmarks", s.bookmark).Methods(http.MethodPost)
	iv.HandleFunc("/bookmarks/{n:[0-9]+}", s.unbookmark).Methods(http.MethodDelete)
	iv.HandleFunc("/export", s.export).Methods(http.MethodGet)

	api.HandleFunc("/roles/generate", s.generateRole).Methods(http.MethodPost)
	api.HandleFunc("/roles/generate-from-resume", s.generateRoleFromResume).Methods(http.MethodPost)
	api.HandleFunc("/roles", s.createRole).Methods(http.MethodPost)
	api.HandleFunc("/roles", s.listRoles).Methods(http.MethodGet)
	api.HandleFunc("/roles/{id}", s.deleteRole).Methods(http.MethodDelete)
	api.HandleFunc("/roles/{id}", s.updateRoleVisibility).Methods(http.MethodPatch)

	api.HandleFunc("/transcribe", s.transcribe).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeErrorBody(w, http.StatusNotFound, string(interview.KindNotFound), "route not found", nil)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeErrorBody(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", nil)
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health != nil {
		if err := s.deps.Health(r.Context()); err != nil {
			s.logger.Warn("health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
