package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/abhisek/mockprep/internal/interview"
)

type errorDetail struct {
	Kind    string            `json:"kind"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

// statusFor maps an error kind to its HTTP status.
func statusFor(kind interview.Kind) int {
	switch {
	case kind == interview.KindUnsupportedAudio:
		return http.StatusUnsupportedMediaType
	case kind.Within(interview.KindValidation):
		return http.StatusUnprocessableEntity
	case kind == interview.KindNotFound:
		return http.StatusNotFound
	case kind == interview.KindForbidden:
		return http.StatusForbidden
	case kind == interview.KindConcurrency, kind.Within(interview.KindInvalidTransition):
		return http.StatusConflict
	case kind.Within(interview.KindExternalService):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeErrorBody(w http.ResponseWriter, status int, kind, message string, fields map[string]string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Kind: kind, Message: message, Fields: fields}})
}

// writeError renders err as the error envelope. Only orchestrator errors
// expose their kind and message; anything else becomes a generic 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := interview.KindOf(err)
	if kind == "" {
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeErrorBody(w, http.StatusInternalServerError, "internal", "internal server error", nil)
		return
	}

	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		s.logger.Warn("upstream failure",
			zap.String("path", r.URL.Path),
			zap.String("kind", string(kind)),
			zap.Error(err))
	}

	var ierr *interview.Error
	msg := string(kind)
	var fields map[string]string
	if errors.As(err, &ierr) {
		if ierr.Message != "" {
			msg = ierr.Message
		}
		fields = ierr.Fields
	}
	writeErrorBody(w, status, string(kind), msg, fields)
}
