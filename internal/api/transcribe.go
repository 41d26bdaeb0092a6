package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/abhisek/mockprep/internal/interview"
	"github.com/abhisek/mockprep/internal/transcribe"
)

func (s *Server) transcribe(w http.ResponseWriter, r *http.Request) {
	const op = "transcribe audio"
	if s.deps.Transcriber == nil {
		writeErrorBody(w, http.StatusServiceUnavailable, string(interview.KindExternalService), "audio transcription is not configured", nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(transcribe.MaxAudioBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, transcribe.Validate("", "", tooLarge.Limit+1))
			return
		}
		s.writeError(w, r, interview.ValidationError(op, map[string]string{"body": "expected multipart/form-data"}))
		return
	}
	file, header, err := r.FormFile("audio")
	if err != nil {
		s.writeError(w, r, interview.ValidationError(op, map[string]string{"audio": "Audio file is required"}))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if err := transcribe.Validate(header.Filename, contentType, header.Size); err != nil {
		s.writeError(w, r, err)
		return
	}

	audio, err := io.ReadAll(io.LimitReader(file, transcribe.MaxAudioBytes+1))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	text, err := s.deps.Transcriber.Transcribe(r.Context(), transcribe.Filename(header.Filename, contentType), audio)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"transcript": text})
}
