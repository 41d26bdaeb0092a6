// Package transcribe validates recorded answers before handing them to a
// speech-to-text backend.
package transcribe

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/mockprep/internal/interview"
	"github.com/abhisek/mockprep/internal/metrics"
)

// MaxAudioBytes is the largest recording accepted.
const MaxAudioBytes = 15 * 1024 * 1024

// formats maps file extensions to the MIME types browsers record with.
var formats = map[string]string{
	".webm": "audio/webm",
	".mp4":  "audio/mp4",
	".m4a":  "audio/mp4",
	".mp3":  "audio/mpeg",
	".mpeg": "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
}

var supportedTypes = map[string]bool{
	"audio/webm": true,
	"audio/mp4":  true,
	"audio/mpeg": true,
	"audio/wav":  true,
	"audio/ogg":  true,
}

const unsupportedMessage = "Invalid audio format. Supported formats: WebM, MP4, MP3, WAV, OGG"

// Validate checks the size and format of an upload. contentType may be
// empty, in which case the filename's extension decides.
func Validate(filename, contentType string, size int64) error {
	const op = "validate audio"
	if size > MaxAudioBytes {
		msg := fmt.Sprintf("File size %.2fMB exceeds maximum of 15MB. Please record again.", float64(size)/1024/1024)
		return &interview.Error{
			Kind:    interview.KindValidation,
			Op:      op,
			Message: msg,
			Fields:  map[string]string{"audio": msg},
		}
	}
	if size == 0 {
		return interview.ValidationError(op, map[string]string{"audio": "Audio file is required"})
	}
	if MediaType(filename, contentType) == "" {
		return &interview.Error{
			Kind:    interview.KindUnsupportedAudio,
			Op:      op,
			Message: unsupportedMessage,
		}
	}
	return nil
}

// MediaType resolves the audio MIME type of an upload, or "" when it is
// not a supported format. Codec parameters such as ";codecs=opus" are
// ignored.
func MediaType(filename, contentType string) string {
	if contentType != "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil {
			if mt == "audio/x-wav" || mt == "audio/wave" {
				mt = "audio/wav"
			}
			if supportedTypes[mt] {
				return mt
			}
		}
	}
	return formats[strings.ToLower(filepath.Ext(filename))]
}

var extensions = map[string]string{
	"audio/webm": ".webm",
	"audio/mp4":  ".mp4",
	"audio/mpeg": ".mp3",
	"audio/wav":  ".wav",
	"audio/ogg":  ".ogg",
}

// Filename returns a name whose extension matches the upload's format,
// so recordings sent as "blob" keep their container type.
func Filename(filename, contentType string) string {
	if _, ok := formats[strings.ToLower(filepath.Ext(filename))]; ok {
		return filename
	}
	ext := extensions[MediaType(filename, contentType)]
	if ext == "" {
		return filename
	}
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	if base == "" {
		base = "recording"
	}
	return base + ext
}

// Service implements interview.Transcriber on top of a backend,
// validating every recording first.
type Service struct {
	backend interview.Transcriber
	logger  *zap.Logger
}

var _ interview.Transcriber = (*Service)(nil)

// NewService wraps backend. A nil logger disables logging.
func NewService(backend interview.Transcriber, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{backend: backend, logger: logger}
}

// Transcribe validates the recording and returns its transcript.
// Backend failures surface as KindExternalService.
func (s *Service) Transcribe(ctx context.Context, filename string, audio []byte) (string, error) {
	if err := Validate(filename, "", int64(len(audio))); err != nil {
		return "", err
	}

	start := time.Now()
	text, err := s.backend.Transcribe(ctx, filename, audio)
	metrics.TranscriptionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.logger.Warn("transcription failed",
			zap.String("filename", filename),
			zap.Int("bytes", len(audio)),
			zap.Error(err))
		return "", &interview.Error{
			Kind:    interview.KindExternalService,
			Op:      "transcribe audio",
			Message: "failed to transcribe audio",
			Err:     err,
		}
	}

	s.logger.Debug("transcribed audio",
		zap.String("filename", filename),
		zap.Float64("size_mb", float64(len(audio))/1024/1024),
		zap.Duration("latency", time.Since(start)))
	return strings.TrimSpace(text), nil
}
