package transcribe

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/abhisek/mockprep/internal/interview"
)

type fakeBackend struct {
	text  string
	err   error
	calls int
}

func (f *fakeBackend) Transcribe(_ context.Context, _ string, _ []byte) (string, error) {
	f.calls++
	return f.text, f.err
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
		size        int64
		wantKind    interview.Kind
		wantMsg     string
	}{
		{"webm", "answer.webm", "", 1024, "", ""},
		{"codec parameter", "blob", "audio/webm;codecs=opus", 1024, "", ""},
		{"wav alias", "a.bin", "audio/x-wav", 10, "", ""},
		{"mp3 by extension", "a.MP3", "application/octet-stream", 10, "", ""},
		{"exact limit", "a.ogg", "", MaxAudioBytes, "", ""},
		{"too large", "a.ogg", "", 16 * 1024 * 1024, interview.KindValidation,
			"File size 16.00MB exceeds maximum of 15MB. Please record again."},
		{"empty", "a.ogg", "", 0, interview.KindValidation, "invalid input"},
		{"video", "clip.mov", "video/quicktime", 10, interview.KindUnsupportedAudio, unsupportedMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.filename, tt.contentType, tt.size)
			if tt.wantKind == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var ierr *interview.Error
			if !errors.As(err, &ierr) {
				t.Fatalf("err = %v, want *interview.Error", err)
			}
			if ierr.Kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", ierr.Kind, tt.wantKind)
			}
			if ierr.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", ierr.Message, tt.wantMsg)
			}
		})
	}
}

func TestService_Transcribe(t *testing.T) {
	backend := &fakeBackend{text: "  a hash map with chaining \n"}
	svc := NewService(backend, zaptest.NewLogger(t))

	got, err := svc.Transcribe(context.Background(), "answer.webm", []byte("audio"))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got != "a hash map with chaining" {
		t.Errorf("got %q", got)
	}
}

func TestService_RejectsBeforeBackend(t *testing.T) {
	backend := &fakeBackend{}
	svc := NewService(backend, nil)

	_, err := svc.Transcribe(context.Background(), "notes.txt", []byte("hello"))
	if !interview.IsKind(err, interview.KindUnsupportedAudio) {
		t.Fatalf("err = %v, want unsupported audio", err)
	}
	if !interview.IsKind(err, interview.KindValidation) {
		t.Error("unsupported audio should be a validation failure")
	}
	if backend.calls != 0 {
		t.Errorf("backend called %d times", backend.calls)
	}
}

func TestService_BackendFailure(t *testing.T) {
	cause := errors.New("upstream 503")
	svc := NewService(&fakeBackend{err: cause}, nil)

	_, err := svc.Transcribe(context.Background(), "answer.wav", []byte("audio"))
	if interview.KindOf(err) != interview.KindExternalService {
		t.Fatalf("kind = %q, want %q", interview.KindOf(err), interview.KindExternalService)
	}
	if !errors.Is(err, cause) {
		t.Error("cause should be wrapped")
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		filename, contentType, want string
	}{
		{"answer.webm", "", "answer.webm"},
		{"blob", "audio/webm;codecs=opus", "blob.webm"},
		{"", "audio/mpeg", "recording.mp3"},
		{"clip.bin", "audio/x-wav", "clip.wav"},
		{"notes.txt", "text/plain", "notes.txt"},
	}
	for _, tt := range tests {
		if got := Filename(tt.filename, tt.contentType); got != tt.want {
			t.Errorf("Filename(%q, %q) = %q, want %q", tt.filename, tt.contentType, got, tt.want)
		}
	}
}
