package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/abhisek/mockprep/internal/store"
)

type recordingEventRepo struct {
	mu     sync.Mutex
	events []store.LLMRequestEventData
	err    error
}

func (r *recordingEventRepo) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, data)
	return r.err
}

func TestLoggingProvider_RecordsEvent(t *testing.T) {
	repo := &recordingEventRepo{}
	mock := NewMockProvider(MockResponse{
		Content: json.RawMessage(`{"ok":true}`),
		Usage:   Usage{InputTokens: 11, OutputTokens: 7},
	})
	p := WithLogging(mock, repo, zaptest.NewLogger(t))

	ctx := WithSession(WithPurpose(context.Background(), "question"), "sess-1")
	_, err := p.Generate(ctx, Request{
		System:   "be an interviewer",
		Messages: []Message{{Role: RoleUser, Content: "ask"}},
		Schema:   evalTestSchema,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(repo.events))
	}
	ev := repo.events[0]
	if ev.Purpose != "question" || ev.SessionID != "sess-1" {
		t.Fatalf("unexpected labels: %+v", ev)
	}
	if !ev.Success || ev.InputTokens != 11 || ev.OutputTokens != 7 {
		t.Fatalf("unexpected usage fields: %+v", ev)
	}
	if !strings.Contains(ev.RequestBody, "[system]") || !strings.Contains(ev.RequestBody, "[schema: test-evaluation]") {
		t.Fatalf("request body missing sections: %q", ev.RequestBody)
	}
	if ev.ResponseBody != `{"ok":true}` {
		t.Fatalf("response body = %q", ev.ResponseBody)
	}
}

func TestLoggingProvider_RecordsFailure(t *testing.T) {
	repo := &recordingEventRepo{err: errors.New("disk full")}
	mock := NewMockProvider(MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}})
	p := WithLogging(mock, repo, nil)

	_, err := p.Generate(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected provider error to pass through")
	}
	if len(repo.events) != 1 || repo.events[0].Success {
		t.Fatalf("expected one failed event, got %+v", repo.events)
	}
	if repo.events[0].ErrorMessage == "" {
		t.Fatal("expected error message to be recorded")
	}
}

func TestLoggingProvider_NilRepo(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{}`)})
	p := WithLogging(mock, nil, nil)
	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMetricsProvider_PassesThrough(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{"a":1}`)})
	p := WithMetrics(mock)
	resp, err := p.Generate(WithPurpose(context.Background(), "test"), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != `{"a":1}` || p.ModelID() != "mock" {
		t.Fatalf("unexpected passthrough: %s %s", resp.Content, p.ModelID())
	}
}

func TestLoggingProvider_KeepsRejectedOutput(t *testing.T) {
	repo := &recordingEventRepo{}
	mock := NewMockProvider(MockResponse{Err: &ErrInvalidResponse{
		Content: json.RawMessage(`{"overall_score":"high"}`),
		Err:     errors.New("wrong type"),
	}})
	p := WithLogging(mock, repo, zaptest.NewLogger(t))

	_, err := p.Generate(WithPurpose(context.Background(), "evaluation"), Request{})
	if !IsInvalidResponse(err) {
		t.Fatalf("err = %v, want invalid response", err)
	}
	ev := repo.events[0]
	if ev.Provider != "mock" {
		t.Errorf("provider = %q, want mock", ev.Provider)
	}
	if ev.ResponseBody != `{"overall_score":"high"}` {
		t.Errorf("response body = %q, want the rejected output", ev.ResponseBody)
	}
}
