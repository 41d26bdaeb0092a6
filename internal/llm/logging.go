package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/mockprep/internal/store"
)

// LoggingProvider writes one event per call to the event log and the
// structured logger. It sits closest to the base provider, so every retry
// attempt is recorded separately.
type LoggingProvider struct {
	inner     Provider
	provider  string
	eventRepo store.EventRepo
	logger    *zap.Logger
}

// WithLogging wraps p. A nil repo disables persistence and a nil logger
// disables structured logs.
func WithLogging(p Provider, repo store.EventRepo, logger *zap.Logger) Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingProvider{inner: p, provider: providerName(p), eventRepo: repo, logger: logger}
}

func (l *LoggingProvider) ModelID() string { return l.inner.ModelID() }

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)

	ev := store.LLMRequestEventData{
		Provider:    l.provider,
		Model:       l.inner.ModelID(),
		Purpose:     PurposeFrom(ctx),
		SessionID:   SessionFrom(ctx),
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: describeRequest(req),
	}
	if resp != nil {
		ev.Model = resp.Model
		ev.InputTokens = resp.Usage.InputTokens
		ev.OutputTokens = resp.Usage.OutputTokens
		ev.ResponseBody = string(resp.Content)
	}
	if err != nil {
		ev.ErrorMessage = err.Error()
		// Keep rejected model output so bad answers can be inspected later.
		var inv *ErrInvalidResponse
		if errors.As(err, &inv) && ev.ResponseBody == "" {
			ev.ResponseBody = string(inv.Content)
		}
	}

	log := l.logger.With(
		zap.String("model", ev.Model),
		zap.String("purpose", ev.Purpose),
		zap.Int64("latency_ms", ev.LatencyMs),
	)
	if ev.SessionID != "" {
		log = log.With(zap.String("session_id", ev.SessionID))
	}
	if err != nil {
		log.Warn("llm call failed", zap.Error(err))
	} else {
		log.Debug("llm call", zap.Int("input_tokens", ev.InputTokens), zap.Int("output_tokens", ev.OutputTokens))
	}

	if l.eventRepo != nil {
		if werr := l.eventRepo.AppendLLMRequest(ctx, ev); werr != nil {
			log.Warn("record llm event", zap.Error(werr))
		}
	}
	return resp, err
}

func providerName(p Provider) string {
	switch p.(type) {
	case *AnthropicProvider:
		return "anthropic"
	case *GeminiProvider:
		return "gemini"
	case *OllamaProvider:
		return "ollama"
	case *OpenAIProvider:
		return "openai"
	case *MockProvider:
		return "mock"
	}
	return p.ModelID()
}

// describeRequest renders the prompt in a form readable from "mockprep llm view".
func describeRequest(req Request) string {
	var b strings.Builder
	section := func(title, body string) {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", title, body)
	}
	if req.System != "" {
		section("system", req.System)
	}
	for _, m := range req.Messages {
		section(string(m.Role), m.Content)
	}
	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			section("schema: "+req.Schema.Name, string(def))
		}
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}
