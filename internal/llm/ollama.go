package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

const defaultOllamaBaseURL = "http://localhost:11434"

// OllamaProvider implements Provider against a local Ollama server using
// the generate endpoint. Structured output passes the JSON schema as the
// request format.
type OllamaProvider struct {
	client *api.Client
	model  string
}

// NewOllamaProvider creates a provider for a local or remote Ollama server.
func NewOllamaProvider(cfg OllamaConfig) (*OllamaProvider, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("ollama model is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse ollama base url: %w", err)
	}

	return &OllamaProvider{
		client: api.NewClient(u, http.DefaultClient),
		model:  cfg.Model,
	}, nil
}

func (p *OllamaProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	stream := false
	genReq := &api.GenerateRequest{
		Model:  p.model,
		System: req.System,
		Prompt: flattenMessages(req.Messages),
		Stream: &stream,
		Options: map[string]any{
			"temperature": req.Temperature,
			"num_predict": maxTokensOrDefault(req.MaxTokens),
		},
	}

	if req.Schema != nil {
		def, err := json.Marshal(req.Schema.Definition)
		if err != nil {
			return nil, fmt.Errorf("marshal schema: %w", err)
		}
		genReq.Format = json.RawMessage(def)
	}

	var final api.GenerateResponse
	var text strings.Builder
	err := p.client.Generate(ctx, genReq, func(r api.GenerateResponse) error {
		text.WriteString(r.Response)
		if r.Done {
			final = r
		}
		return nil
	})
	if err != nil {
		return nil, mapOllamaError(err)
	}

	stop := "end"
	if final.DoneReason == "length" {
		stop = "max_tokens"
	}
	model := final.Model
	if model == "" {
		model = p.model
	}

	return finishStructured(req, &Response{
		Content: json.RawMessage(text.String()),
		Usage: Usage{
			InputTokens:  final.PromptEvalCount,
			OutputTokens: final.EvalCount,
			TotalTokens:  final.PromptEvalCount + final.EvalCount,
		},
		Model:      model,
		StopReason: stop,
	})
}

func (p *OllamaProvider) ModelID() string {
	return p.model
}

// flattenMessages renders a conversation as a single prompt. Interview
// calls are single-turn, so this is usually just the user message.
func flattenMessages(msgs []Message) string {
	if len(msgs) == 1 {
		return msgs[0].Content
	}
	var b strings.Builder
	for i, m := range msgs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "%s: %s", m.Role, m.Content)
	}
	return b.String()
}

func mapOllamaError(err error) error {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		return errorForStatus(statusErr.StatusCode, "", err)
	}
	return &ErrProviderUnavailable{Err: err}
}
