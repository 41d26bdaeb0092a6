package llm

import (
	"bytes"
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// WhisperTranscriber turns recorded answers into text through an
// OpenAI-compatible audio transcription endpoint (Groq by default).
type WhisperTranscriber struct {
	client *openai.Client
	model  string
}

// NewWhisperTranscriber creates a transcriber from configuration.
func NewWhisperTranscriber(cfg TranscriptionConfig) (*WhisperTranscriber, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("transcription API key is required")
	}
	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = cfg.BaseURL
	if config.BaseURL == "" {
		config.BaseURL = defaultGroqBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = "whisper-large-v3"
	}
	return &WhisperTranscriber{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}, nil
}

// Transcribe sends the audio to the speech-to-text model. The filename's
// extension tells the backend how to decode the bytes.
func (w *WhisperTranscriber) Transcribe(ctx context.Context, filename string, audio []byte) (string, error) {
	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: filename,
		Reader:   bytes.NewReader(audio),
		Language: "en",
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", mapOpenAIError(err)
	}
	return resp.Text, nil
}
