package llm

import "fmt"

// OpenAI-compatible endpoints served by OpenAIProvider.
const (
	defaultGroqBaseURL       = "https://api.groq.com/openai/v1"
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
)

// NewGroqProvider targets Groq. Groq only guarantees json_object mode
// across its models, so the schema goes into the system prompt and is
// validated locally.
func NewGroqProvider(cfg GroqConfig) (*OpenAIProvider, error) {
	return newCompatProvider("groq", cfg.APIKey, cfg.BaseURL, defaultGroqBaseURL, cfg.Model, true)
}

// NewOpenRouterProvider targets OpenRouter with native json_schema output.
func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenAIProvider, error) {
	return newCompatProvider("openrouter", cfg.APIKey, cfg.BaseURL, defaultOpenRouterBaseURL, cfg.Model, false)
}

func newCompatProvider(name, apiKey, baseURL, fallbackURL, model string, jsonObject bool) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%s: api key not set", name)
	}
	if baseURL == "" {
		baseURL = fallbackURL
	}
	return newOpenAIProviderRaw(apiKey, baseURL, model, jsonObject), nil
}
