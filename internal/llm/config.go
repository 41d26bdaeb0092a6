package llm

import (
	"fmt"
	"os"
	"time"
)

// Config holds all LLM provider configuration.
type Config struct {
	// Provider selects which LLM provider to use.
	// Values: "anthropic", "openai", "gemini", "openrouter", "groq",
	// "ollama", "mock".
	Provider string

	Anthropic     AnthropicConfig
	OpenAI        OpenAIConfig
	Gemini        GeminiConfig
	OpenRouter    OpenRouterConfig
	Groq          GroqConfig
	Ollama        OllamaConfig
	Transcription TranscriptionConfig
	Retry         RetryConfig

	// Timeout is the maximum duration for a single LLM request
	// (including retries). Default: 60s.
	Timeout time.Duration
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey  string
	Model   string // Default: "claude-haiku"
	BaseURL string
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string // Default: "gpt-4o-mini"
	BaseURL string
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string
	Model  string // Default: "gemini-flash"
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string // Default: "https://openrouter.ai/api/v1"
}

// GroqConfig holds Groq-specific configuration.
type GroqConfig struct {
	APIKey  string
	Model   string // Default: "llama-3.3-70b-versatile"
	BaseURL string // Default: "https://api.groq.com/openai/v1"
}

// OllamaConfig holds configuration for a local Ollama server.
type OllamaConfig struct {
	BaseURL string // Default: "http://localhost:11434"
	Model   string // Default: "llama3.1"
}

// TranscriptionConfig configures the speech-to-text endpoint.
type TranscriptionConfig struct {
	APIKey  string
	Model   string // Default: "whisper-large-v3"
	BaseURL string // Default: Groq
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
	// MaxRetryAfter is the longest server-requested rate-limit pause that
	// is honored; a longer Retry-After fails the call. Zero honors any value.
	MaxRetryAfter time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider: "groq",
		Anthropic: AnthropicConfig{
			Model: "claude-haiku",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Gemini: GeminiConfig{
			Model: "gemini-flash",
		},
		OpenRouter: OpenRouterConfig{
			Model: "meta-llama/llama-3.3-70b-instruct",
		},
		Groq: GroqConfig{
			Model: "llama-3.3-70b-versatile",
		},
		Ollama: OllamaConfig{
			Model: "llama3.1",
		},
		Transcription: TranscriptionConfig{
			Model: "whisper-large-v3",
		},
		Retry: RetryConfig{
			MaxAttempts:   3,
			InitialWait:   1 * time.Second,
			MaxWait:       10 * time.Second,
			Multiplier:    2.0,
			MaxRetryAfter: 20 * time.Second,
		},
		Timeout: 60 * time.Second,
	}
}

// DiscoverConfig probes standard API key env vars in priority order
// (Groq, Gemini, OpenAI, Anthropic, OpenRouter) and returns a Config for
// the first provider whose key is found. Returns (Config{}, false) if
// none is found.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()

	if k := os.Getenv("GROQ_API_KEY"); k != "" {
		cfg.Provider = "groq"
		cfg.Groq.APIKey = k
		cfg.Transcription.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("GEMINI_API_KEY"); k != "" {
		cfg.Provider = "gemini"
		cfg.Gemini.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("OPENAI_API_KEY"); k != "" {
		cfg.Provider = "openai"
		cfg.OpenAI.APIKey = k
		cfg.Transcription.APIKey = k
		cfg.Transcription.BaseURL = "https://api.openai.com/v1"
		cfg.Transcription.Model = "whisper-1"
		return cfg, true
	}
	if k := os.Getenv("ANTHROPIC_API_KEY"); k != "" {
		cfg.Provider = "anthropic"
		cfg.Anthropic.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("OPENROUTER_API_KEY"); k != "" {
		cfg.Provider = "openrouter"
		cfg.OpenRouter.APIKey = k
		return cfg, true
	}

	return Config{}, false
}

// Validate checks that the selected provider has its required settings.
func (c Config) Validate() error {
	switch c.Provider {
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("MOCKPREP_LLM_ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("MOCKPREP_LLM_OPENAI_API_KEY is required for the openai provider")
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("MOCKPREP_LLM_GEMINI_API_KEY is required for the gemini provider")
		}
	case "openrouter":
		if c.OpenRouter.APIKey == "" {
			return fmt.Errorf("MOCKPREP_LLM_OPENROUTER_API_KEY is required for the openrouter provider")
		}
	case "groq":
		if c.Groq.APIKey == "" {
			return fmt.Errorf("MOCKPREP_LLM_GROQ_API_KEY is required for the groq provider")
		}
	case "ollama":
		if c.Ollama.Model == "" {
			return fmt.Errorf("MOCKPREP_LLM_OLLAMA_MODEL is required for the ollama provider")
		}
	case "mock":
		// No credentials needed.
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	return nil
}
