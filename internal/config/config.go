// Package config loads service configuration from defaults, an optional
// YAML file, a .env file and MOCKPREP_* environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/abhisek/mockprep/internal/llm"
	"github.com/abhisek/mockprep/internal/questiongen"
)

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Interview InterviewConfig `mapstructure:"interview"`
	Log       LogConfig       `mapstructure:"log"`
	Auth      AuthConfig      `mapstructure:"auth"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `mapstructure:"driver"`
	// DSN is a file path for sqlite or a connection string for postgres.
	// Empty selects the default sqlite path.
	DSN string `mapstructure:"dsn"`
}

// RedisConfig enables the cross-instance session lock when Addr is set.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
	LockWait time.Duration `mapstructure:"lock_wait"`
}

type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type LLMConfig struct {
	// Provider is empty to discover one from vendor API key variables.
	Provider      string         `mapstructure:"provider"`
	Anthropic     ProviderConfig `mapstructure:"anthropic"`
	OpenAI        ProviderConfig `mapstructure:"openai"`
	Gemini        ProviderConfig `mapstructure:"gemini"`
	OpenRouter    ProviderConfig `mapstructure:"openrouter"`
	Groq          ProviderConfig `mapstructure:"groq"`
	Ollama        ProviderConfig `mapstructure:"ollama"`
	Transcription ProviderConfig `mapstructure:"transcription"`
	Timeout       time.Duration  `mapstructure:"timeout"`
	MaxAttempts   int            `mapstructure:"max_attempts"`
	// MaxRetryAfter caps the rate-limit pause a provider may ask for.
	MaxRetryAfter time.Duration  `mapstructure:"max_retry_after"`
}

type InterviewConfig struct {
	DefaultQuestionCount int `mapstructure:"default_question_count"`
	MaxResumeChars       int `mapstructure:"max_resume_chars"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type AuthConfig struct {
	// JWTSecret signs and verifies HS256 bearer tokens. Empty disables
	// authentication, which is only meant for local use.
	JWTSecret string        `mapstructure:"jwt_secret"`
	Issuer    string        `mapstructure:"issuer"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// Enabled reports whether bearer tokens are required.
func (a AuthConfig) Enabled() bool { return a.JWTSecret != "" }

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}
	if c.Database.Driver == "postgres" && c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required for postgres")
	}
	if n := c.Interview.DefaultQuestionCount; n < 1 || n > 50 {
		return fmt.Errorf("interview.default_question_count must be between 1 and 50, got %d", n)
	}
	if err := c.LLM.LLM().Validate(); err != nil {
		return err
	}
	return nil
}

// LLM converts the LLM section into llm.Config, starting from the
// package defaults so unset models keep their default values.
func (c LLMConfig) LLM() llm.Config {
	out := llm.DefaultConfig()
	out.Provider = c.Provider

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&out.Anthropic.APIKey, c.Anthropic.APIKey)
	set(&out.Anthropic.Model, c.Anthropic.Model)
	set(&out.Anthropic.BaseURL, c.Anthropic.BaseURL)
	set(&out.OpenAI.APIKey, c.OpenAI.APIKey)
	set(&out.OpenAI.Model, c.OpenAI.Model)
	set(&out.OpenAI.BaseURL, c.OpenAI.BaseURL)
	set(&out.Gemini.APIKey, c.Gemini.APIKey)
	set(&out.Gemini.Model, c.Gemini.Model)
	set(&out.OpenRouter.APIKey, c.OpenRouter.APIKey)
	set(&out.OpenRouter.Model, c.OpenRouter.Model)
	set(&out.OpenRouter.BaseURL, c.OpenRouter.BaseURL)
	set(&out.Groq.APIKey, c.Groq.APIKey)
	set(&out.Groq.Model, c.Groq.Model)
	set(&out.Groq.BaseURL, c.Groq.BaseURL)
	set(&out.Ollama.Model, c.Ollama.Model)
	set(&out.Ollama.BaseURL, c.Ollama.BaseURL)
	set(&out.Transcription.APIKey, c.Transcription.APIKey)
	set(&out.Transcription.Model, c.Transcription.Model)
	set(&out.Transcription.BaseURL, c.Transcription.BaseURL)

	// Groq serves both chat and Whisper, so its key doubles as the
	// transcription key.
	if out.Transcription.APIKey == "" {
		out.Transcription.APIKey = out.Groq.APIKey
	}
	if c.Timeout > 0 {
		out.Timeout = c.Timeout
	}
	if c.MaxAttempts > 0 {
		out.Retry.MaxAttempts = c.MaxAttempts
	}
	if c.MaxRetryAfter > 0 {
		out.Retry.MaxRetryAfter = c.MaxRetryAfter
	}
	return out
}

// RoleConfig returns the role architect settings.
func (c InterviewConfig) RoleConfig() questiongen.RoleConfig {
	rc := questiongen.DefaultRoleConfig()
	if c.DefaultQuestionCount > 0 {
		rc.DefaultQuestionCount = c.DefaultQuestionCount
	}
	if c.MaxResumeChars > 0 {
		rc.MaxResumeChars = c.MaxResumeChars
	}
	return rc
}
