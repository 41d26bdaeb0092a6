package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearVendorKeys hides API keys from the developer's shell.
func clearVendorKeys(t *testing.T) {
	t.Helper()
	for _, k := range []string{"GROQ_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearVendorKeys(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 120*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 10, cfg.Interview.DefaultQuestionCount)
	assert.Equal(t, 15000, cfg.Interview.MaxResumeChars)
	assert.Equal(t, "mock", cfg.LLM.Provider)
	assert.Equal(t, 20*time.Second, cfg.LLM.LLM().Retry.MaxRetryAfter)
	assert.False(t, cfg.Auth.Enabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileAndEnv(t *testing.T) {
	clearVendorKeys(t)

	path := filepath.Join(t.TempDir(), "mockprep.yaml")
	yaml := `
server:
  addr: ":7000"
log:
  level: debug
llm:
  provider: groq
  groq:
    api_key: from-file
    model: llama-3.1-8b-instant
interview:
  default_question_count: 6
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("MOCKPREP_SERVER_ADDR", ":9090")
	t.Setenv("MOCKPREP_AUTH_JWT_SECRET", "s3cret")
	t.Setenv("MOCKPREP_REDIS_LOCK_WAIT", "3s")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr, "env beats file")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 6, cfg.Interview.DefaultQuestionCount)
	assert.Equal(t, 3*time.Second, cfg.Redis.LockWait)
	assert.True(t, cfg.Auth.Enabled())

	p := cfg.LLM.LLM()
	assert.Equal(t, "groq", p.Provider)
	assert.Equal(t, "from-file", p.Groq.APIKey)
	assert.Equal(t, "llama-3.1-8b-instant", p.Groq.Model)
	assert.Equal(t, "from-file", p.Transcription.APIKey, "groq key doubles for transcription")
	assert.Equal(t, "gpt-4o-mini", p.OpenAI.Model, "unset models keep defaults")

	rc := cfg.Interview.RoleConfig()
	assert.Equal(t, 6, rc.DefaultQuestionCount)
	assert.Equal(t, 0.3, rc.Temperature)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_DiscoversVendorKey(t *testing.T) {
	clearVendorKeys(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	p := cfg.LLM.LLM()
	assert.Equal(t, "sk-test", p.OpenAI.APIKey)
	assert.Equal(t, "sk-test", p.Transcription.APIKey)
	assert.Equal(t, "whisper-1", p.Transcription.Model)
	assert.Equal(t, "https://api.openai.com/v1", p.Transcription.BaseURL)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:    ServerConfig{Addr: ":8080"},
			Database:  DatabaseConfig{Driver: "sqlite"},
			LLM:       LLMConfig{Provider: "mock"},
			Interview: InterviewConfig{DefaultQuestionCount: 10},
		}
	}
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no addr", func(c *Config) { c.Server.Addr = "" }},
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = "postgres" }},
		{"question count", func(c *Config) { c.Interview.DefaultQuestionCount = 0 }},
		{"missing key", func(c *Config) { c.LLM.Provider = "anthropic" }},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "watson" }},
	}
	require.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
