package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/abhisek/mockprep/internal/llm"
)

// EnvPrefix prefixes every environment override, e.g.
// MOCKPREP_LLM_GROQ_API_KEY for llm.groq.api_key.
const EnvPrefix = "MOCKPREP"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.lock_ttl", 2*time.Minute)
	v.SetDefault("redis.lock_wait", 10*time.Second)

	v.SetDefault("llm.provider", "")
	for _, p := range []string{"anthropic", "openai", "gemini", "openrouter", "groq", "ollama", "transcription"} {
		v.SetDefault("llm."+p+".api_key", "")
		v.SetDefault("llm."+p+".model", "")
		v.SetDefault("llm."+p+".base_url", "")
	}
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("llm.max_attempts", 3)
	v.SetDefault("llm.max_retry_after", 20*time.Second)

	v.SetDefault("interview.default_question_count", 10)
	v.SetDefault("interview.max_resume_chars", 15000)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "mockprep")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
}

// Load reads configuration. path names a YAML file; when empty,
// mockprep.yaml is looked up in the working directory and
// $XDG_CONFIG_HOME/mockprep, and a missing file is not an error.
// A .env file in the working directory is loaded first without
// overriding variables that are already set.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	} else {
		v.SetConfigName("mockprep")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(dir + "/mockprep")
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	discoverLLM(&cfg.LLM)
	return &cfg, nil
}

// discoverLLM fills an unset provider from vendor API key variables
// (GROQ_API_KEY, OPENAI_API_KEY, ...) and falls back to the mock
// provider when none is present.
func discoverLLM(c *LLMConfig) {
	if c.Provider != "" {
		return
	}
	found, ok := llm.DiscoverConfig()
	if !ok {
		c.Provider = "mock"
		return
	}
	c.Provider = found.Provider
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&c.Groq.APIKey, found.Groq.APIKey)
	fill(&c.Gemini.APIKey, found.Gemini.APIKey)
	fill(&c.OpenAI.APIKey, found.OpenAI.APIKey)
	fill(&c.Anthropic.APIKey, found.Anthropic.APIKey)
	fill(&c.OpenRouter.APIKey, found.OpenRouter.APIKey)
	if c.Transcription.APIKey == "" && found.Transcription.APIKey != "" {
		c.Transcription.APIKey = found.Transcription.APIKey
		fill(&c.Transcription.BaseURL, found.Transcription.BaseURL)
		if found.Transcription.Model != llm.DefaultConfig().Transcription.Model {
			fill(&c.Transcription.Model, found.Transcription.Model)
		}
	}
}
