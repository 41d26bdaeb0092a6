package llm

import "testing"

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"GROQ_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}
}

func TestDiscoverConfig_None(t *testing.T) {
	clearProviderEnv(t)
	if _, ok := DiscoverConfig(); ok {
		t.Fatal("expected no provider to be discovered")
	}
}

func TestDiscoverConfig_Priority(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("OPENAI_API_KEY", "oa")
	t.Setenv("GROQ_API_KEY", "gq")

	cfg, ok := DiscoverConfig()
	if !ok {
		t.Fatal("expected a provider")
	}
	if cfg.Provider != "groq" || cfg.Groq.APIKey != "gq" {
		t.Fatalf("unexpected config: provider=%q key=%q", cfg.Provider, cfg.Groq.APIKey)
	}
	if cfg.Transcription.APIKey != "gq" {
		t.Fatal("groq key should also enable transcription")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"mock", func(c *Config) { c.Provider = "mock" }, false},
		{"groq without key", func(c *Config) { c.Provider = "groq" }, true},
		{"groq with key", func(c *Config) { c.Provider = "groq"; c.Groq.APIKey = "k" }, false},
		{"ollama default model", func(c *Config) { c.Provider = "ollama" }, false},
		{"anthropic without key", func(c *Config) { c.Provider = "anthropic" }, true},
		{"unknown", func(c *Config) { c.Provider = "bard" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
