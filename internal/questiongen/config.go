package questiongen

// Config controls question generation.
type Config struct {
	// MaxTokens is the token budget for the LLM response.
	MaxTokens int

	// Temperature controls LLM output randomness (0.0-1.0).
	Temperature float64
}

// DefaultConfig returns the recommended question generation settings.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   1024,
		Temperature: 0.7,
	}
}

// RoleConfig controls role block generation.
type RoleConfig struct {
	MaxTokens   int
	Temperature float64

	// ResumeTemperature applies to resume-based generation.
	ResumeTemperature float64

	// DefaultQuestionCount is used when a request leaves the count unset.
	DefaultQuestionCount int

	// MaxResumeChars truncates resume text before it is sent to the model.
	MaxResumeChars int
}

// DefaultRoleConfig returns the recommended role generation settings.
func DefaultRoleConfig() RoleConfig {
	return RoleConfig{
		MaxTokens:            1024,
		Temperature:          0.3,
		ResumeTemperature:    0.2,
		DefaultQuestionCount: 10,
		MaxResumeChars:       15000,
	}
}
