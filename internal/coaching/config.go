package coaching

// Config holds feedback generation settings.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns sensible defaults for answer feedback.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   768,
		Temperature: 0.7,
	}
}

// ReportConfig holds final report settings.
type ReportConfig struct {
	MaxTokens   int
	Temperature float64
}

// DefaultReportConfig returns sensible defaults for the final report.
func DefaultReportConfig() ReportConfig {
	return ReportConfig{
		MaxTokens:   2000,
		Temperature: 0.6,
	}
}
