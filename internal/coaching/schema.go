package coaching

import "github.com/abhisek/mockprep/internal/llm"

// FeedbackSchema defines the JSON schema for per-answer coaching.
var FeedbackSchema = &llm.Schema{
	Name:        "answer-feedback",
	Description: "Coaching for one interview answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"ideal_answer": map[string]any{
				"type":        "string",
				"description": "What a strong answer would include (2-3 sentences)",
			},
			"mistakes": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Specific, actionable mistakes",
			},
			"improvement_tips": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Practical tips, 2-4 items",
			},
		},
		"required":             []any{"ideal_answer", "mistakes", "improvement_tips"},
		"additionalProperties": false,
	},
}

// ReportSchema defines the JSON schema for the final report prose.
// Scores are computed locally and are not part of it.
var ReportSchema = &llm.Schema{
	Name:        "interview-report",
	Description: "Narrative summary of a finished mock interview",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": map[string]any{
				"type":        "string",
				"description": "2-3 paragraph overall summary of performance",
			},
			"strengths": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"weak_areas": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"recommendations": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"required":             []any{"summary", "strengths", "weak_areas", "recommendations"},
		"additionalProperties": false,
	},
}
