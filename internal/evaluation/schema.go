package evaluation

import "github.com/abhisek/mockprep/internal/llm"

// EvaluationSchema is the structured output of the answer evaluator.
// Score ranges depend on the rubric and are checked after decoding.
var EvaluationSchema = &llm.Schema{
	Name:        "answer-evaluation",
	Description: "Rubric scores and notes for one interview answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"scores": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"correctness": map[string]any{"type": "number"},
					"clarity":     map[string]any{"type": "number"},
					"depth":       map[string]any{"type": "number"},
					"relevance":   map[string]any{"type": "number"},
				},
				"required":             []any{"correctness", "clarity", "depth", "relevance"},
				"additionalProperties": false,
			},
			"overall_score": map[string]any{
				"type":        "number",
				"description": "Overall score from 0 to 10",
			},
			"weaknesses": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"notes": map[string]any{
				"type":        "string",
				"description": "Why this score was given",
			},
			"needs_followup": map[string]any{"type": "boolean"},
			"followup_reason": map[string]any{
				"type":        "string",
				"description": "Short reason such as 'lacks depth'; empty when no follow-up is needed",
			},
		},
		"required":             []any{"scores", "overall_score", "weaknesses", "notes", "needs_followup", "followup_reason"},
		"additionalProperties": false,
	},
}
