package questiongen

import (
	"github.com/abhisek/mockprep/internal/interview"
	"github.com/abhisek/mockprep/internal/llm"
)

var difficultyEnum = []any{"easy", "medium", "hard"}

// questionSchema pins the category to the one the scheduler asked for, so
// an off-category question fails validation instead of skewing the plan.
func questionSchema(category interview.Category) *llm.Schema {
	return &llm.Schema{
		Name:        "interview-question-" + string(category),
		Description: "The next interview question",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"intro": map[string]any{
					"type":        "string",
					"description": "Brief natural lead-in to the question, may be empty",
				},
				"question": map[string]any{
					"type":        "string",
					"description": "The question to ask the candidate",
				},
				"skill": map[string]any{
					"type":        "string",
					"description": "The skill this question tests",
				},
				"difficulty": map[string]any{
					"type": "string",
					"enum": difficultyEnum,
				},
				"category": map[string]any{
					"type": "string",
					"enum": []any{string(category)},
				},
			},
			"required":             []any{"intro", "question", "skill", "difficulty", "category"},
			"additionalProperties": false,
		},
	}
}

// RoleSchema is what the role architect returns. Categories and question
// count come from the request, not the model.
var RoleSchema = &llm.Schema{
	Name:        "interview-role-block",
	Description: "Role name, skills, difficulty and rubric for an interview",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"role_name": map[string]any{
				"type":        "string",
				"description": "Job title, e.g. 'Senior Node.js Developer'",
			},
			"skills": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Key skills to probe",
			},
			"difficulty": map[string]any{
				"type": "string",
				"enum": difficultyEnum,
			},
			"evaluation_rubric": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"correctness": map[string]any{"type": "integer"},
					"clarity":     map[string]any{"type": "integer"},
					"depth":       map[string]any{"type": "integer"},
					"relevance":   map[string]any{"type": "integer"},
				},
				"required":             []any{"correctness", "clarity", "depth", "relevance"},
				"additionalProperties": false,
			},
			"context_notes": map[string]any{
				"type":        "string",
				"description": "What the interview should focus on; empty when there is nothing to add",
			},
		},
		"required":             []any{"role_name", "skills", "difficulty", "evaluation_rubric", "context_notes"},
		"additionalProperties": false,
	},
}
