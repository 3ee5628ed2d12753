package progress

import "github.com/abhisek/cheatsheet/internal/llm"

// EvaluationSchema defines the JSON schema for answer grading responses.
var EvaluationSchema = &llm.Schema{
	Name:        "answer-evaluation",
	Description: "Grade of a student's answer against the expected understanding of a concept",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"score": map[string]any{
				"type":        "number",
				"description": "Score from 0 to 100",
			},
			"is_correct": map[string]any{
				"type":        "boolean",
				"description": "Whether the answer demonstrates correct understanding",
			},
			"feedback": map[string]any{
				"type":        "string",
				"description": "Brief feedback for the student",
			},
		},
		"required":             []any{"score", "is_correct", "feedback"},
		"additionalProperties": false,
	},
}
