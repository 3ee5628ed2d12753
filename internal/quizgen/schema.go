package quizgen

import (
	"github.com/abhisek/cheatsheet/internal/llm"
	"github.com/abhisek/cheatsheet/internal/tutor"
)

// SingleChoiceSchema defines the JSON schema for single-choice questions.
var SingleChoiceSchema = &llm.Schema{
	Name:        "quiz-single-choice",
	Description: "A single-choice question with four options and one correct answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question": map[string]any{
				"type":        "string",
				"description": "The question text",
			},
			"options": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Exactly 4 answer options",
			},
			"correct_answer": map[string]any{
				"type":        "integer",
				"description": "Index of the correct option, 0-3",
			},
		},
		"required":             []any{"question", "options", "correct_answer"},
		"additionalProperties": false,
	},
}

// MultiChoiceSchema defines the JSON schema for multiple-choice questions.
var MultiChoiceSchema = &llm.Schema{
	Name:        "quiz-multi-choice",
	Description: "A multiple-choice question with four options of which two or three are correct",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question": map[string]any{
				"type":        "string",
				"description": "The question text",
			},
			"options": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Exactly 4 answer options",
			},
			"correct_answer": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "integer"},
				"description": "Indices of the correct options",
			},
		},
		"required":             []any{"question", "options", "correct_answer"},
		"additionalProperties": false,
	},
}

// ShortAnswerSchema defines the JSON schema for short-answer questions.
var ShortAnswerSchema = &llm.Schema{
	Name:        "quiz-short-answer",
	Description: "A short-answer question with the expected answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question": map[string]any{
				"type":        "string",
				"description": "The question text",
			},
			"expected_answer": map[string]any{
				"type":        "string",
				"description": "What a good answer should contain",
			},
		},
		"required":             []any{"question", "expected_answer"},
		"additionalProperties": false,
	},
}

func schemaFor(kind tutor.QuizType) *llm.Schema {
	switch kind {
	case tutor.QuizMultiChoice:
		return MultiChoiceSchema
	case tutor.QuizShortAnswer:
		return ShortAnswerSchema
	default:
		return SingleChoiceSchema
	}
}
