package quizgen

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/abhisek/cheatsheet/internal/store"
	"github.com/abhisek/cheatsheet/internal/tutor"
)

// Question is one of SingleChoice, MultiChoice or ShortAnswer.
type Question interface {
	Kind() tutor.QuizType
	Prompt() string
}

// SingleChoice has exactly one correct option.
type SingleChoice struct {
	Question string
	Options  []string
	Answer   int
}

// MultiChoice has one or more correct options.
type MultiChoice struct {
	Question string
	Options  []string
	Answers  []int
}

// ShortAnswer is answered in free text.
type ShortAnswer struct {
	Question       string
	ExpectedAnswer string
}

func (SingleChoice) Kind() tutor.QuizType { return tutor.QuizSingleChoice }
func (MultiChoice) Kind() tutor.QuizType  { return tutor.QuizMultiChoice }
func (ShortAnswer) Kind() tutor.QuizType  { return tutor.QuizShortAnswer }

func (q SingleChoice) Prompt() string { return q.Question }
func (q MultiChoice) Prompt() string  { return q.Question }
func (q ShortAnswer) Prompt() string  { return q.Question }

// Quiz is a generated question bound to the concept it tests.
type Quiz struct {
	ID       string
	Ref      string
	Concept  store.Concept
	Question Question

	// Fallback is set when the question did not come from the model.
	Fallback bool
}

type quizWire struct {
	ID             string        `json:"id"`
	Type           string        `json:"type"`
	Question       string        `json:"question"`
	Options        []string      `json:"options,omitempty"`
	CorrectAnswer  any           `json:"correct_answer,omitempty"`
	ExpectedAnswer string        `json:"expected_answer,omitempty"`
	ConceptRef     string        `json:"concept_ref"`
	Concept        store.Concept `json:"concept"`
}

// MarshalJSON flattens the question variant into a single object.
func (q Quiz) MarshalJSON() ([]byte, error) {
	w := quizWire{
		ID:         q.ID,
		ConceptRef: q.Ref,
		Concept:    q.Concept,
	}
	switch v := q.Question.(type) {
	case SingleChoice:
		w.Type = string(v.Kind())
		w.Question = v.Question
		w.Options = v.Options
		w.CorrectAnswer = v.Answer
	case MultiChoice:
		w.Type = string(v.Kind())
		w.Question = v.Question
		w.Options = v.Options
		w.CorrectAnswer = v.Answers
	case ShortAnswer:
		w.Type = string(v.Kind())
		w.Question = v.Question
		w.ExpectedAnswer = v.ExpectedAnswer
	default:
		return nil, fmt.Errorf("quiz %s: unknown question type %T", q.ID, q.Question)
	}
	return json.Marshal(w)
}

// Options returns the answer options of a choice question, or nil.
func (q Quiz) Options() []string {
	switch v := q.Question.(type) {
	case SingleChoice:
		return v.Options
	case MultiChoice:
		return v.Options
	}
	return nil
}

// ErrInvalidAnswer marks learner input that cannot be resolved to an
// answer. Callers ask again instead of grading.
var ErrInvalidAnswer = errors.New("invalid answer")

// ResolveAnswer turns learner input into the answer text that gets
// graded. Choice questions take 1-based option numbers separated by
// commas or spaces; short answers are used as typed.
func (q Quiz) ResolveAnswer(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("%w: empty answer", ErrInvalidAnswer)
	}

	options := q.Options()
	if options == nil {
		return input, nil
	}

	fields := strings.FieldsFunc(input, func(r rune) bool { return r == ',' || r == ' ' })
	if _, single := q.Question.(SingleChoice); single && len(fields) != 1 {
		return "", fmt.Errorf("%w: pick exactly one option", ErrInvalidAnswer)
	}

	picked := make([]string, 0, len(fields))
	seen := make(map[int]bool)
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 1 || n > len(options) {
			return "", fmt.Errorf("%w: %q is not an option between 1 and %d", ErrInvalidAnswer, f, len(options))
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		picked = append(picked, options[n-1])
	}
	return strings.Join(picked, "; "), nil
}
