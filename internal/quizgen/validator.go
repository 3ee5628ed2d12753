package quizgen

import "fmt"

// Validator checks a generated question before it is shown.
// Implementations should be stateless and safe for concurrent use.
type Validator interface {
	Name() string
	Validate(q Question) *ValidationError
}

// ValidationError describes why a question failed validation.
type ValidationError struct {
	Validator string
	Message   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}

// StructuralValidator checks that the question text is present, choice
// questions have distinct usable options, and answer indices are in range.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(q Question) *ValidationError {
	if q.Prompt() == "" {
		return v.fail("question is empty")
	}
	if len(q.Prompt()) > 1000 {
		return v.fail("question exceeds 1000 characters")
	}

	switch q := q.(type) {
	case SingleChoice:
		if err := v.options(q.Options); err != nil {
			return err
		}
		if q.Answer < 0 || q.Answer >= len(q.Options) {
			return v.fail(fmt.Sprintf("correct_answer %d out of range", q.Answer))
		}
	case MultiChoice:
		if err := v.options(q.Options); err != nil {
			return err
		}
		if len(q.Answers) == 0 {
			return v.fail("correct_answer is empty")
		}
		seen := make(map[int]bool, len(q.Answers))
		for _, a := range q.Answers {
			if a < 0 || a >= len(q.Options) {
				return v.fail(fmt.Sprintf("correct_answer %d out of range", a))
			}
			if seen[a] {
				return v.fail(fmt.Sprintf("correct_answer %d repeated", a))
			}
			seen[a] = true
		}
	case ShortAnswer:
		if q.ExpectedAnswer == "" {
			return v.fail("expected_answer is empty")
		}
	}
	return nil
}

func (v *StructuralValidator) options(options []string) *ValidationError {
	if len(options) < 2 || len(options) > 6 {
		return v.fail(fmt.Sprintf("expected 2-6 options, got %d", len(options)))
	}
	seen := make(map[string]bool, len(options))
	for _, o := range options {
		if o == "" {
			return v.fail("option is empty")
		}
		if seen[o] {
			return v.fail(fmt.Sprintf("duplicate option %q", o))
		}
		seen[o] = true
	}
	return nil
}

func (v *StructuralValidator) fail(msg string) *ValidationError {
	return &ValidationError{Validator: v.Name(), Message: msg}
}
