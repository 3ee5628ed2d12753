package llm

import "context"

// Purpose labels an LLM call in the event log and in metrics.
type Purpose string

const (
	PurposeEvaluate    Purpose = "evaluate"
	PurposeFeedback    Purpose = "feedback"
	PurposeProgressLog Purpose = "progress-log"
	PurposeExplain     Purpose = "explain"
	PurposeExtract     Purpose = "extract-concepts"

	purposeUnlabeled Purpose = "unknown"
)

// QuizPurpose labels the generation of one quiz type, e.g. "quiz-short_answer".
func QuizPurpose(quizType string) Purpose {
	return Purpose("quiz-" + quizType)
}

type purposeKey struct{}

// WithPurpose tags every LLM call made with ctx.
func WithPurpose(ctx context.Context, p Purpose) context.Context {
	return context.WithValue(ctx, purposeKey{}, p)
}

// PurposeFrom returns the tag set by WithPurpose, or "unknown".
func PurposeFrom(ctx context.Context) Purpose {
	if p, ok := ctx.Value(purposeKey{}).(Purpose); ok && p != "" {
		return p
	}
	return purposeUnlabeled
}
