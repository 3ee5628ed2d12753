// Package tutor decides the next pedagogical step from stored progress
// and the active working set.
package tutor

import "github.com/abhisek/cheatsheet/internal/store"

// Action is the next step of a study session.
type Action string

const (
	ActionShortAnswer  Action = "generateQue_shortAnswer"
	ActionSingleChoice Action = "generateQue_singleChoice"
	ActionMultiChoice  Action = "generateQue_multiChoice"
	ActionExplain      Action = "generateExplaination"
)

// QuizType names a quiz variant.
type QuizType string

const (
	QuizSingleChoice QuizType = "single_choice"
	QuizMultiChoice  QuizType = "multi_choice"
	QuizShortAnswer  QuizType = "short_answer"
)

// DefaultRemediationThreshold is the freshness below which a quizzed
// concept is re-quizzed.
const DefaultRemediationThreshold = 0.7

const (
	reasonRemediate = "Low freshness score; retry with short-answer to test articulation"
	reasonIntroduce = "Continue with new concept"
	reasonConclude  = "All concepts covered; provide summary"
)

// Decision is the outcome of one policy evaluation.
type Decision struct {
	Decision          Action    `json:"decision"`
	Reason            string    `json:"reason"`
	TargetRef         *string   `json:"target_ref"`
	PreferredQuizType *QuizType `json:"preferred_quiz_type"`
}

// Target returns the target reference, or "" when there is none.
func (d Decision) Target() string {
	if d.TargetRef == nil {
		return ""
	}
	return *d.TargetRef
}

// QuizType returns the preferred quiz type, or "" when there is none.
func (d Decision) QuizType() QuizType {
	if d.PreferredQuizType == nil {
		return ""
	}
	return *d.PreferredQuizType
}

// Concludes reports whether the session is over.
func (d Decision) Concludes() bool {
	return d.Decision == ActionExplain
}

// Policy is the decide-next rule set.
type Policy struct {
	RemediationThreshold float64
}

// NewPolicy returns a Policy with the default threshold.
func NewPolicy() Policy {
	return Policy{RemediationThreshold: DefaultRemediationThreshold}
}

// Decide picks the next step, in priority order:
//  1. the first progress entry (insertion order) below the threshold is
//     re-quizzed with a short answer;
//  2. otherwise the first active reference without progress is
//     introduced with a single-choice question;
//  3. otherwise the session concludes.
//
// Decide has no side effects.
func (p Policy) Decide(progress *store.Progress, active []string) Decision {
	threshold := p.RemediationThreshold
	if threshold <= 0 {
		threshold = DefaultRemediationThreshold
	}

	for _, ref := range progress.Refs() {
		entry, _ := progress.Get(ref)
		if entry.Freshness < threshold {
			return target(ActionShortAnswer, reasonRemediate, ref, QuizShortAnswer)
		}
	}

	for _, ref := range active {
		if _, quizzed := progress.Get(ref); !quizzed {
			return target(ActionSingleChoice, reasonIntroduce, ref, QuizSingleChoice)
		}
	}

	return Decision{Decision: ActionExplain, Reason: reasonConclude}
}

func target(a Action, reason, ref string, qt QuizType) Decision {
	return Decision{Decision: a, Reason: reason, TargetRef: &ref, PreferredQuizType: &qt}
}

// ActionFor maps a quiz type to its generation action.
func ActionFor(qt QuizType) Action {
	switch qt {
	case QuizMultiChoice:
		return ActionMultiChoice
	case QuizShortAnswer:
		return ActionShortAnswer
	default:
		return ActionSingleChoice
	}
}
