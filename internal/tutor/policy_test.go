package tutor

import (
	"encoding/json"
	"testing"

	"github.com/abhisek/cheatsheet/internal/store"
)

func progressOf(entries ...any) *store.Progress {
	p := store.NewProgress()
	for i := 0; i < len(entries); i += 2 {
		p.Set(entries[i].(string), store.ProgressEntry{Freshness: entries[i+1].(float64)})
	}
	return p
}

func TestRemediationDominatesIntroduction(t *testing.T) {
	d := NewPolicy().Decide(progressOf("A", 0.5), []string{"A", "B"})

	if d.Decision != ActionShortAnswer {
		t.Fatalf("decision = %s, want %s", d.Decision, ActionShortAnswer)
	}
	if d.Target() != "A" {
		t.Errorf("target = %q, want A", d.Target())
	}
	if d.QuizType() != QuizShortAnswer {
		t.Errorf("quiz type = %q, want short_answer", d.QuizType())
	}
	if d.Reason != "Low freshness score; retry with short-answer to test articulation" {
		t.Errorf("reason = %q", d.Reason)
	}
}

func TestRemediationPicksFirstInInsertionOrder(t *testing.T) {
	// C is weaker than B but was quizzed later.
	d := NewPolicy().Decide(progressOf("A", 0.9, "B", 0.6, "C", 0.1), nil)
	if d.Target() != "B" {
		t.Errorf("target = %q, want B", d.Target())
	}
}

func TestRemediationIgnoresActiveSet(t *testing.T) {
	// Progress outside the working set still counts.
	d := NewPolicy().Decide(progressOf("OLD", 0.2), []string{"NEW"})
	if d.Target() != "OLD" {
		t.Errorf("target = %q, want OLD", d.Target())
	}
}

func TestIntroduceFirstUnquizzed(t *testing.T) {
	d := NewPolicy().Decide(progressOf("A", 0.8), []string{"A", "B", "C"})

	if d.Decision != ActionSingleChoice {
		t.Fatalf("decision = %s, want %s", d.Decision, ActionSingleChoice)
	}
	if d.Target() != "B" {
		t.Errorf("target = %q, want B", d.Target())
	}
	if d.QuizType() != QuizSingleChoice {
		t.Errorf("quiz type = %q, want single_choice", d.QuizType())
	}
	if d.Reason != "Continue with new concept" {
		t.Errorf("reason = %q", d.Reason)
	}
}

func TestThresholdIsStrict(t *testing.T) {
	d := NewPolicy().Decide(progressOf("A", 0.7), []string{"A"})
	if !d.Concludes() {
		t.Errorf("freshness exactly at threshold should not remediate, got %s", d.Decision)
	}
}

func TestConclude(t *testing.T) {
	d := NewPolicy().Decide(progressOf("A", 0.7, "B", 1.0), []string{"A", "B"})

	if !d.Concludes() {
		t.Fatalf("decision = %s, want %s", d.Decision, ActionExplain)
	}
	if d.TargetRef != nil || d.PreferredQuizType != nil {
		t.Errorf("conclude should carry no target, got %+v", d)
	}
	if d.Reason != "All concepts covered; provide summary" {
		t.Errorf("reason = %q", d.Reason)
	}

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"decision":"generateExplaination","reason":"All concepts covered; provide summary","target_ref":null,"preferred_quiz_type":null}`
	if string(data) != want {
		t.Errorf("json = %s\nwant   %s", data, want)
	}
}

func TestEmptyInputsConclude(t *testing.T) {
	if d := NewPolicy().Decide(store.NewProgress(), nil); !d.Concludes() {
		t.Errorf("decision = %s, want conclude", d.Decision)
	}
	if d := NewPolicy().Decide(nil, []string{"A"}); d.Target() != "A" {
		t.Errorf("nil progress: target = %q, want A", d.Target())
	}
}

func TestCustomThreshold(t *testing.T) {
	p := Policy{RemediationThreshold: 0.9}
	if d := p.Decide(progressOf("A", 0.85), []string{"A"}); d.Target() != "A" {
		t.Errorf("target = %q, want A", d.Target())
	}
}

func TestActionFor(t *testing.T) {
	tests := map[QuizType]Action{
		QuizSingleChoice: ActionSingleChoice,
		QuizMultiChoice:  ActionMultiChoice,
		QuizShortAnswer:  ActionShortAnswer,
		"":               ActionSingleChoice,
	}
	for qt, want := range tests {
		if got := ActionFor(qt); got != want {
			t.Errorf("ActionFor(%q) = %s, want %s", qt, got, want)
		}
	}
}
