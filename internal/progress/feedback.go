package progress

import (
	"context"
	"log/slog"
	"text/template"

	"github.com/abhisek/cheatsheet/internal/llm"
	"github.com/abhisek/cheatsheet/internal/metrics"
	"github.com/abhisek/cheatsheet/internal/store"
)

const (
	fallbackPraise = "Great job!"
	fallbackHint   = "Not quite right. Review the concept and try to identify the key distinctions."
)

// Feedback writes the short message shown right after an answer.
type Feedback struct {
	provider llm.Provider
	metrics  *metrics.Metrics
}

// NewFeedback creates a Feedback writer. m may be nil.
func NewFeedback(provider llm.Provider, m *metrics.Metrics) *Feedback {
	return &Feedback{provider: provider, metrics: m}
}

// Instant returns one or two encouraging sentences for the learner.
func (f *Feedback) Instant(ctx context.Context, concept store.Concept, correct bool, answer string) string {
	ctx = llm.WithPurpose(ctx, llm.PurposeFeedback)

	fallback := fallbackHint
	tmpl := hintTemplate
	if correct {
		fallback = fallbackPraise
		tmpl = praiseTemplate
	}

	userMsg, err := render(tmpl, map[string]string{
		"Title":   concept.Title,
		"Content": concept.Description(),
		"Answer":  answer,
	})
	if err != nil {
		return fallback
	}

	resp, err := f.provider.Generate(ctx, llm.Request{
		System:      feedbackSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: userMsg}},
		MaxTokens:   80,
		Temperature: 0.7,
	})
	if err != nil {
		slog.Warn("feedback: LLM call failed, using fallback", "error", err)
		f.metrics.RecordFallback("feedback")
		return fallback
	}
	if text := resp.Text(); text != "" {
		return text
	}
	f.metrics.RecordFallback("feedback")
	return fallback
}

const feedbackSystemPrompt = "You are a supportive educational AI that provides concise, actionable feedback."

var praiseTemplate = template.Must(template.New("praise").Parse(`Generate brief, encouraging feedback (1-2 sentences, max 30 words) for a student who answered correctly.

Concept: {{.Title}}
Description: {{.Content}}

Acknowledge their understanding and optionally mention a key insight they demonstrated.

Your feedback:`))

var hintTemplate = template.Must(template.New("hint").Parse(`Generate brief, constructive feedback (1-2 sentences, max 30 words) for a student who answered incorrectly.

Concept: {{.Title}}
Description: {{.Content}}
Their answer: {{.Answer}}

Be encouraging and hint at what to review, without giving away the full answer.

Your feedback:`))
