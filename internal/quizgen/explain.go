package quizgen

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/abhisek/cheatsheet/internal/llm"
)

const noExplanation = "No explanation available"

// Explanation is a recap of one concept.
type Explanation struct {
	Ref         string `json:"concept_ref,omitempty"`
	Title       string `json:"title,omitempty"`
	Content     string `json:"content,omitempty"`
	Explanation string `json:"explanation"`
}

// Explain writes a short recap of the concept at ref. A missing concept
// yields "No explanation available"; a failed model call yields
// "This concept covers <title>. <content>".
func (g *Generator) Explain(ctx context.Context, ref string) Explanation {
	concept, ok, err := g.store.GetConcept(ref)
	if err != nil {
		slog.Warn("explain: load concept failed", "ref", ref, "error", err)
	}
	if !ok {
		return Explanation{Explanation: noExplanation}
	}

	ex := Explanation{
		Ref:         ref,
		Title:       concept.Title,
		Content:     concept.Description(),
		Explanation: fmt.Sprintf("This concept covers %s. %s", concept.Title, concept.Description()),
	}

	ctx = llm.WithPurpose(ctx, llm.PurposeExplain)
	userMsg, err := render(explainTemplate, concept)
	if err != nil {
		return ex
	}

	resp, err := g.provider.Generate(ctx, llm.Request{
		System:      explainSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: userMsg}},
		MaxTokens:   g.config.ExplainMaxTokens,
		Temperature: g.config.ExplainTemperature,
	})
	if err != nil {
		slog.Warn("explain: LLM call failed, using fallback", "ref", ref, "error", err)
		g.metrics.RecordFallback("explain")
		return ex
	}
	if text := resp.Text(); text != "" {
		ex.Explanation = text
	} else {
		g.metrics.RecordFallback("explain")
	}
	return ex
}

// Summary explains every concept in refs, in order. It closes a study
// session once nothing is left to quiz.
func (g *Generator) Summary(ctx context.Context, refs []string) []Explanation {
	out := make([]Explanation, 0, len(refs))
	for _, ref := range refs {
		if ctx.Err() != nil {
			break
		}
		ex := g.Explain(ctx, ref)
		if ex.Title == "" {
			continue
		}
		out = append(out, ex)
	}
	return out
}
