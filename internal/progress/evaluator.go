package progress

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"text/template"

	"github.com/abhisek/cheatsheet/internal/llm"
	"github.com/abhisek/cheatsheet/internal/metrics"
	"github.com/abhisek/cheatsheet/internal/store"
)

// Result is the grade of one answer.
type Result struct {
	Score     int    `json:"score"`
	IsCorrect bool   `json:"is_correct"`
	Feedback  string `json:"feedback"`

	// Fallback is set when the grade did not come from the model.
	Fallback bool `json:"-"`
}

const (
	feedbackNotFound    = "Concept not found"
	feedbackUnable      = "Unable to evaluate answer"
	feedbackErrorPrefix = "Evaluation error: "
)

// EvaluatorConfig holds configuration for answer grading.
type EvaluatorConfig struct {
	MaxTokens   int
	Temperature float64
}

// DefaultEvaluatorConfig returns the grading defaults.
func DefaultEvaluatorConfig() EvaluatorConfig {
	return EvaluatorConfig{
		MaxTokens:   400,
		Temperature: 0.3,
	}
}

// Evaluator grades free-form answers with the LLM.
type Evaluator struct {
	provider llm.Provider
	store    *store.Store
	cfg      EvaluatorConfig
	metrics  *metrics.Metrics
}

// NewEvaluator creates an Evaluator. m may be nil.
func NewEvaluator(provider llm.Provider, s *store.Store, cfg EvaluatorConfig, m *metrics.Metrics) *Evaluator {
	return &Evaluator{provider: provider, store: s, cfg: cfg, metrics: m}
}

type evaluationOutput struct {
	Score     float64 `json:"score"`
	IsCorrect bool    `json:"is_correct"`
	Feedback  string  `json:"feedback"`
}

// Evaluate grades answer against the concept at ref. It never fails: an
// unknown concept scores 0, and an unreachable or unparseable model
// response scores a neutral 50.
func (e *Evaluator) Evaluate(ctx context.Context, answer, ref string) Result {
	concept, ok, err := e.store.GetConcept(ref)
	if err != nil {
		slog.Warn("evaluate: load concept failed", "ref", ref, "error", err)
		return e.fallback("evaluate", Result{Score: 50, Feedback: feedbackErrorPrefix + err.Error()})
	}
	if !ok {
		return Result{Score: 0, Feedback: feedbackNotFound, Fallback: true}
	}

	ctx = llm.WithPurpose(ctx, llm.PurposeEvaluate)

	userMsg, err := render(evaluationTemplate, map[string]string{
		"Title":    concept.Title,
		"Expected": concept.Description(),
		"Answer":   answer,
	})
	if err != nil {
		return e.fallback("evaluate", Result{Score: 50, Feedback: feedbackErrorPrefix + err.Error()})
	}

	resp, err := e.provider.Generate(ctx, llm.Request{
		System:      evaluationSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: userMsg}},
		Schema:      EvaluationSchema,
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
	})
	if err != nil {
		slog.Warn("evaluate: LLM call failed, using fallback", "ref", ref, "error", err)
		return e.fallback("evaluate", failureResult(err))
	}

	var out evaluationOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		slog.Warn("evaluate: unparseable response, using fallback", "ref", ref, "error", err)
		return e.fallback("evaluate", Result{Score: 50, Feedback: feedbackErrorPrefix + err.Error()})
	}

	result := Result{
		Score:     clampScore(int(math.Round(out.Score))),
		IsCorrect: out.IsCorrect,
		Feedback:  out.Feedback,
	}
	e.metrics.RecordEvaluation(result.IsCorrect)
	return result
}

func (e *Evaluator) fallback(op string, r Result) Result {
	r.Fallback = true
	e.metrics.RecordFallback(op)
	return r
}

// failureResult maps an LLM failure to its neutral grade. A reply that
// arrived but could not be read is "unable to evaluate"; anything else
// carries the error text.
func failureResult(err error) Result {
	var invalid *llm.ErrInvalidResponse
	var unavailable *llm.ErrProviderUnavailable
	var limited *llm.ErrRateLimit
	if errors.As(err, &invalid) || errors.As(err, &unavailable) || errors.As(err, &limited) {
		return Result{Score: 50, Feedback: feedbackUnable}
	}
	return Result{Score: 50, Feedback: feedbackErrorPrefix + err.Error()}
}

const evaluationSystemPrompt = "You are an educational assessment AI. Evaluate student answers and provide constructive feedback."

var evaluationTemplate = template.Must(template.New("evaluate").Parse(`Evaluate this student answer:

Concept: {{.Title}}
Expected Understanding: {{.Expected}}

Student Answer: {{.Answer}}

Provide a JSON response with:
{
    "score": <0-100>,
    "is_correct": <true/false>,
    "feedback": "<brief feedback>"
}`))

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
