package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"text/template"

	"github.com/abhisek/cheatsheet/internal/llm"
	"github.com/abhisek/cheatsheet/internal/metrics"
	"github.com/abhisek/cheatsheet/internal/store"
)

// RecorderConfig holds configuration for learning-log generation.
type RecorderConfig struct {
	MaxTokens   int
	Temperature float64
}

// DefaultRecorderConfig returns the log-line defaults.
func DefaultRecorderConfig() RecorderConfig {
	return RecorderConfig{
		MaxTokens:   200,
		Temperature: 0.7,
	}
}

// Recorder applies evaluation results to the progress document.
type Recorder struct {
	provider  llm.Provider
	store     *store.Store
	eventRepo store.EventRepo
	cfg       RecorderConfig
	metrics   *metrics.Metrics
}

// NewRecorder creates a Recorder. eventRepo and m may be nil.
func NewRecorder(provider llm.Provider, s *store.Store, eventRepo store.EventRepo, cfg RecorderConfig, m *metrics.Metrics) *Recorder {
	return &Recorder{provider: provider, store: s, eventRepo: eventRepo, cfg: cfg, metrics: m}
}

// UpdateFreshnessAndLog folds result into the concept's freshness and
// appends a learning-log line. The log line is generated by the LLM and
// falls back to "[Score: N] feedback"; the update is persisted either way.
// Unknown references are rejected with store.ErrNotFound so that the
// policy never targets a concept that does not exist.
func (r *Recorder) UpdateFreshnessAndLog(ctx context.Context, ref string, result Result) (store.ProgressEntry, error) {
	concept, ok, err := r.store.GetConcept(ref)
	if err != nil {
		return store.ProgressEntry{}, err
	}
	if !ok {
		return store.ProgressEntry{}, fmt.Errorf("concept %q: %w", ref, store.ErrNotFound)
	}

	prev, exists := r.store.ProgressEntry(ref)
	line := r.logLine(ctx, concept, result, prev)

	entry, err := r.store.UpdateProgress(ref, func(cur store.ProgressEntry, exists bool) store.ProgressEntry {
		var prevFreshness *float64
		if exists {
			prevFreshness = &cur.Freshness
		}
		cur.Freshness = NextFreshness(prevFreshness, result.Score)
		cur.Log = append(cur.Log, line)
		return cur
	})
	if err != nil {
		return store.ProgressEntry{}, err
	}

	if err := r.store.SetConceptFreshness(ref, entry.Freshness); err != nil && !errors.Is(err, store.ErrNotFound) {
		return store.ProgressEntry{}, fmt.Errorf("mirror freshness: %w", err)
	}

	if r.eventRepo != nil {
		ev := store.EvaluationEventData{
			Ref:       ref,
			Score:     result.Score,
			Correct:   result.IsCorrect,
			Freshness: entry.Freshness,
			Fallback:  result.Fallback,
		}
		if err := r.eventRepo.AppendEvaluation(context.WithoutCancel(ctx), ev); err != nil {
			slog.Warn("failed to log evaluation event", "ref", ref, "error", err)
		}
	}

	slog.Debug("progress updated", "ref", ref, "first", !exists, "freshness", entry.Freshness)
	return entry, nil
}

// FallbackLogLine is the log line used when the LLM cannot write one.
func FallbackLogLine(result Result) string {
	return fmt.Sprintf("[Score: %d] %s", result.Score, result.Feedback)
}

func (r *Recorder) logLine(ctx context.Context, concept store.Concept, result Result, prev store.ProgressEntry) string {
	ctx = llm.WithPurpose(ctx, llm.PurposeProgressLog)

	recent := prev.Log
	if len(recent) > 2 {
		recent = recent[len(recent)-2:]
	}
	recentJSON, _ := json.Marshal(recent)
	if recent == nil {
		recentJSON = []byte("[]")
	}

	userMsg, err := render(logTemplate, map[string]any{
		"Title":         concept.Title,
		"Content":       concept.Description(),
		"Score":         result.Score,
		"Correct":       result.IsCorrect,
		"Feedback":      result.Feedback,
		"PrevFreshness": fmt.Sprintf("%.2f", prev.Freshness),
		"Attempt":       len(prev.Log) + 1,
		"Recent":        string(recentJSON),
	})
	if err != nil {
		r.metrics.RecordFallback("progress-log")
		return FallbackLogLine(result)
	}

	resp, err := r.provider.Generate(ctx, llm.Request{
		System:      logSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: userMsg}},
		MaxTokens:   r.cfg.MaxTokens,
		Temperature: r.cfg.Temperature,
	})
	if err != nil {
		slog.Warn("progress log: LLM call failed, using simple log", "error", err)
		r.metrics.RecordFallback("progress-log")
		return FallbackLogLine(result)
	}

	line := resp.Text()
	if line == "" {
		r.metrics.RecordFallback("progress-log")
		return FallbackLogLine(result)
	}
	return line
}

const logSystemPrompt = "You are an expert educational AI that provides detailed, actionable learning insights."

var logTemplate = template.Must(template.New("progress-log").Parse(`As an educational AI tutor, analyze this student's learning progress and generate a concise, insightful log entry.

Concept: {{.Title}}
Description: {{.Content}}

Current Performance:
- Score: {{.Score}}/100
- Correct: {{.Correct}}
- Feedback: {{.Feedback}}

Learning History:
- Previous Freshness: {{.PrevFreshness}}
- Attempt #: {{.Attempt}}
- Recent Progress: {{.Recent}}

Generate a single-line log entry (60-100 words) that captures:
1. What the student understands or misunderstands
2. Specific learning progress or patterns observed
3. Actionable next steps if needed

Format: [Category] Detailed observation with specific examples and next steps.
Categories: [Concept], [Vocabulary], [Examples], [Mental Model], [Workflow], [Habits], [Pitfall], [Recognition], [Next]

Example: "[Concept] Initially conflated concurrency with parallelism; after timeline + interleaving demo, can now define both distinctly but still occasionally says 'simultaneous' for concurrency."

Your log entry:`))
