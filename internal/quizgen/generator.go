package quizgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/cheatsheet/internal/llm"
	"github.com/abhisek/cheatsheet/internal/metrics"
	"github.com/abhisek/cheatsheet/internal/store"
	"github.com/abhisek/cheatsheet/internal/tutor"
)

// Generator creates quiz questions and explanations for concepts.
type Generator struct {
	provider llm.Provider
	store    *store.Store
	config   Config
	metrics  *metrics.Metrics
}

// New creates a Generator. m may be nil.
func New(provider llm.Provider, s *store.Store, cfg Config, m *metrics.Metrics) *Generator {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Generator{provider: provider, store: s, config: cfg, metrics: m}
}

type questionOutput struct {
	Question       string          `json:"question"`
	Options        []string        `json:"options"`
	CorrectAnswer  json.RawMessage `json:"correct_answer"`
	ExpectedAnswer string          `json:"expected_answer"`
}

// Generate produces a question of the given kind for the concept at ref.
// A missing concept is store.ErrNotFound. When the model cannot produce
// a valid question, the fallback "What is <title>?" is returned instead.
func (g *Generator) Generate(ctx context.Context, ref string, kind tutor.QuizType) (*Quiz, error) {
	concept, ok, err := g.store.GetConcept(ref)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("concept %q: %w", ref, store.ErrNotFound)
	}

	quiz := &Quiz{ID: uuid.NewString(), Ref: ref, Concept: concept}

	q, err := g.generate(ctx, concept, kind)
	if err != nil {
		slog.Warn("quiz generation failed, using fallback", "ref", ref, "kind", kind, "error", err)
		g.metrics.RecordFallback(string(llm.QuizPurpose(string(kind))))
		quiz.Question = fallbackQuestion(concept, kind)
		quiz.Fallback = true
		return quiz, nil
	}
	quiz.Question = q
	return quiz, nil
}

func (g *Generator) generate(ctx context.Context, concept store.Concept, kind tutor.QuizType) (Question, error) {
	ctx = llm.WithPurpose(ctx, llm.QuizPurpose(string(kind)))

	userMsg, err := buildQuizPrompt(concept, kind)
	if err != nil {
		return nil, err
	}

	resp, err := g.provider.Generate(ctx, llm.Request{
		System:      systemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: userMsg}},
		Schema:      schemaFor(kind),
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM generation failed: %w", err)
	}

	var raw questionOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse LLM response: %w", err)
	}

	q, err := raw.question(kind)
	if err != nil {
		return nil, err
	}

	for _, v := range g.config.Validators {
		if verr := v.Validate(q); verr != nil {
			return nil, verr
		}
	}
	return q, nil
}

func (o questionOutput) question(kind tutor.QuizType) (Question, error) {
	switch kind {
	case tutor.QuizMultiChoice:
		var answers []int
		if err := json.Unmarshal(o.CorrectAnswer, &answers); err != nil {
			return nil, fmt.Errorf("correct_answer: %w", err)
		}
		return MultiChoice{Question: o.Question, Options: o.Options, Answers: answers}, nil
	case tutor.QuizShortAnswer:
		return ShortAnswer{Question: o.Question, ExpectedAnswer: o.ExpectedAnswer}, nil
	default:
		var answer int
		if err := json.Unmarshal(o.CorrectAnswer, &answer); err != nil {
			return nil, fmt.Errorf("correct_answer: %w", err)
		}
		return SingleChoice{Question: o.Question, Options: o.Options, Answer: answer}, nil
	}
}

func fallbackQuestion(c store.Concept, kind tutor.QuizType) Question {
	question := fmt.Sprintf("What is %s?", c.Title)
	options := []string{c.Description(), "Incorrect answer", "Another wrong answer", "Not this one"}

	switch kind {
	case tutor.QuizMultiChoice:
		return MultiChoice{Question: question, Options: options, Answers: []int{0}}
	case tutor.QuizShortAnswer:
		return ShortAnswer{Question: question, ExpectedAnswer: c.Description()}
	default:
		return SingleChoice{Question: question, Options: options, Answer: 0}
	}
}

// BatchKind returns the quiz kind for position i of a batch. Kinds rotate
// single choice, multi choice, short answer.
func BatchKind(i int) tutor.QuizType {
	switch i % 3 {
	case 1:
		return tutor.QuizMultiChoice
	case 2:
		return tutor.QuizShortAnswer
	default:
		return tutor.QuizSingleChoice
	}
}

// GenerateBatch generates one quiz for each of the first limit refs, in
// order. A negative limit means all of them. Concepts that no longer
// exist are skipped.
func (g *Generator) GenerateBatch(ctx context.Context, refs []string, limit int) ([]*Quiz, error) {
	if limit >= 0 && len(refs) > limit {
		refs = refs[:limit]
	}

	results := make([]*Quiz, len(refs))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.config.Concurrency)

	for i, ref := range refs {
		eg.Go(func() error {
			quiz, err := g.Generate(egCtx, ref, BatchKind(i))
			if errors.Is(err, store.ErrNotFound) {
				slog.Warn("skipping quiz for missing concept", "ref", ref)
				return nil
			}
			if err != nil {
				return fmt.Errorf("quiz for %s: %w", ref, err)
			}
			results[i] = quiz
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	quizzes := make([]*Quiz, 0, len(results))
	for _, q := range results {
		if q != nil {
			quizzes = append(quizzes, q)
		}
	}
	return quizzes, nil
}
