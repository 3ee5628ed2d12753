// Package tutorapp wires the tutoring components into the operations
// shared by the HTTP server, the MCP server, the CLI and the TUI.
package tutorapp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/abhisek/cheatsheet/internal/ingest"
	"github.com/abhisek/cheatsheet/internal/knowledge"
	"github.com/abhisek/cheatsheet/internal/llm"
	"github.com/abhisek/cheatsheet/internal/metrics"
	"github.com/abhisek/cheatsheet/internal/progress"
	"github.com/abhisek/cheatsheet/internal/quizgen"
	"github.com/abhisek/cheatsheet/internal/store"
	"github.com/abhisek/cheatsheet/internal/tutor"
)

// ErrNoConcepts is returned when there is nothing to quiz.
var ErrNoConcepts = errors.New("no concepts found")

// Options configures a Service.
type Options struct {
	Store    *store.Store
	Provider llm.Provider

	// Events receives evaluation events. May be nil.
	Events store.EventRepo

	// Metrics may be nil.
	Metrics *metrics.Metrics

	RemediationThreshold float64
	QuizConcurrency      int
}

// Service bundles the tutoring components.
type Service struct {
	Store       *store.Store
	Distributor *knowledge.Distributor
	Policy      tutor.Policy
	Evaluator   *progress.Evaluator
	Recorder    *progress.Recorder
	Feedback    *progress.Feedback
	Generator   *quizgen.Generator
	Extractor   *ingest.Extractor
	Saver       *ingest.Saver

	events  store.EventRepo
	metrics *metrics.Metrics
}

// New builds a Service from opts.
func New(opts Options) *Service {
	policy := tutor.NewPolicy()
	if opts.RemediationThreshold > 0 {
		policy.RemediationThreshold = opts.RemediationThreshold
	}

	quizCfg := quizgen.DefaultConfig()
	if opts.QuizConcurrency > 0 {
		quizCfg.Concurrency = opts.QuizConcurrency
	}

	distributor := knowledge.NewDistributor(opts.Store)
	return &Service{
		Store:       opts.Store,
		Distributor: distributor,
		Policy:      policy,
		Evaluator:   progress.NewEvaluator(opts.Provider, opts.Store, progress.DefaultEvaluatorConfig(), opts.Metrics),
		Recorder:    progress.NewRecorder(opts.Provider, opts.Store, opts.Events, progress.DefaultRecorderConfig(), opts.Metrics),
		Feedback:    progress.NewFeedback(opts.Provider, opts.Metrics),
		Generator:   quizgen.New(opts.Provider, opts.Store, quizCfg, opts.Metrics),
		Extractor:   ingest.NewExtractor(opts.Provider, ingest.DefaultExtractorConfig(), opts.Metrics),
		Saver:       ingest.NewSaver(opts.Store, distributor, opts.Metrics),
		events:      opts.Events,
		metrics:     opts.Metrics,
	}
}

// Decide runs the policy over the current progress and the persisted
// distribution. An empty distribution is rebuilt first.
func (s *Service) Decide() (tutor.Decision, error) {
	dist, err := s.Store.LoadDistribution()
	if err != nil {
		return tutor.Decision{}, fmt.Errorf("load distribution: %w", err)
	}
	if dist.Len() == 0 {
		if dist, err = s.Distributor.Distribute(); err != nil {
			return tutor.Decision{}, err
		}
	}

	d := s.Policy.Decide(s.Store.LoadProgress(), dist.Active())
	s.metrics.RecordDecision(string(d.Decision))
	slog.Debug("decided next step", "decision", d.Decision, "target", d.Target())
	return d, nil
}

// EvaluationOutcome is the result of grading one answer.
type EvaluationOutcome struct {
	Evaluation   progress.Result      `json:"evaluation"`
	Progress     *store.ProgressEntry `json:"progress,omitempty"`
	NextDecision tutor.Decision       `json:"next_decision"`
}

// EvaluateAndDecide grades answer, folds the grade into progress and
// decides the next step. An unknown reference is graded as not found and
// leaves progress untouched.
func (s *Service) EvaluateAndDecide(ctx context.Context, answer, ref string) (EvaluationOutcome, error) {
	result := s.Evaluator.Evaluate(ctx, answer, ref)
	out := EvaluationOutcome{Evaluation: result}

	entry, err := s.Recorder.UpdateFreshnessAndLog(ctx, ref, result)
	switch {
	case err == nil:
		out.Progress = &entry
	case errors.Is(err, store.ErrNotFound):
		slog.Warn("answer for unknown concept not recorded", "ref", ref)
	default:
		return EvaluationOutcome{}, fmt.Errorf("record progress: %w", err)
	}

	if out.NextDecision, err = s.Decide(); err != nil {
		return EvaluationOutcome{}, err
	}
	return out, nil
}

// NextQuiz decides and generates the preferred question for the target.
// The quiz is nil when the session concludes.
func (s *Service) NextQuiz(ctx context.Context) (*quizgen.Quiz, tutor.Decision, error) {
	d, err := s.Decide()
	if err != nil {
		return nil, tutor.Decision{}, err
	}
	if d.Concludes() {
		return nil, d, nil
	}

	quiz, err := s.Generator.Generate(ctx, d.Target(), d.QuizType())
	if err != nil {
		return nil, d, fmt.Errorf("generate quiz: %w", err)
	}
	return quiz, d, nil
}

// GenerateQuizzes builds up to n quizzes over the concepts to study.
func (s *Service) GenerateQuizzes(ctx context.Context, n int) ([]*quizgen.Quiz, error) {
	refs, err := s.Distributor.Search()
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, ErrNoConcepts
	}
	return s.Generator.GenerateBatch(ctx, refs, n)
}

// Summary explains every active concept. It is what a concluded session
// shows.
func (s *Service) Summary(ctx context.Context) ([]quizgen.Explanation, error) {
	dist, err := s.Store.LoadDistribution()
	if err != nil {
		return nil, err
	}
	return s.Generator.Summary(ctx, dist.Active()), nil
}

// AnswerOutcome is what the learner sees after answering a quiz.
type AnswerOutcome struct {
	EvaluationOutcome
	Answer   string `json:"answer"`
	Feedback string `json:"feedback"`
	LogLine  string `json:"log_line,omitempty"`
}

// Answer resolves learner input against quiz, grades it and writes the
// instant feedback line.
func (s *Service) Answer(ctx context.Context, quiz *quizgen.Quiz, input string) (AnswerOutcome, error) {
	answer, err := quiz.ResolveAnswer(input)
	if err != nil {
		return AnswerOutcome{}, err
	}

	eval, err := s.EvaluateAndDecide(ctx, answer, quiz.Ref)
	if err != nil {
		return AnswerOutcome{}, err
	}

	out := AnswerOutcome{
		EvaluationOutcome: eval,
		Answer:            answer,
		Feedback:          s.Feedback.Instant(ctx, quiz.Concept, eval.Evaluation.IsCorrect, answer),
	}
	if eval.Progress != nil && len(eval.Progress.Log) > 0 {
		out.LogLine = eval.Progress.Log[len(eval.Progress.Log)-1]
	}
	return out, nil
}

// LearningContext is the state handed to a new tutoring conversation.
type LearningContext struct {
	SystemPrompt knowledge.PromptData `json:"system_prompt"`
	Progress     *store.Progress      `json:"progress"`
	KnowledgeMap store.Distribution   `json:"knowledge_map"`
}

// StartSession redistributes and returns the learning context.
func (s *Service) StartSession() (LearningContext, error) {
	dist, err := s.Distributor.Distribute()
	if err != nil {
		return LearningContext{}, err
	}
	prompt, err := s.Distributor.SystemPrompt()
	if err != nil {
		return LearningContext{}, err
	}
	return LearningContext{
		SystemPrompt: prompt,
		Progress:     s.Store.LoadProgress(),
		KnowledgeMap: dist,
	}, nil
}

// Import extracts concepts from doc and saves them to course.
func (s *Service) Import(ctx context.Context, course string, doc ingest.Document) (ingest.Extraction, ingest.SaveResult, error) {
	ex, err := s.Extractor.Extract(ctx, doc)
	if err != nil {
		return ingest.Extraction{}, ingest.SaveResult{}, err
	}
	res, err := s.Saver.Save(course, ex.Concepts)
	if err != nil {
		return ex, res, err
	}
	return ex, res, nil
}
