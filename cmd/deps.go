package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/abhisek/cheatsheet/internal/llm"
	"github.com/abhisek/cheatsheet/internal/metrics"
	"github.com/abhisek/cheatsheet/internal/store"
	"github.com/abhisek/cheatsheet/internal/tutorapp"
)

// deps is everything a command needs to run the tutoring flow.
type deps struct {
	Store   *store.Store
	Events  *store.EventLog
	Metrics *metrics.Metrics
	Service *tutorapp.Service
}

func (d *deps) Close() {
	if d.Events != nil {
		if err := d.Events.Close(); err != nil {
			slog.Warn("close event log", "error", err)
		}
	}
}

// openStore opens the JSON document store only.
func openStore() (*store.Store, error) {
	s, err := store.Open(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return s, nil
}

// openEventLog opens the SQLite event log next to the documents.
func openEventLog(s *store.Store) (*store.EventLog, error) {
	events, err := store.OpenEventLog(s.EventLogPath())
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	return events, nil
}

// openDeps opens the store and event log, builds the LLM provider and
// wires the tutoring service. Without LLM credentials the service runs on
// its offline fallbacks.
func openDeps(ctx context.Context) (*deps, error) {
	s, err := openStore()
	if err != nil {
		return nil, err
	}
	events, err := openEventLog(s)
	if err != nil {
		return nil, err
	}
	d := &deps{Store: s, Events: events, Metrics: metrics.NewMetrics()}

	llmCfg := cfg.LLM
	if !llmCfg.HasKey() {
		fmt.Fprintln(os.Stderr, "LLM provider not configured:", llmCfg.Validate())
		fmt.Fprintln(os.Stderr, "Using offline questions and grading.")
		llmCfg.Provider = "mock"
	}

	provider, err := llm.NewProvider(ctx, llmCfg, events, d.Metrics)
	if err != nil {
		d.Close()
		return nil, err
	}

	d.Service = tutorapp.New(tutorapp.Options{
		Store:                s,
		Provider:             provider,
		Events:               events,
		Metrics:              d.Metrics,
		RemediationThreshold: cfg.Tutor.RemediationThreshold,
		QuizConcurrency:      cfg.Quiz.Concurrency,
	})
	return d, nil
}
