// Package api exposes the tutoring service over HTTP and MCP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/abhisek/cheatsheet/internal/metrics"
	"github.com/abhisek/cheatsheet/internal/tutorapp"
)

const (
	defaultMaxUploadBytes = 16 << 20
	maxJSONBodySize       = 4 << 20
)

// Deps holds what the HTTP handlers need.
type Deps struct {
	Service *tutorapp.Service

	// Metrics may be nil, in which case /metrics still serves the default
	// registry but no request metrics are recorded.
	Metrics *metrics.Metrics

	MaxUploadBytes   int64
	DefaultQuizCount int
}

// NewHandler returns the HTTP API.
func NewHandler(deps Deps) http.Handler {
	if deps.MaxUploadBytes <= 0 {
		deps.MaxUploadBytes = defaultMaxUploadBytes
	}
	if deps.DefaultQuizCount <= 0 {
		deps.DefaultQuizCount = 10
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(middleware.Recoverer)
	r.Use(instrument(deps.Metrics))

	r.Get("/healthz", handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/upload", handleUpload(deps))
		r.Get("/courses", handleCourses(deps))
		r.Post("/save_concepts", handleSaveConcepts(deps))
		r.Post("/generate_quizzes", handleGenerateQuizzes(deps))
		r.Post("/evaluate_answer", handleEvaluateAnswer(deps))
		r.Get("/system_prompt", handleSystemPrompt(deps))

		r.Get("/progress", handleProgress(deps))
		r.Post("/distribute", handleDistribute(deps))
		r.Get("/next", handleNext(deps))
		r.Post("/explain", handleExplain(deps))
		r.Post("/session", handleSession(deps))
		r.Get("/profile", handleGetProfile(deps))
		r.Put("/profile", handlePutProfile(deps))
	})

	return r
}

// ServerConfig configures Serve.
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Serve runs handler on cfg.Addr until ctx is cancelled, then shuts down
// gracefully.
func Serve(ctx context.Context, cfg ServerConfig, handler http.Handler) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("cheatsheet listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
