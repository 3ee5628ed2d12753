package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/abhisek/cheatsheet/internal/llm"
)

// Metrics holds all Prometheus metrics for cheatsheet.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// LLM metrics
	LLMRequests *prometheus.CounterVec
	LLMLatency  *prometheus.HistogramVec
	LLMTokens   *prometheus.CounterVec
	Fallbacks   *prometheus.CounterVec

	// Tutoring metrics
	Evaluations      *prometheus.CounterVec
	Decisions        *prometheus.CounterVec
	ConceptsIngested *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

var (
	metricsOnce   sync.Once
	sharedMetrics *Metrics
)

var _ llm.Observer = (*Metrics)(nil)

// NewMetrics creates and registers all Prometheus metrics with the default
// registry. Later calls return the same instance.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		sharedMetrics = &Metrics{
			LLMRequests: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cheatsheet_llm_requests_total",
					Help: "Total number of LLM requests",
				},
				[]string{"purpose", "success"},
			),
			LLMLatency: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "cheatsheet_llm_request_duration_seconds",
					Help:    "LLM request duration in seconds",
					Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to 51s
				},
				[]string{"purpose"},
			),
			LLMTokens: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cheatsheet_llm_tokens_total",
					Help: "Total tokens processed by the LLM",
				},
				[]string{"purpose", "direction"}, // direction: input, output
			),
			Fallbacks: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cheatsheet_llm_fallbacks_total",
					Help: "Total number of operations that used their fallback value",
				},
				[]string{"operation"},
			),
			Evaluations: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cheatsheet_evaluations_total",
					Help: "Total number of evaluated answers",
				},
				[]string{"correct"},
			),
			Decisions: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cheatsheet_decisions_total",
					Help: "Total number of decide-next outcomes",
				},
				[]string{"decision"},
			),
			ConceptsIngested: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cheatsheet_concepts_ingested_total",
					Help: "Total number of concept candidates saved or skipped",
				},
				[]string{"result"},
			),
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cheatsheet_http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "route", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "cheatsheet_http_request_duration_seconds",
					Help:    "HTTP request duration in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"method", "route"},
			),
		}
	})

	return sharedMetrics
}

// ObserveLLMRequest records one LLM call.
func (m *Metrics) ObserveLLMRequest(purpose string, latency time.Duration, usage llm.Usage, err error) {
	if m == nil {
		return
	}
	m.LLMRequests.WithLabelValues(purpose, strconv.FormatBool(err == nil)).Inc()
	m.LLMLatency.WithLabelValues(purpose).Observe(latency.Seconds())
	if usage.InputTokens > 0 {
		m.LLMTokens.WithLabelValues(purpose, "input").Add(float64(usage.InputTokens))
	}
	if usage.OutputTokens > 0 {
		m.LLMTokens.WithLabelValues(purpose, "output").Add(float64(usage.OutputTokens))
	}
}

// RecordFallback records that operation degraded to its fallback value.
func (m *Metrics) RecordFallback(operation string) {
	if m == nil {
		return
	}
	m.Fallbacks.WithLabelValues(operation).Inc()
}

// RecordEvaluation records a graded answer.
func (m *Metrics) RecordEvaluation(correct bool) {
	if m == nil {
		return
	}
	m.Evaluations.WithLabelValues(strconv.FormatBool(correct)).Inc()
}

// RecordDecision records a decide-next outcome.
func (m *Metrics) RecordDecision(decision string) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(decision).Inc()
}

// RecordIngest records saved and skipped concept candidates.
func (m *Metrics) RecordIngest(added, skipped int) {
	if m == nil {
		return
	}
	m.ConceptsIngested.WithLabelValues("added").Add(float64(added))
	m.ConceptsIngested.WithLabelValues("skipped").Add(float64(skipped))
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route, status string, duration float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration)
}
