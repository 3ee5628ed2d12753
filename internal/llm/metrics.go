package llm

import (
	"context"
	"time"
)

// Observer receives one callback per LLM request.
type Observer interface {
	ObserveLLMRequest(purpose string, latency time.Duration, usage Usage, err error)
}

// MetricsProvider reports request outcomes to an Observer.
type MetricsProvider struct {
	inner    Provider
	observer Observer
}

// WithMetrics wraps a Provider with an Observer.
func WithMetrics(p Provider, o Observer) Provider {
	return &MetricsProvider{inner: p, observer: o}
}

func (m *MetricsProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := m.inner.Generate(ctx, req)

	var usage Usage
	if resp != nil {
		usage = resp.Usage
	}
	m.observer.ObserveLLMRequest(string(PurposeFrom(ctx)), time.Since(start), usage, err)

	return resp, err
}

func (m *MetricsProvider) ModelID() string {
	return m.inner.ModelID()
}
