package llm

import (
	"context"
	"time"

	"github.com/abhisek/mockprep/internal/metrics"
)

// MetricsProvider records request counts, latency and token usage in
// Prometheus.
type MetricsProvider struct {
	inner Provider
}

// WithMetrics wraps a Provider with Prometheus instrumentation.
func WithMetrics(p Provider) Provider {
	return &MetricsProvider{inner: p}
}

func (m *MetricsProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	purpose := PurposeFrom(ctx)
	model := m.inner.ModelID()

	resp, err := m.inner.Generate(ctx, req)

	metrics.LLMRequestDuration.WithLabelValues(model, purpose).Observe(time.Since(start).Seconds())
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.LLMRequests.WithLabelValues(model, purpose, status).Inc()
	if resp != nil {
		metrics.LLMTokens.WithLabelValues(model, "input").Add(float64(resp.Usage.InputTokens))
		metrics.LLMTokens.WithLabelValues(model, "output").Add(float64(resp.Usage.OutputTokens))
	}
	return resp, err
}

func (m *MetricsProvider) ModelID() string {
	return m.inner.ModelID()
}
