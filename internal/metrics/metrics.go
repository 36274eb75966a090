// Package metrics holds the Prometheus collectors for the service.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rpggio/context-keeper/internal/domain/assembler"
)

// Metrics is a set of collectors bound to one registry.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	sessionsExpired   prometheus.Counter
	retrievalDuration prometheus.Histogram
	retrievalFailures prometheus.Counter
	contextsDegraded  prometheus.Counter
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "context_keeper_http_requests_total",
			Help: "HTTP requests by route, method and status code",
		}, []string{"route", "method", "code"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "context_keeper_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		}, []string{"route"}),
		sessionsExpired: f.NewCounter(prometheus.CounterOpts{
			Name: "context_keeper_sessions_expired_total",
			Help: "Sessions removed by the expiry sweeper",
		}),
		retrievalDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "context_keeper_snippet_retrieval_duration_seconds",
			Help:    "Snippet retrieval duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		}),
		retrievalFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "context_keeper_snippet_retrieval_failures_total",
			Help: "Snippet retrievals that returned an error or timed out",
		}),
		contextsDegraded: f.NewCounter(prometheus.CounterOpts{
			Name: "context_keeper_contexts_degraded_total",
			Help: "Programming contexts served without snippets",
		}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(route, method, code string, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(route, method, code).Inc()
	m.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// SessionsExpired adds n to the expired session count.
func (m *Metrics) SessionsExpired(n int) {
	if n > 0 {
		m.sessionsExpired.Add(float64(n))
	}
}

// ContextDegraded counts a context served without snippets.
func (m *Metrics) ContextDegraded() {
	m.contextsDegraded.Inc()
}

// InstrumentRetriever wraps r to record latency and failures.
func (m *Metrics) InstrumentRetriever(r assembler.Retriever) assembler.Retriever {
	return assembler.RetrieverFunc(func(ctx context.Context, q assembler.Query) ([]assembler.Snippet, error) {
		start := time.Now()
		snippets, err := r.Retrieve(ctx, q)
		m.retrievalDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			m.retrievalFailures.Inc()
		}
		return snippets, err
	})
}
