// Package metrics exposes Prometheus instrumentation for the prepvox server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "prepvox"

// Metrics holds all collectors for the service.
type Metrics struct {
	registry *prometheus.Registry

	GenerationsTotal  prometheus.Counter
	GenerationSeconds prometheus.Histogram
	EvaluationsTotal  prometheus.Counter
	EvaluationErrors  prometheus.Counter
	SessionsCreated   prometheus.Counter
	SessionsFinalized prometheus.Counter
	FinalizeErrors    prometheus.Counter

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates a Metrics set backed by its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		GenerationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Question-generation runs against the local model.",
		}),
		GenerationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Latency of question-generation runs.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		EvaluationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Per-answer evaluation calls.",
		}),
		EvaluationErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluation_errors_total",
			Help:      "Evaluation calls that failed or returned malformed output.",
		}),
		SessionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_created_total",
			Help:      "Interview sessions created.",
		}),
		SessionsFinalized: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_finalized_total",
			Help:      "Interview sessions finalized and persisted.",
		}),
		FinalizeErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "finalize_errors_total",
			Help:      "Finalization attempts aborted by an evaluation or storage failure.",
		}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route, and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Handler serves the /metrics endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one completed HTTP request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
