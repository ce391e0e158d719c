// Package metrics provides Prometheus metrics for the training engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation outcome labels.
const (
	OutcomeOK           = "ok"
	OutcomePrecondition = "precondition"
	OutcomeConflict     = "conflict"
	OutcomeError        = "error"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	// Operations counts engine operations by operation name and outcome.
	Operations *prometheus.CounterVec

	// GraderLatency observes free-text grader round trips in seconds.
	GraderLatency prometheus.Histogram

	// GraderFailures counts grader failures by class.
	GraderFailures *prometheus.CounterVec

	// AuditDropped counts audit events that could not be appended.
	AuditDropped prometheus.Counter

	// ModulesPurged counts modules scrubbed by the retention purge.
	ModulesPurged prometheus.Counter
}

// New registers and returns the engine collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sectrain",
			Name:      "engine_operations_total",
			Help:      "Engine operations by name and outcome.",
		}, []string{"operation", "outcome"}),
		GraderLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sectrain",
			Name:      "grader_latency_seconds",
			Help:      "Free-text grader round-trip latency.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		GraderFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sectrain",
			Name:      "grader_failures_total",
			Help:      "Free-text grader failures by class.",
		}, []string{"class"}),
		AuditDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "sectrain",
			Name:      "audit_events_dropped_total",
			Help:      "Audit events that failed to append and were dropped.",
		}),
		ModulesPurged: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "sectrain",
			Name:      "retention_modules_purged_total",
			Help:      "Modules scrubbed of free-text by the retention purge.",
		}),
	}
}

// NewNop returns collectors registered on a throwaway registry, for tests.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
