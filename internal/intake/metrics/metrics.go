package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the intake module. A nil *Metrics is
// valid and records nothing, which keeps tests free of registry setup.
type Metrics struct {
	SessionsStarted   prometheus.Counter
	SessionsCompleted prometheus.Counter
	SessionsAbandoned prometheus.Counter

	// Patch outcomes by outcome and operation
	PatchOutcomes *prometheus.CounterVec

	// Extraction batches by source agent
	Extractions *prometheus.CounterVec

	// Compare-and-swap save retries
	SaveConflicts prometheus.Counter

	// Full batch latency: validate, apply, save, audit
	BatchLatency prometheus.Histogram
}

// New creates a Metrics instance with all intake metrics registered.
func New() *Metrics {
	return &Metrics{
		SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "canon_intake_sessions_started_total",
			Help: "Total interview sessions created",
		}),
		SessionsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "canon_intake_sessions_completed_total",
			Help: "Total sessions that reached workflow completion",
		}),
		SessionsAbandoned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "canon_intake_sessions_abandoned_total",
			Help: "Total sessions abandoned by the caller",
		}),
		PatchOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "canon_intake_patch_outcomes_total",
			Help: "Patch records processed by outcome and operation",
		}, []string{"outcome", "operation"}),
		Extractions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "canon_intake_extractions_total",
			Help: "Extraction batches produced by source agent",
		}, []string{"agent"}),
		SaveConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "canon_intake_save_conflicts_total",
			Help: "Document saves retried after losing a version race",
		}),
		BatchLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "canon_intake_batch_duration_seconds",
			Help:    "Duration of full patch batch processing",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementSessionsStarted() {
	if m != nil {
		m.SessionsStarted.Inc()
	}
}

func (m *Metrics) IncrementSessionsCompleted() {
	if m != nil {
		m.SessionsCompleted.Inc()
	}
}

func (m *Metrics) IncrementSessionsAbandoned() {
	if m != nil {
		m.SessionsAbandoned.Inc()
	}
}

func (m *Metrics) IncrementPatchOutcome(outcome, operation string) {
	if m != nil {
		m.PatchOutcomes.WithLabelValues(outcome, operation).Inc()
	}
}

func (m *Metrics) IncrementExtractions(agent string) {
	if m != nil {
		m.Extractions.WithLabelValues(agent).Inc()
	}
}

func (m *Metrics) IncrementSaveConflicts() {
	if m != nil {
		m.SaveConflicts.Inc()
	}
}

func (m *Metrics) ObserveBatchLatency(d time.Duration) {
	if m != nil {
		m.BatchLatency.Observe(d.Seconds())
	}
}
