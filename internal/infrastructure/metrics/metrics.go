// Package metrics exposes Prometheus instruments for person mutations and
// algorithm runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Mutation results.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

// Metrics holds every kinship instrument.
type Metrics struct {
	// mutationsTotal counts person mutations by operation and result
	mutationsTotal *prometheus.CounterVec

	// algorithmRuns counts algorithm runs by algorithm and result
	algorithmRuns *prometheus.CounterVec

	// algorithmDuration tracks algorithm latency including the graph build
	algorithmDuration *prometheus.HistogramVec

	// traceSteps tracks how many trace steps a run produced
	traceSteps *prometheus.HistogramVec
}

// New registers the instruments with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		mutationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kinship_person_mutations_total",
			Help: "Total person mutations by operation and result",
		}, []string{"operation", "result"}),
		algorithmRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kinship_algorithm_runs_total",
			Help: "Total algorithm runs by algorithm and result",
		}, []string{"algorithm", "result"}),
		algorithmDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kinship_algorithm_duration_seconds",
			Help:    "Algorithm run duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12), // 0.1ms to ~400ms
		}, []string{"algorithm"}),
		traceSteps: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kinship_algorithm_trace_steps",
			Help:    "Number of trace steps recorded per algorithm run",
			Buckets: []float64{1, 5, 10, 50, 100, 500, 1000},
		}, []string{"algorithm"}),
	}
}

// ObserveMutation records one person mutation.
func (m *Metrics) ObserveMutation(operation, result string) {
	if m == nil {
		return
	}
	m.mutationsTotal.WithLabelValues(operation, result).Inc()
}

// ObserveAlgorithm records one algorithm run.
func (m *Metrics) ObserveAlgorithm(algorithm, result string, elapsed time.Duration, steps int) {
	if m == nil {
		return
	}
	m.algorithmRuns.WithLabelValues(algorithm, result).Inc()
	m.algorithmDuration.WithLabelValues(algorithm).Observe(elapsed.Seconds())
	if result == ResultOK {
		m.traceSteps.WithLabelValues(algorithm).Observe(float64(steps))
	}
}
