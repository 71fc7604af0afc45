package observe

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is an Observer exporting Prometheus metrics for retry runs.
// Run identifiers are deliberately not used as labels to keep cardinality
// bounded by the set of operation names.
type Metrics struct {
	attempts    *prometheus.CounterVec
	waits       *prometheus.HistogramVec
	runDuration *prometheus.HistogramVec
	activeRuns  *prometheus.GaugeVec
}

var _ Observer = (*Metrics)(nil)

// NewMetrics creates a Prometheus metrics observer.
// If registry is nil, uses the default Prometheus registry.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		attempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "retry_attempts_total",
				Help: "Total number of operation invocations made by the retry engine",
			},
			[]string{"op", "outcome"},
		),

		waits: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "retry_backoff_wait_seconds",
				Help: "Backoff wait durations applied between attempts",
				Buckets: []float64{
					0.001, // 1ms
					0.01,  // 10ms
					0.1,   // 100ms
					0.5,   // 500ms
					1.0,   // 1s
					5.0,   // 5s
					30.0,  // 30s
					60.0,  // 60s
				},
			},
			[]string{"op"},
		),

		runDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "retry_run_duration_seconds",
				Help: "Total duration of retry runs from first invocation to resolution",
				Buckets: []float64{
					0.001, // 1ms
					0.01,  // 10ms
					0.1,   // 100ms
					0.5,   // 500ms
					1.0,   // 1s
					5.0,   // 5s
					30.0,  // 30s
					60.0,  // 60s
				},
			},
			[]string{"op", "outcome"},
		),

		activeRuns: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "retry_active_runs",
				Help: "Number of retry runs currently in flight",
			},
			[]string{"op"},
		),
	}
}

// OnStart implements the Observer interface.
func (m *Metrics) OnStart(op, _ string) {
	m.activeRuns.WithLabelValues(op).Inc()
}

// OnAttempt implements the Observer interface.
func (m *Metrics) OnAttempt(op, _ string, _ int, err error) {
	m.attempts.WithLabelValues(op, outcome(err)).Inc()
}

// OnWait implements the Observer interface.
func (m *Metrics) OnWait(op, _ string, _ int, wait time.Duration) {
	m.waits.WithLabelValues(op).Observe(wait.Seconds())
}

// OnResolve implements the Observer interface.
func (m *Metrics) OnResolve(op, _ string, _ int, elapsed time.Duration, err error) {
	m.activeRuns.WithLabelValues(op).Dec()
	m.runDuration.WithLabelValues(op, outcome(err)).Observe(elapsed.Seconds())
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
