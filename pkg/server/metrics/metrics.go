package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the validation API. All methods are
// nil-safe so wiring stays optional in tests.
type Metrics struct {
	// Full validation run latency
	RunLatency prometheus.Histogram

	// Run outcomes by headline label
	RunOutcome *prometheus.CounterVec

	// Composite index scores per run
	IndexScore prometheus.Histogram

	// HTTP responses by route and status code
	Responses *prometheus.CounterVec
}

// New creates a Metrics instance with all validation metrics registered on
// the default registry. Call it once per process.
func New() *Metrics {
	return &Metrics{
		RunLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "pulse_run_duration_seconds",
			Help:    "Duration of full validation runs including ingestion",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),

		RunOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pulse_run_outcomes_total",
			Help: "Total validation runs by headline label",
		}, []string{"label"}),

		IndexScore: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "pulse_index_score",
			Help:    "Composite index score distribution across runs",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.85, 0.9, 0.95, 1},
		}),

		Responses: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pulse_http_responses_total",
			Help: "HTTP responses by route and status code",
		}, []string{"route", "code"}),
	}
}

// ObserveRun records one finished validation run.
func (m *Metrics) ObserveRun(label string, score float64, d time.Duration) {
	if m != nil {
		m.RunLatency.Observe(d.Seconds())
		m.RunOutcome.WithLabelValues(label).Inc()
		m.IndexScore.Observe(score)
	}
}

// IncrementResponse records an HTTP response.
func (m *Metrics) IncrementResponse(route, code string) {
	if m != nil {
		m.Responses.WithLabelValues(route, code).Inc()
	}
}
