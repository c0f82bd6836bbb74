package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records attempt outcomes and stage latencies. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	attempts      *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	inFlight      prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mint_attempts_total",
				Help: "Total number of finished mint attempts by outcome.",
			},
			[]string{"outcome"},
		),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mint_stage_duration_seconds",
				Help:    "Duration of mint pipeline stages.",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
			},
			[]string{"stage", "status"},
		),
		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "mint_attempts_in_flight",
				Help: "Number of mint attempts currently running.",
			},
		),
	}

	for _, collector := range []prometheus.Collector{m.attempts, m.stageDuration, m.inFlight} {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Metrics) started() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

func (m *Metrics) finished(err *Error) {
	if m == nil {
		return
	}
	m.inFlight.Dec()

	outcome := "succeeded"
	if err != nil {
		outcome = err.Kind.String()
	}
	m.attempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeStage(stage string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}

	status := "ok"
	if err != nil {
		status = "error"
	}
	m.stageDuration.WithLabelValues(stage, status).Observe(elapsed.Seconds())
}
