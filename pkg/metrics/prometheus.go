package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	signalsStored   *prometheus.CounterVec
	signalsRejected *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	tierLevel       *prometheus.GaugeVec
	latency         *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		signalsStored: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harbor_signals_stored_total",
				Help: "Total number of signals committed to a backend",
			},
			[]string{"backend", "source"},
		),
		signalsRejected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harbor_signals_rejected_total",
				Help: "Total number of signals rejected during validation",
			},
			[]string{"kind"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harbor_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"kind"},
		),
		tierLevel: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "harbor_tier_level",
				Help: "Current classified tier per module and location",
			},
			[]string{"module", "location", "tier"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "harbor_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordSignalStored records a signal committed to a backend.
func (r *Recorder) RecordSignalStored(backend, source string) {
	r.signalsStored.WithLabelValues(backend, source).Inc()
}

// RecordSignalRejected records a validation rejection by kind.
func (r *Recorder) RecordSignalRejected(kind string) {
	r.signalsRejected.WithLabelValues(kind).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordTier marks the current tier for a module and location. Previous
// tier series for the same key are dropped so at most one stays hot.
func (r *Recorder) RecordTier(module, location, tier string) {
	r.tierLevel.DeletePartialMatch(prometheus.Labels{"module": module, "location": location})
	r.tierLevel.WithLabelValues(module, location, tier).Set(1)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
