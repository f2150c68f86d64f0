package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	OutlookLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "harbor",
			Subsystem: "outlook",
			Name:      "latency_seconds",
			Help:      "Latency of outlook endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	OutlookErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "harbor",
			Subsystem: "outlook",
			Name:      "errors_total",
			Help:      "Errors by outlook endpoint",
		},
		[]string{"endpoint"},
	)

	OutlookCacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "harbor",
			Subsystem: "outlook",
			Name:      "cache_hits_total",
			Help:      "Outlook responses served from cache",
		},
		[]string{"endpoint"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(OutlookLatency, OutlookErrors, OutlookCacheHits)
	})
}
