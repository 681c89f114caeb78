package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	FeatureLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "trendforge",
			Subsystem: "features",
			Name:      "latency_seconds",
			Help:      "Latency of feature endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	FeatureErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trendforge",
			Subsystem: "features",
			Name:      "errors_total",
			Help:      "Errors by feature endpoint",
		},
		[]string{"endpoint"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(FeatureLatency, FeatureErrors)
	})
}
