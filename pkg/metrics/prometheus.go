package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	candlesIngested  *prometheus.CounterVec
	samplesPublished *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	lastClose        *prometheus.GaugeVec
	latency          *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		candlesIngested: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trendforge_candles_ingested_total",
				Help: "Total number of candles routed to a backend",
			},
			[]string{"backend", "symbol"},
		),
		samplesPublished: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trendforge_samples_published_total",
				Help: "Total number of labeled samples published",
			},
			[]string{"symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trendforge_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastClose: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "trendforge_last_close",
				Help: "Last close price seen for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "trendforge_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordCandleIngested records a candle routed to a backend.
func (r *Recorder) RecordCandleIngested(source, symbol string) {
	r.candlesIngested.WithLabelValues(source, symbol).Inc()
}

// RecordSamplePublished records one labeled sample delivered downstream.
func (r *Recorder) RecordSamplePublished(symbol string) {
	r.samplesPublished.WithLabelValues(symbol).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastClose records the last close price for a symbol.
func (r *Recorder) RecordLastClose(symbol string, price float64) {
	r.lastClose.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
