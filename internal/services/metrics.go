package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all custom Prometheus metrics for the application
type Metrics struct {
	// Divination metrics
	Divinations        *prometheus.CounterVec
	DivinationLatency  prometheus.Histogram
	DivinationErrors   *prometheus.CounterVec
	InterpretationSrc  *prometheus.CounterVec
	QuotaDenials       prometheus.Counter
}

var globalMetrics *Metrics

// InitMetrics initializes the Prometheus metrics. Safe to call more than
// once; the first registration wins.
func InitMetrics() *Metrics {
	if globalMetrics != nil {
		return globalMetrics
	}
	metrics := &Metrics{
		// Casts by input method (counter - only goes up)
		Divinations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "liuyao_divinations_total",
			Help: "Total number of divination casts by input method",
		}, []string{"method"}),

		// Cast latency histogram; the long tail is the model call
		DivinationLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "liuyao_divination_duration_seconds",
			Help:    "Divination request latency in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),

		// Divination errors by type
		DivinationErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "liuyao_divination_errors_total",
			Help: "Total number of divination errors by type",
		}, []string{"error_type"}),

		// Where interpretation fields came from: baseline, model or cache.
		// A rising baseline share with the model enabled means parse failures.
		InterpretationSrc: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "liuyao_interpretation_source_total",
			Help: "Interpretation readings by source (baseline, model, cache)",
		}, []string{"source"}),

		// Requests rejected by the daily quota
		QuotaDenials: promauto.NewCounter(prometheus.CounterOpts{
			Name: "liuyao_quota_denials_total",
			Help: "Total number of requests denied by the daily quota",
		}),
	}

	globalMetrics = metrics
	return metrics
}

// GetMetrics returns the global metrics instance (may be nil before init)
func GetMetrics() *Metrics {
	return globalMetrics
}
