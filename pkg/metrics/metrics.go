package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// API client metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "converge_api_requests_total",
			Help: "Total number of management API requests by system, method and status",
		},
		[]string{"system", "method", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "converge_api_request_duration_seconds",
			Help:    "Management API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"system", "method"},
	)

	// Reconciler metrics
	ReconcileTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "converge_reconcile_total",
			Help: "Total number of reconciliations by resource kind and action taken",
		},
		[]string{"kind", "action"},
	)

	ReconcileErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "converge_reconcile_errors_total",
			Help: "Total number of reconciliations that ended in a fatal error",
		},
		[]string{"kind"},
	)

	ReconcileDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "converge_reconcile_duration_seconds",
			Help:    "Time taken to reconcile one resource in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	ApplyDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "converge_apply_duration_seconds",
			Help:    "Time taken by a whole apply run in seconds",
			Buckets: []float64{.1, .5, 1, 5, 15, 60, 300},
		},
	)

	ResourcesChanged = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "converge_resources_changed",
			Help: "Number of resources changed by the last apply",
		},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)
	prometheus.MustRegister(ReconcileTotal)
	prometheus.MustRegister(ReconcileErrorsTotal)
	prometheus.MustRegister(ReconcileDuration)
	prometheus.MustRegister(ApplyDuration)
	prometheus.MustRegister(ResourcesChanged)
}

// WriteTextfile dumps the default registry in the text exposition format so a
// node exporter textfile collector can pick up the results of a one-shot run.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
