// Package metrics provides Prometheus metrics for the HTTP server and the drug catalog.
// HTTP metrics:
//   - http_request_total: Counter with method, path, and status labels
//   - http_request_duration_seconds: Histogram with method and path labels
//   - http_request_in_flight: Gauge for concurrent requests
//
// Catalog metrics:
//   - catalog_lookups_total: Counter with operation and outcome labels
//   - catalog_records: Gauge with the number of loaded drug records
//   - catalog_dataset_drift: Gauge set to 1 when the data file no longer matches the loaded dataset
//
// All metrics are registered with the Prometheus default registry during package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Lookup outcomes recorded on LookupsTotal
const (
	OutcomeFound    = "found"
	OutcomeNotFound = "not_found"
	OutcomeInvalid  = "invalid"
)

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (clients seen since the last prune)",
		},
	)

	LookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_lookups_total",
			Help: "Catalog lookups by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	CatalogRecords = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_records",
			Help: "Number of drug records loaded at startup",
		},
	)

	DatasetDrift = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_dataset_drift",
			Help: "1 when the data file checksum differs from the loaded dataset",
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(LookupsTotal)
	prometheus.MustRegister(CatalogRecords)
	prometheus.MustRegister(DatasetDrift)
}

// RecordLookup increments the lookup counter for an operation
func RecordLookup(operation, outcome string) {
	LookupsTotal.WithLabelValues(operation, outcome).Inc()
}
