// Package metrics provides Prometheus metrics for the HTTP server and the report store.
// HTTP metrics:
//   - http_request_total: Counter with method, path, and status labels
//   - http_request_duration_seconds: Histogram with method and path labels
//   - http_request_in_flight: Gauge for concurrent requests
//
// Report metrics:
//   - report_loads_total: Counter with origin and result labels
//   - report_records: Gauge of loaded drug records per severity
//   - report_last_load_timestamp_seconds: Gauge set on each successful load
//
// All metrics are registered with the Prometheus default registry during
// package initialization.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Load results used as the result label of report_loads_total.
const (
	ResultSuccess     = "success"
	ResultUnavailable = "unavailable"
	ResultParseError  = "parse_error"
	ResultShapeError  = "shape_error"
	ResultBusy        = "busy"
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
			Help: "Total number of rate limiter buckets (clients seen in the last ~5 minutes)",
		},
	)

	ReportLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_loads_total",
			Help: "Report load attempts by origin and result",
		},
		[]string{"origin", "result"},
	)

	ReportRecords = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "report_records",
			Help: "Drug records in the current report by severity",
		},
		[]string{"severity"},
	)

	ReportLastLoad = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "report_last_load_timestamp_seconds",
			Help: "Unix time of the last successful report load",
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(ReportLoadsTotal)
	prometheus.MustRegister(ReportRecords)
	prometheus.MustRegister(ReportLastLoad)
}

// RecordLoad counts one load attempt.
func RecordLoad(origin, result string) {
	ReportLoadsTotal.WithLabelValues(origin, result).Inc()
}

// SetRecordCounts publishes the per-severity record counts of the current report.
func SetRecordCounts(counts map[string]int) {
	ReportRecords.Reset()
	for severity, n := range counts {
		ReportRecords.WithLabelValues(severity).Set(float64(n))
	}
}
