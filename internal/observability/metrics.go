package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	apiRequestsTotal       *prometheus.CounterVec
	apiLatencySeconds      *prometheus.HistogramVec
	apiErrorsTotal         *prometheus.CounterVec
	catalogReadsTotal      *prometheus.CounterVec
	submissionsGradedTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assess_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "assess_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assess_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		catalogReadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assess_catalog_reads_total",
			Help: "Catalog reads by source: cache, live, fallback or error.",
		}, []string{"source"})

		submissionsGradedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assess_submissions_graded_total",
			Help: "Grading operations applied to submissions by method.",
		}, []string{"method"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			catalogReadsTotal,
			submissionsGradedTotal,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// CatalogReads exposes the counter for catalog read sources.
func CatalogReads() *prometheus.CounterVec {
	RegisterMetrics()
	return catalogReadsTotal
}

// SubmissionsGraded exposes the counter for grading operations.
func SubmissionsGraded() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsGradedTotal
}
