package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	apiRequestsTotal     *prometheus.CounterVec
	apiLatencySeconds    *prometheus.HistogramVec
	apiErrorsTotal       *prometheus.CounterVec
	submissionsTotal     *prometheus.CounterVec
	submissionRejections *prometheus.CounterVec
	gradesAppliedTotal   prometheus.Counter
	resultCacheLookups   *prometheus.CounterVec
	eventsPublishedTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the assessment API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assessment_api_requests_total",
			Help: "Total number of assessment API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "assessment_api_latency_seconds",
			Help:    "Latency distribution for assessment API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assessment_api_errors_total",
			Help: "Total number of error responses returned by assessment endpoints.",
		}, []string{"method", "route", "status"})

		submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assessment_submissions_total",
			Help: "Submissions stored, labelled by the status they were stored with.",
		}, []string{"status"})

		submissionRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assessment_submission_rejections_total",
			Help: "Submit calls rejected before persistence, labelled by reason.",
		}, []string{"reason"})

		gradesAppliedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "assessment_manual_grades_total",
			Help: "Manual grades applied to submissions.",
		})

		resultCacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assessment_result_cache_lookups_total",
			Help: "Detailed result cache lookups, labelled by outcome.",
		}, []string{"outcome"})

		eventsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assessment_events_published_total",
			Help: "Submission events handed to the message broker, labelled by type and outcome.",
		}, []string{"type", "outcome"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			submissionsTotal,
			submissionRejections,
			gradesAppliedTotal,
			resultCacheLookups,
			eventsPublishedTotal,
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

// SubmissionsTotal counts stored submissions by status.
func SubmissionsTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsTotal
}

// SubmissionRejections counts submit calls rejected during validation.
func SubmissionRejections() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionRejections
}

// GradesApplied counts manual grades.
func GradesApplied() prometheus.Counter {
	RegisterMetrics()
	return gradesAppliedTotal
}

// ResultCacheLookups counts detailed result cache hits and misses.
func ResultCacheLookups() *prometheus.CounterVec {
	RegisterMetrics()
	return resultCacheLookups
}

// EventsPublished counts submission events sent to the broker.
func EventsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return eventsPublishedTotal
}
