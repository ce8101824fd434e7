package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	apiRequestsTotal      *prometheus.CounterVec
	apiLatencySeconds     *prometheus.HistogramVec
	apiErrorsTotal        *prometheus.CounterVec
	emailsTotal           *prometheus.CounterVec
	groupsCreatedTotal    *prometheus.CounterVec
	councilMembersTotal   *prometheus.CounterVec
	schedulesCreatedTotal *prometheus.CounterVec
	evaluationsTotal      *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "thesis_api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "thesis_api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "thesis_api_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		emailsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "thesis_emails_total",
			Help: "Email send attempts by outcome.",
		}, []string{"status"})

		groupsCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "thesis_groups_created_total",
			Help: "Groups created, by origin.",
		}, []string{"origin"})

		councilMembersTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "thesis_council_members_added_total",
			Help: "Council seats filled, by council role.",
		}, []string{"role"})

		schedulesCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "thesis_schedules_created_total",
			Help: "Review and defense sessions scheduled.",
		}, []string{"type"})

		evaluationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "thesis_defense_evaluations_total",
			Help: "Per-student defense evaluations by result.",
		}, []string{"result"})

		prometheus.MustRegister(
			apiRequestsTotal, apiLatencySeconds, apiErrorsTotal,
			emailsTotal, groupsCreatedTotal, councilMembersTotal, schedulesCreatedTotal, evaluationsTotal,
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

// EmailsTotal counts email attempts by status.
func EmailsTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return emailsTotal
}

// GroupsCreated counts created groups.
func GroupsCreated() *prometheus.CounterVec {
	RegisterMetrics()
	return groupsCreatedTotal
}

// CouncilMembersAdded counts council seats filled.
func CouncilMembersAdded() *prometheus.CounterVec {
	RegisterMetrics()
	return councilMembersTotal
}

// SchedulesCreated counts scheduled sessions.
func SchedulesCreated() *prometheus.CounterVec {
	RegisterMetrics()
	return schedulesCreatedTotal
}

// DefenseEvaluations counts recorded defense results.
func DefenseEvaluations() *prometheus.CounterVec {
	RegisterMetrics()
	return evaluationsTotal
}
