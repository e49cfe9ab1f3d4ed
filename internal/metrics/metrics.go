// Package metrics exposes the Prometheus collectors of the distribution API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "contact_distribution"

var (
	// HTTPRequestsTotal counts handled requests by method, route pattern and status code
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Histogram of HTTP request durations.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
		[]string{"method", "route"},
	)

	// UploadsTotal counts upload attempts by outcome (distributed, rejected, failed).
	// Rejected uploads carry the rejection reason; other outcomes use ReasonNone.
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Total number of contact list uploads, labeled by outcome and rejection reason.",
		},
		[]string{"outcome", "reason"},
	)

	ContactsDistributedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contacts_distributed_total",
			Help:      "Total number of contact records assigned to targets.",
		},
	)

	BatchesCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_created_total",
			Help:      "Total number of distribution batches persisted.",
		},
	)

	AgentNumbersIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_numbers_issued_total",
			Help:      "Total number of agent numbers allocated.",
		},
	)

	StagedFilesSweptTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "staged_files_swept_total",
			Help:      "Total number of abandoned staged uploads removed by the cleanup job.",
		},
	)

	// JobRunsTotal counts scheduled job runs by job name and outcome
	JobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Total number of scheduled job runs.",
		},
		[]string{"job", "outcome"},
	)
)

// Upload and job outcomes
const (
	OutcomeDistributed = "distributed"
	OutcomeRejected    = "rejected"
	OutcomeFailed      = "failed"
	OutcomeSucceeded   = "succeeded"
)

// Upload rejection reasons
const (
	ReasonNone                = "none"
	ReasonValidation          = "validation"
	ReasonForbidden           = "forbidden"
	ReasonNoEligibleTargets   = "no_eligible_targets"
	ReasonNoValidRows         = "no_valid_rows"
	ReasonUnsupportedFileType = "unsupported_file_type"
	ReasonFileTooLarge        = "file_too_large"
)

// ObserveRequest records one handled HTTP request
func ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDurationSeconds.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the default Prometheus registry
func Handler() http.Handler {
	return promhttp.Handler()
}
