// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	// ProposalTransitions counts committed status changes.
	ProposalTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proposal_transitions_total",
			Help: "Committed proposal status transitions",
		},
		[]string{"from", "to"},
	)

	ProposalConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proposal_conflicts_total",
			Help: "Proposal operations refused because of the current state",
		},
		[]string{"operation"},
	)

	MatchRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_runs_total",
			Help: "Matching runs by candidate source",
		},
		[]string{"source"},
	)

	MatchResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "match_results_count",
			Help:    "Number of companies returned per matching run",
			Buckets: []float64{0, 1, 3, 5, 10, 20, 50},
		},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "decision_notifications_sent_total",
			Help: "Decision notifications delivered by channel",
		},
		[]string{"channel", "type"},
	)
)

// ObserveJob records the outcome of one worker job.
func ObserveJob(taskType string, seconds float64, errorCode string) {
	WorkerJobDuration.WithLabelValues(taskType).Observe(seconds)
	if errorCode == "" {
		WorkerJobsCompleted.WithLabelValues(taskType).Inc()
		return
	}
	WorkerJobsFailed.WithLabelValues(taskType, errorCode).Inc()
}
