// Package metrics provides Prometheus metrics for the amber service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "amber"

var (
	// SyncRunsTotal counts sync runs by provider and outcome
	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "runs_total",
			Help:      "Total number of provider sync runs by outcome",
		},
		[]string{"provider", "outcome"},
	)

	// SyncRecordsTotal counts mirrored records upserted by sync runs
	SyncRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "records_total",
			Help:      "Total number of mirror records upserted by entity",
		},
		[]string{"provider", "entity"},
	)

	// SyncDuration tracks how long sync runs take
	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "duration_seconds",
			Help:      "Duration of provider sync runs in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 900},
		},
		[]string{"provider"},
	)

	// FetchRetriesTotal counts outbound request retries by reason
	FetchRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "retries_total",
			Help:      "Total number of retried provider requests by reason",
		},
		[]string{"reason"},
	)

	// WebhookEventsTotal counts webhook deliveries by outcome
	WebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "events_total",
			Help:      "Total number of webhook deliveries by outcome",
		},
		[]string{"provider", "outcome"},
	)

	// AggregationRunsTotal counts aggregation walks by metric family and outcome
	AggregationRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "aggregation",
			Name:      "runs_total",
			Help:      "Total number of aggregation runs by family, period and outcome",
		},
		[]string{"family", "period", "outcome"},
	)

	// BackgroundTasksInFlight tracks detached tasks currently running
	BackgroundTasksInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "tasks_in_flight",
			Help:      "Number of background tasks currently running",
		},
	)
)

// ObserveFetchRetry matches fetch.RetryHook.
func ObserveFetchRetry(reason string, _ int, _ time.Duration) {
	FetchRetriesTotal.WithLabelValues(reason).Inc()
}

// Outcome label values.
const (
	OutcomeSuccess      = "success"
	OutcomeFailure      = "failure"
	OutcomeNotConnected = "not_connected"
	OutcomeDuplicate    = "duplicate"
	OutcomeUnknownOwner = "unknown_owner"
	OutcomeDispatched   = "dispatched"
	OutcomeIgnored      = "ignored"
	OutcomeRejected     = "rejected"
)
