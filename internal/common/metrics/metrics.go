// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LifecycleOpsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lifecycle_operations_completed_total",
			Help: "Total number of completed lifecycle operations",
		},
		[]string{"operation"},
	)

	LifecycleOpsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lifecycle_operations_failed_total",
			Help: "Total number of failed lifecycle operations",
		},
		[]string{"operation", "error_code"},
	)

	LifecycleOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "lifecycle_operation_duration_seconds",
			Help: "Duration of lifecycle operations in seconds",
		},
		[]string{"operation"},
	)

	LedgerHiddenApplications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lifecycle_ledger_hidden_total",
			Help: "Applications filtered out of a rendered list by the rejection ledger",
		},
		[]string{"event_id"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lifecycle_notifications_sent_total",
			Help: "Notifications dispatched, by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)
)
