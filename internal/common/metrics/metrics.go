// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ApplicationsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "workflow_applications_submitted_total",
			Help: "Total number of provider applications submitted",
		},
	)

	ApplicationsReviewed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_applications_reviewed_total",
			Help: "Total number of review decisions by outcome",
		},
		[]string{"decision"},
	)

	SubmissionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_submissions_rejected_total",
			Help: "Total number of submissions refused by eligibility rules",
		},
		[]string{"error_code"},
	)

	NotificationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_notification_failures_total",
			Help: "Total number of failed notification dispatches",
		},
		[]string{"event"},
	)
)
