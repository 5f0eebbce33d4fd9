// Package metrics provides Prometheus metrics for the receiptwatch service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReceiptsIngested tracks ingested receipts by result
	ReceiptsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "receiptwatch",
			Subsystem: "ingest",
			Name:      "receipts_total",
			Help:      "Total number of ingested receipts by result",
		},
		[]string{"result"},
	)

	// NotificationsCreated tracks reminders created by milestone
	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "receiptwatch",
			Subsystem: "scheduler",
			Name:      "notifications_created_total",
			Help:      "Total number of reminder notifications created",
		},
		[]string{"milestone"},
	)

	// DispatchOutcomes tracks dispatch attempts by outcome
	DispatchOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "receiptwatch",
			Subsystem: "dispatch",
			Name:      "outcomes_total",
			Help:      "Total number of dispatch attempts by outcome",
		},
		[]string{"outcome"},
	)

	// SendDuration tracks notifier send duration
	SendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "receiptwatch",
			Subsystem: "dispatch",
			Name:      "send_duration_seconds",
			Help:      "Duration of notifier sends in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	// SchedulerRuns tracks scheduler runs by status
	SchedulerRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "receiptwatch",
			Subsystem: "scheduler",
			Name:      "runs_total",
			Help:      "Total number of scheduler runs by status",
		},
		[]string{"status"},
	)
)

// RecordIngest records an ingested receipt.
func RecordIngest(result string) {
	ReceiptsIngested.WithLabelValues(result).Inc()
}

// RecordNotificationCreated records a newly scheduled reminder.
func RecordNotificationCreated(milestone string) {
	NotificationsCreated.WithLabelValues(milestone).Inc()
}

// RecordDispatch records a dispatch outcome and, when a send happened, its duration.
func RecordDispatch(outcome string, sendSeconds float64) {
	DispatchOutcomes.WithLabelValues(outcome).Inc()
	if sendSeconds > 0 {
		SendDuration.Observe(sendSeconds)
	}
}

// RecordSchedulerRun records a finished scheduler run.
func RecordSchedulerRun(status string) {
	SchedulerRuns.WithLabelValues(status).Inc()
}
