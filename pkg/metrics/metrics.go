package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PollTicks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dmail_poll_ticks_total",
			Help: "Total number of dmail poll ticks",
		},
		[]string{"outcome"}, // outcome: ok, skipped, unconfigured, list_error
	)

	DmailsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dmails_dispatched_total",
			Help: "Total number of dmails dispatched to command handlers",
		},
		[]string{"command"}, // lowercased subject, or "fallback"
	)

	RepliesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dmail_replies_sent_total",
			Help: "Total number of outbound reply dmails",
		},
		[]string{"outcome"}, // outcome: success, expected_denied, failed
	)

	E6AIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "e6ai_request_duration_seconds",
			Help:    "e6AI API request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~10s
		},
		[]string{"endpoint", "status"},
	)

	NotificationsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moderation_notifications_published_total",
			Help: "Total number of moderation notifications published to the bus",
		},
		[]string{"outcome"}, // outcome: success, failed, escalated
	)
)

func RecordPollTick(outcome string) {
	PollTicks.WithLabelValues(outcome).Inc()
}

func RecordDispatch(command string) {
	DmailsDispatched.WithLabelValues(command).Inc()
}

func RecordReply(outcome string) {
	RepliesSent.WithLabelValues(outcome).Inc()
}

func RecordE6AIRequest(endpoint, status string, duration time.Duration) {
	E6AIRequestDuration.WithLabelValues(endpoint, status).Observe(duration.Seconds())
}

func RecordNotification(outcome string) {
	NotificationsPublished.WithLabelValues(outcome).Inc()
}
