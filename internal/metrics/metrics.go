package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	EmailsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "emails_sent_total",
			Help: "Total emails sent",
		},
	)

	EmailFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "email_failures_total",
			Help: "Total failed emails",
		},
	)

	EmailCommitFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "email_status_commit_failures_total",
			Help: "Status updates that could not be committed",
		},
	)

	OutboxPassDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "outbox_pass_duration_seconds",
			Help:    "Duration of one outbox delivery pass",
			Buckets: prometheus.DefBuckets,
		},
	)

	OutboxLastBatch = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "outbox_last_batch_size",
			Help: "Jobs claimed by the most recent pass",
		},
	)

	OutboxStaleReleased = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "outbox_stale_released_total",
			Help: "Stale claims returned to pending",
		},
	)

	AuthRateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_rate_limited_total",
			Help: "Auth requests rejected by the rate limiter",
		},
	)

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)
)

func Init() {
	prometheus.MustRegister(EmailsSent)
	prometheus.MustRegister(EmailFailures)
	prometheus.MustRegister(EmailCommitFailures)
	prometheus.MustRegister(OutboxPassDuration)
	prometheus.MustRegister(OutboxLastBatch)
	prometheus.MustRegister(OutboxStaleReleased)
	prometheus.MustRegister(AuthRateLimited)
	prometheus.MustRegister(HTTPRequests)
}
