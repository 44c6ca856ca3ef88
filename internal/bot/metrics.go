// Package bot – Prometheus instrumentation
//
// Domain-level collectors for the publication pipeline. HTTP traffic metrics
// live in the middleware package; these cover what actually matters for the
// channel: how many announcements went out, through which path, and how many
// requests are waiting on the admin.
package bot

import "github.com/prometheus/client_golang/prometheus"

var (
	// postsPublished counts successful channel announcements by source:
	// immediate, request, fulfillment, scheduled, auto, news.
	postsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "channel_posts_total",
			Help: "Total number of channel announcements published, by source.",
		},
		[]string{"source"},
	)

	// postFailures counts publish attempts that failed (metadata fetch or
	// message send).
	postFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "channel_post_failures_total",
			Help: "Total number of failed channel publish attempts.",
		},
	)

	// pendingRequests gauges the number of outstanding user requests.
	pendingRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pending_requests",
			Help: "Number of user movie requests awaiting admin action.",
		},
	)
)

func init() {
	prometheus.MustRegister(postsPublished, postFailures, pendingRequests)
}
