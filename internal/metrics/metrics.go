package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics for the propagation pipeline.
var (
	EventsConsumedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ordertrack_events_consumed_total",
			Help: "Total number of order-created events consumed from the broker",
		},
	)

	TransitionsAppliedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ordertrack_transitions_applied_total",
			Help: "Total number of scheduled status transitions applied",
		},
	)

	TransitionsSkippedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ordertrack_transitions_skipped_total",
			Help: "Total number of scheduled transitions skipped by the guard",
		},
	)

	WebhooksDeliveredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ordertrack_webhooks_delivered_total",
			Help: "Total number of status webhooks delivered successfully",
		},
	)

	WebhooksFailedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ordertrack_webhooks_failed_total",
			Help: "Total number of status webhooks that failed delivery",
		},
	)

	ConnectedSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ordertrack_connected_subscribers",
			Help: "Number of live stream subscribers in the broadcast hub",
		},
	)
)

func Register() {
	prometheus.MustRegister(
		EventsConsumedTotal,
		TransitionsAppliedTotal,
		TransitionsSkippedTotal,
		WebhooksDeliveredTotal,
		WebhooksFailedTotal,
		ConnectedSubscribers,
	)
}
