package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	contentOrchestrator = "content_orchestrator"

	// Job metrics
	jobTransitionsTotal = "job_transitions_total"
	jobsInFlight        = "jobs_in_flight"

	// Webhook metrics
	webhookDeliveriesTotal = "webhook_deliveries_total"

	// Stream metrics
	streamSubscribers        = "stream_subscribers"
	streamDroppedEventsTotal = "stream_dropped_events_total"

	// Labels
	jobStatusLabel      = "status"
	deliveryResultLabel = "result"
)

const (
	WebhookDelivered = "delivered"
	WebhookFailed    = "failed"
)

/**
* Metrics definition
**/
var jobTransitionsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: contentOrchestrator,
		Name:      jobTransitionsTotal,
		Help:      "number of job state transitions by resulting status",
	},
	[]string{jobStatusLabel},
)

var jobsInFlightMetric = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Subsystem: contentOrchestrator,
		Name:      jobsInFlight,
		Help:      "number of job executions currently running",
	},
)

var webhookDeliveriesTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: contentOrchestrator,
		Name:      webhookDeliveriesTotal,
		Help:      "number of webhook notification attempts by final result",
	},
	[]string{deliveryResultLabel},
)

var streamSubscribersMetric = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Subsystem: contentOrchestrator,
		Name:      streamSubscribers,
		Help:      "number of currently connected stream subscribers",
	},
)

var streamDroppedEventsTotalMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: contentOrchestrator,
		Name:      streamDroppedEventsTotal,
		Help:      "number of broadcast events dropped because a subscriber queue was full",
	},
)

func IncreaseJobTransitionsTotalMetric(status string) {
	jobTransitionsTotalMetric.With(prometheus.Labels{jobStatusLabel: status}).Inc()
}

func IncreaseJobsInFlightMetric() {
	jobsInFlightMetric.Inc()
}

func DecreaseJobsInFlightMetric() {
	jobsInFlightMetric.Dec()
}

func IncreaseWebhookDeliveriesTotalMetric(result string) {
	webhookDeliveriesTotalMetric.With(prometheus.Labels{deliveryResultLabel: result}).Inc()
}

func SetStreamSubscribersMetric(count int) {
	streamSubscribersMetric.Set(float64(count))
}

func IncreaseStreamDroppedEventsTotalMetric() {
	streamDroppedEventsTotalMetric.Inc()
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(jobTransitionsTotalMetric)
	prometheus.MustRegister(jobsInFlightMetric)
	prometheus.MustRegister(webhookDeliveriesTotalMetric)
	prometheus.MustRegister(streamSubscribersMetric)
	prometheus.MustRegister(streamDroppedEventsTotalMetric)
}
