package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Webhook metrics
	WebhookRequestsTotal   *prometheus.CounterVec
	WebhookDurationSeconds *prometheus.HistogramVec

	// Command metrics
	CommandsTotal *prometheus.CounterVec

	// Storage metrics
	StoreErrorsTotal *prometheus.CounterVec
	ShopCount        *prometheus.GaugeVec

	// Sampler metrics
	SamplerAttempts   prometheus.Histogram
	SamplerExhausted  prometheus.Counter
	ReplyMessagesSent *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		WebhookRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "eatwhat_webhook_requests_total",
				Help: "Total number of webhook events by event type and status",
			},
			[]string{"event_type", "status"}, // status: success, error, reply_error
		),

		WebhookDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "eatwhat_webhook_duration_seconds",
				Help:    "Webhook event processing duration in seconds by event type",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"event_type"}, // event_type: message, unfollow, leave
		),

		CommandsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "eatwhat_commands_total",
				Help: "Total number of dispatched commands by keyword and status",
			},
			[]string{"command", "status"}, // status: success, rejected, error, unknown
		),

		StoreErrorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "eatwhat_store_errors_total",
				Help: "Total number of shop store failures by operation",
			},
			[]string{"operation"}, // operation: save, list, update, delete, delete_all
		),

		ShopCount: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "eatwhat_shops",
				Help: "Current number of shop records",
			},
			[]string{"scope"}, // scope: total
		),

		SamplerAttempts: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "eatwhat_sampler_attempts",
				Help:    "Number of accept/reject draws before a recommendation was produced",
				Buckets: []float64{1, 2, 3, 5, 10, 20, 50, 100},
			},
		),

		SamplerExhausted: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "eatwhat_sampler_exhausted_total",
				Help: "Total number of recommendations that exhausted the attempt budget",
			},
		),

		ReplyMessagesSent: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "eatwhat_reply_messages_total",
				Help: "Total number of reply API calls by status",
			},
			[]string{"status"}, // status: success, error, skipped
		),
	}

	return m
}

// RecordWebhook records a webhook event with status
func (m *Metrics) RecordWebhook(eventType, status string, duration float64) {
	m.WebhookRequestsTotal.WithLabelValues(eventType, status).Inc()
	m.WebhookDurationSeconds.WithLabelValues(eventType).Observe(duration)
}

// RecordCommand records a dispatched command
func (m *Metrics) RecordCommand(command, status string) {
	m.CommandsTotal.WithLabelValues(command, status).Inc()
}

// RecordStoreError records a shop store failure
func (m *Metrics) RecordStoreError(operation string) {
	m.StoreErrorsTotal.WithLabelValues(operation).Inc()
}

// SetShopCount updates the shop count gauge
func (m *Metrics) SetShopCount(count int) {
	m.ShopCount.WithLabelValues("total").Set(float64(count))
}

// RecordSamplerAttempts records the number of draws a recommendation took
func (m *Metrics) RecordSamplerAttempts(attempts int) {
	m.SamplerAttempts.Observe(float64(attempts))
}

// RecordSamplerExhausted records a recommendation that ran out of draws
func (m *Metrics) RecordSamplerExhausted() {
	m.SamplerExhausted.Inc()
}

// RecordReply records the outcome of a reply API call
func (m *Metrics) RecordReply(status string) {
	m.ReplyMessagesSent.WithLabelValues(status).Inc()
}
