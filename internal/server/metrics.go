package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides observability for the verification API.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP request latencies by route and method
	RequestLatency *prometheus.HistogramVec

	// HTTP responses by route and status class
	Responses *prometheus.CounterVec

	// Verification outcomes by outcome kind
	VerificationOutcome *prometheus.CounterVec

	// Workflow run completions by outcome
	WorkflowOutcome *prometheus.CounterVec

	// Webhook deliveries by kind and disposition (resolved, duplicate, rejected)
	WebhookDeliveries *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance with all API metrics registered on a
// private registry, so multiple server instances (tests) never collide.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RequestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "verifier_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route and method",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"route", "method"}),

		Responses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "verifier_http_responses_total",
			Help: "Total HTTP responses by route and status class",
		}, []string{"route", "status"}),

		VerificationOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "verifier_verification_outcomes_total",
			Help: "Total verification attempt outcomes",
		}, []string{"outcome"}),

		WorkflowOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "verifier_workflow_outcomes_total",
			Help: "Total workflow run outcomes",
		}, []string{"outcome"}),

		WebhookDeliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "verifier_webhook_deliveries_total",
			Help: "Total webhook deliveries by kind and disposition",
		}, []string{"kind", "disposition"}),
	}
}

// Handler returns the /metrics scrape handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one handled HTTP request.
func (m *Metrics) ObserveRequest(route, method, status string, d time.Duration) {
	if m != nil {
		m.RequestLatency.WithLabelValues(route, method).Observe(d.Seconds())
		m.Responses.WithLabelValues(route, status).Inc()
	}
}

// IncrementVerificationOutcome records one verification attempt outcome.
func (m *Metrics) IncrementVerificationOutcome(outcome string) {
	if m != nil {
		m.VerificationOutcome.WithLabelValues(outcome).Inc()
	}
}

// IncrementWorkflowOutcome records one workflow run outcome.
func (m *Metrics) IncrementWorkflowOutcome(outcome string) {
	if m != nil {
		m.WorkflowOutcome.WithLabelValues(outcome).Inc()
	}
}

// IncrementWebhook records one webhook delivery.
func (m *Metrics) IncrementWebhook(kind, disposition string) {
	if m != nil {
		m.WebhookDeliveries.WithLabelValues(kind, disposition).Inc()
	}
}
