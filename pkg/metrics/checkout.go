package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "learnhub"

// Checkout outcomes used as the "outcome" label.
const (
	OutcomePaid       = "paid"
	OutcomeUnpaid     = "unpaid"
	OutcomeRejected   = "rejected"
	OutcomeTransport  = "transport_error"
	OutcomeValidation = "validation_error"
	OutcomeConflict   = "conflict"
)

// CheckoutMetrics instruments the checkout pipeline.
type CheckoutMetrics struct {
	attempts        *prometheus.CounterVec
	gatewayLatency  *prometheus.HistogramVec
	fulfillmentFail prometheus.Counter
}

// NewCheckoutMetrics registers checkout metrics. A nil registerer yields a
// no-op collector so services can be built without metrics in tests.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_attempts_total",
		Help:      "Checkout attempts partitioned by outcome.",
	}, []string{"outcome"})
	gatewayLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "payment_gateway_request_duration_seconds",
		Help:      "Latency of order creation calls to the payment gateway.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"provider"})
	fulfillmentFail := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "post_payment_write_failures_total",
		Help:      "Enrollment grants or cart clears that failed after a confirmed payment.",
	})
	reg.MustRegister(attempts, gatewayLatency, fulfillmentFail)
	return &CheckoutMetrics{
		attempts:        attempts,
		gatewayLatency:  gatewayLatency,
		fulfillmentFail: fulfillmentFail,
	}
}

func (c *CheckoutMetrics) IncAttempt(outcome string) {
	if c == nil || c.attempts == nil {
		return
	}
	c.attempts.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (c *CheckoutMetrics) ObserveGateway(provider string, d time.Duration) {
	if c == nil || c.gatewayLatency == nil {
		return
	}
	c.gatewayLatency.WithLabelValues(normalizeLabel(provider)).Observe(d.Seconds())
}

func (c *CheckoutMetrics) IncPostPaymentFailure() {
	if c == nil || c.fulfillmentFail == nil {
		return
	}
	c.fulfillmentFail.Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
