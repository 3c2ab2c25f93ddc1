package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records order placement and coupon validation outcomes.
type CheckoutMetrics struct {
	ordersCreated        *prometheus.CounterVec
	paymentVerifyFailure *prometheus.CounterVec
	couponValidations    *prometheus.CounterVec
	checkoutDuration     *prometheus.HistogramVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	ordersCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders persisted, labeled by payment method.",
	}, []string{"payment_method"})
	paymentVerifyFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_verification_failures_total",
		Help: "Online payment confirmations rejected at checkout.",
	}, []string{"reason"})
	couponValidations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coupon_validations_total",
		Help: "Coupon validation attempts, labeled by outcome.",
	}, []string{"outcome"})
	checkoutDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"payment_method"})
	reg.MustRegister(ordersCreated, paymentVerifyFailure, couponValidations, checkoutDuration)
	return &CheckoutMetrics{
		ordersCreated:        ordersCreated,
		paymentVerifyFailure: paymentVerifyFailure,
		couponValidations:    couponValidations,
		checkoutDuration:     checkoutDuration,
	}
}

// IncOrderCreated increments the created-order counter for the payment method.
func (c *CheckoutMetrics) IncOrderCreated(paymentMethod string) {
	if c == nil || c.ordersCreated == nil {
		return
	}
	c.ordersCreated.WithLabelValues(normalizeLabel(paymentMethod)).Inc()
}

// IncPaymentVerificationFailure increments the verification-failure counter.
func (c *CheckoutMetrics) IncPaymentVerificationFailure(reason string) {
	if c == nil || c.paymentVerifyFailure == nil {
		return
	}
	c.paymentVerifyFailure.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncCouponValidation increments the coupon validation counter for the outcome.
func (c *CheckoutMetrics) IncCouponValidation(outcome string) {
	if c == nil || c.couponValidations == nil {
		return
	}
	c.couponValidations.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveCheckoutDuration records how long a checkout request took.
func (c *CheckoutMetrics) ObserveCheckoutDuration(paymentMethod string, duration time.Duration) {
	if c == nil || c.checkoutDuration == nil {
		return
	}
	c.checkoutDuration.WithLabelValues(normalizeLabel(paymentMethod)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
