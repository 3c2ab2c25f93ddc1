package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCheckoutMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCheckoutMetrics(reg)

	metrics.IncOrderCreated("cod")
	metrics.IncPaymentVerificationFailure("signature_mismatch")
	metrics.IncCouponValidation("expired")
	metrics.ObserveCheckoutDuration("cod", 120*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "orders_created_total", "payment_method", "cod"); err != nil {
		t.Fatalf("fetch orders created: %v", err)
	} else if got != 1 {
		t.Fatalf("expected orders_created=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "payment_verification_failures_total", "reason", "signature_mismatch"); err != nil {
		t.Fatalf("fetch verification failures: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failures=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "coupon_validations_total", "outcome", "expired"); err != nil {
		t.Fatalf("fetch coupon validations: %v", err)
	} else if got != 1 {
		t.Fatalf("expected validations=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "checkout_duration_seconds", "payment_method", "cod"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestCheckoutMetricsNilSafe(t *testing.T) {
	var metrics *CheckoutMetrics
	metrics.IncOrderCreated("online")
	metrics.IncPaymentVerificationFailure("")
	metrics.IncCouponValidation("ok")
	metrics.ObserveCheckoutDuration("online", time.Second)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
