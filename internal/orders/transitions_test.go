package orders

import (
	"testing"

	"github.com/craftkart/craftkart-backend/pkg/enums"
)

func TestCanTransitionForwardOnly(t *testing.T) {
	t.Parallel()

	allowed := []struct{ from, to enums.OrderStatus }{
		{enums.OrderStatusPending, enums.OrderStatusProcessing},
		{enums.OrderStatusPending, enums.OrderStatusShipped},
		{enums.OrderStatusProcessing, enums.OrderStatusShipped},
		{enums.OrderStatusShipped, enums.OrderStatusOutForDelivery},
		{enums.OrderStatusOutForDelivery, enums.OrderStatusDelivered},
		{enums.OrderStatusProcessing, enums.OrderStatusDelivered},
	}
	for _, tc := range allowed {
		if !CanTransition(tc.from, tc.to) {
			t.Fatalf("expected %s -> %s to be allowed", tc.from, tc.to)
		}
	}

	rejected := []struct{ from, to enums.OrderStatus }{
		{enums.OrderStatusShipped, enums.OrderStatusProcessing},
		{enums.OrderStatusDelivered, enums.OrderStatusShipped},
		{enums.OrderStatusDelivered, enums.OrderStatusCanceled},
		{enums.OrderStatusCanceled, enums.OrderStatusProcessing},
		{enums.OrderStatusPending, enums.OrderStatusPending},
		{enums.OrderStatusOutForDelivery, enums.OrderStatusShipped},
	}
	for _, tc := range rejected {
		if CanTransition(tc.from, tc.to) {
			t.Fatalf("expected %s -> %s to be rejected", tc.from, tc.to)
		}
	}
}

func TestCanTransitionToCanceledMatchesCancelRules(t *testing.T) {
	t.Parallel()

	if !CanTransition(enums.OrderStatusPending, enums.OrderStatusCanceled) {
		t.Fatal("pending orders should be cancelable")
	}
	if !CanTransition(enums.OrderStatusProcessing, enums.OrderStatusCanceled) {
		t.Fatal("processing orders should be cancelable")
	}
	if CanTransition(enums.OrderStatusShipped, enums.OrderStatusCanceled) {
		t.Fatal("shipped orders should not be cancelable")
	}
	if CanTransition(enums.OrderStatusOutForDelivery, enums.OrderStatusCanceled) {
		t.Fatal("out-for-delivery orders should not be cancelable")
	}
}

func TestCanCancel(t *testing.T) {
	t.Parallel()

	if !CanCancel(enums.OrderStatusPending) || !CanCancel(enums.OrderStatusProcessing) {
		t.Fatal("pending and processing should be cancelable")
	}
	for _, status := range []enums.OrderStatus{
		enums.OrderStatusShipped,
		enums.OrderStatusOutForDelivery,
		enums.OrderStatusDelivered,
		enums.OrderStatusCanceled,
	} {
		if CanCancel(status) {
			t.Fatalf("%s should not be cancelable", status)
		}
	}
}
