package orders

import "github.com/craftkart/craftkart-backend/pkg/enums"

// fulfillmentRank orders the forward path. Canceled and delivered are
// terminal; admin updates may only move an order forward along this path.
var fulfillmentRank = map[enums.OrderStatus]int{
	enums.OrderStatusPending:        0,
	enums.OrderStatusProcessing:     1,
	enums.OrderStatusShipped:        2,
	enums.OrderStatusOutForDelivery: 3,
	enums.OrderStatusDelivered:      4,
}

// CanTransition reports whether an admin may move an order from one status to
// the next. Only single-direction moves along the fulfillment path are
// allowed; cancellation is handled separately.
func CanTransition(from, to enums.OrderStatus) bool {
	if from == to {
		return false
	}
	if from.IsTerminal() {
		return false
	}
	if to == enums.OrderStatusCanceled {
		return CanCancel(from)
	}
	fromRank, ok := fulfillmentRank[from]
	if !ok {
		return false
	}
	toRank, ok := fulfillmentRank[to]
	if !ok {
		return false
	}
	return toRank > fromRank
}

// CanCancel reports whether an order in the given status may still be canceled.
func CanCancel(from enums.OrderStatus) bool {
	return from == enums.OrderStatusPending || from == enums.OrderStatusProcessing
}
