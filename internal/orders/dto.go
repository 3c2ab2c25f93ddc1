package orders

import (
	"github.com/craftkart/craftkart-backend/internal/cart"
	"github.com/craftkart/craftkart-backend/internal/payments"
	"github.com/craftkart/craftkart-backend/pkg/enums"
	"github.com/craftkart/craftkart-backend/pkg/types"
	"github.com/google/uuid"
)

// CheckoutInput carries everything needed to place an order. Prices are
// recomputed server-side; only product ids and quantities are taken from the
// client.
type CheckoutInput struct {
	UserID          uuid.UUID
	Items           []cart.QuoteItem
	CouponCode      string
	PaymentMethod   enums.PaymentMethod
	ShippingAddress types.Address
	SaveAddress     bool
	Payment         *payments.Confirmation
}

// CancelInput carries a customer cancellation request.
type CancelInput struct {
	UserID  uuid.UUID
	OrderID uuid.UUID
	Reason  string
}

// AdminUpdateStatusInput carries a back-office status change. Reason is only
// consulted when the target status is canceled.
type AdminUpdateStatusInput struct {
	OrderID uuid.UUID
	Status  enums.OrderStatus
	Reason  string
}
