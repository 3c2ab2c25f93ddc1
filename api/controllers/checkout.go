package controllers

import (
	"net/http"
	"strings"

	"github.com/craftkart/craftkart-backend/api/responses"
	"github.com/craftkart/craftkart-backend/api/validators"
	ordersvc "github.com/craftkart/craftkart-backend/internal/orders"
	"github.com/craftkart/craftkart-backend/internal/payments"
	"github.com/craftkart/craftkart-backend/pkg/enums"
	pkgerrors "github.com/craftkart/craftkart-backend/pkg/errors"
	"github.com/craftkart/craftkart-backend/pkg/logger"
	"github.com/craftkart/craftkart-backend/pkg/types"
)

// Checkout places an order for the authenticated customer.
func Checkout(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.UserID = userID

		order, err := svc.Checkout(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

type checkoutRequest struct {
	Items           []cartItemRequest    `json:"items" validate:"required,min=1,dive"`
	CouponCode      string               `json:"coupon_code,omitempty"`
	PaymentMethod   string               `json:"payment_method" validate:"required,oneof=online cod"`
	ShippingAddress addressRequest       `json:"shipping_address" validate:"required"`
	SaveAddress     bool                 `json:"save_address,omitempty"`
	Payment         *paymentConfirmation `json:"payment,omitempty"`
}

// Signature is optional: callbacks without one are verified through the
// provider's captured-status lookup instead.
type paymentConfirmation struct {
	ProviderOrderID string `json:"provider_order_id" validate:"required"`
	PaymentID       string `json:"payment_id" validate:"required"`
	Signature       string `json:"signature,omitempty"`
}

type addressRequest struct {
	FullName   string  `json:"full_name" validate:"required"`
	Email      string  `json:"email,omitempty" validate:"omitempty,email"`
	Phone      string  `json:"phone" validate:"required"`
	Line1      string  `json:"line1" validate:"required"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city" validate:"required"`
	State      string  `json:"state" validate:"required"`
	PostalCode string  `json:"postal_code" validate:"required"`
	Country    string  `json:"country,omitempty"`
}

func (a addressRequest) toAddress() types.Address {
	return types.Address{
		FullName:   a.FullName,
		Email:      a.Email,
		Phone:      a.Phone,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

func (r checkoutRequest) toInput() (ordersvc.CheckoutInput, error) {
	method, err := enums.ParsePaymentMethod(strings.TrimSpace(r.PaymentMethod))
	if err != nil {
		return ordersvc.CheckoutInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
	}

	items, err := quoteCartRequest{Items: r.Items}.toItems()
	if err != nil {
		return ordersvc.CheckoutInput{}, err
	}

	input := ordersvc.CheckoutInput{
		Items:           items,
		CouponCode:      r.CouponCode,
		PaymentMethod:   method,
		ShippingAddress: r.ShippingAddress.toAddress(),
		SaveAddress:     r.SaveAddress,
	}
	if r.Payment != nil {
		input.Payment = &payments.Confirmation{
			ProviderOrderID: r.Payment.ProviderOrderID,
			PaymentID:       r.Payment.PaymentID,
			Signature:       r.Payment.Signature,
		}
	}
	return input, nil
}
