package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/craftkart/craftkart-backend/api/responses"
	"github.com/craftkart/craftkart-backend/api/validators"
	cartsvc "github.com/craftkart/craftkart-backend/internal/cart"
	pkgerrors "github.com/craftkart/craftkart-backend/pkg/errors"
	"github.com/craftkart/craftkart-backend/pkg/logger"
)

// QuoteCart recomputes cart pricing from the catalog, optionally applying a
// coupon. Nothing is persisted.
func QuoteCart(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload quoteCartRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := payload.toItems()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.BuildQuote(r.Context(), items, payload.CouponCode, time.Now().UTC())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, quote)
	}
}

type quoteCartRequest struct {
	Items      []cartItemRequest `json:"items" validate:"required,min=1,dive"`
	CouponCode string            `json:"coupon_code,omitempty"`
}

type cartItemRequest struct {
	ProductID         string  `json:"product_id" validate:"required,uuid4"`
	Qty               int     `json:"qty" validate:"required,min=1"`
	CustomizationText *string `json:"customization_text,omitempty" validate:"omitempty,max=240"`
	SelectedColor     *string `json:"selected_color,omitempty" validate:"omitempty,max=40"`
}

func (r quoteCartRequest) toItems() ([]cartsvc.QuoteItem, error) {
	items := make([]cartsvc.QuoteItem, 0, len(r.Items))
	for _, item := range r.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
		}
		items = append(items, cartsvc.QuoteItem{
			ProductID:         productID,
			Qty:               item.Qty,
			CustomizationText: item.CustomizationText,
			SelectedColor:     item.SelectedColor,
		})
	}
	return items, nil
}
