package controllers

import (
	"net/http"
	"strings"

	"github.com/craftkart/craftkart-backend/api/responses"
	"github.com/craftkart/craftkart-backend/api/validators"
	ordersvc "github.com/craftkart/craftkart-backend/internal/orders"
	"github.com/craftkart/craftkart-backend/pkg/enums"
	pkgerrors "github.com/craftkart/craftkart-backend/pkg/errors"
	"github.com/craftkart/craftkart-backend/pkg/logger"
	"github.com/craftkart/craftkart-backend/pkg/pagination"
)

// AdminListOrders pages through all orders with optional status and payment
// method filters.
func AdminListOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := ordersvc.AdminListFilters{}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, parseErr := enums.ParseOrderStatus(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid status filter"))
				return
			}
			filters.Status = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("payment_method")); raw != "" {
			method, parseErr := enums.ParsePaymentMethod(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid payment method filter"))
				return
			}
			filters.PaymentMethod = &method
		}

		list, err := svc.AdminList(r.Context(), pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"orders":      list.Orders,
			"next_cursor": list.NextCursor,
		})
	}
}

// AdminOrderDetail returns any customer's order by id.
func AdminOrderDetail(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.AdminGet(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

// AdminUpdateOrderStatus moves an order along the fulfillment pipeline or
// cancels it with a reason.
func AdminUpdateOrderStatus(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload adminUpdateStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseOrderStatus(strings.TrimSpace(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		order, err := svc.AdminUpdateStatus(r.Context(), ordersvc.AdminUpdateStatusInput{
			OrderID: orderID,
			Status:  status,
			Reason:  payload.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

type adminUpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
	Reason string `json:"reason,omitempty" validate:"omitempty,min=3,max=500"`
}
