package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/craftkart/craftkart-backend/api/responses"
	"github.com/craftkart/craftkart-backend/api/validators"
	couponsvc "github.com/craftkart/craftkart-backend/internal/coupons"
	"github.com/craftkart/craftkart-backend/pkg/enums"
	pkgerrors "github.com/craftkart/craftkart-backend/pkg/errors"
	"github.com/craftkart/craftkart-backend/pkg/logger"
	"github.com/craftkart/craftkart-backend/pkg/pagination"
)

// ValidateCoupon quotes a coupon against a subtotal without placing an order.
func ValidateCoupon(svc couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		var payload validateCouponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.Validate(r.Context(), payload.Code, payload.SubtotalCents, time.Now().UTC())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"code":           quote.Coupon.Code,
			"discount_type":  quote.Coupon.DiscountType,
			"discount_cents": quote.DiscountCents,
			"total_cents":    payload.SubtotalCents - quote.DiscountCents,
		})
	}
}

// AdminCreateCoupon creates a coupon.
func AdminCreateCoupon(svc couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		var payload createCouponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		coupon, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, coupon)
	}
}

// AdminUpdateCoupon applies a partial coupon update.
func AdminUpdateCoupon(svc couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		couponID, err := pathUUID(r, "couponID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateCouponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.CouponID = couponID

		coupon, err := svc.Update(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, coupon)
	}
}

// AdminDeleteCoupon removes a coupon; placed orders keep their discount
// snapshots.
func AdminDeleteCoupon(svc couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		couponID, err := pathUUID(r, "couponID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), couponID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// AdminListCoupons pages through coupons, newest first.
func AdminListCoupons(svc couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"coupons":     list.Coupons,
			"next_cursor": list.NextCursor,
		})
	}
}

type validateCouponRequest struct {
	Code          string `json:"code" validate:"required"`
	SubtotalCents int    `json:"subtotal_cents" validate:"required,min=0"`
}

type createCouponRequest struct {
	Code          string     `json:"code" validate:"required"`
	Description   *string    `json:"description,omitempty"`
	DiscountType  string     `json:"discount_type" validate:"required,oneof=percentage fixed"`
	DiscountValue int        `json:"discount_value" validate:"required,min=1"`
	MinOrderCents int        `json:"min_order_cents" validate:"min=0"`
	IsActive      *bool      `json:"is_active,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

func (r createCouponRequest) toInput() (couponsvc.CreateCouponInput, error) {
	discountType, err := enums.ParseDiscountType(strings.TrimSpace(r.DiscountType))
	if err != nil {
		return couponsvc.CreateCouponInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount type")
	}

	isActive := true
	if r.IsActive != nil {
		isActive = *r.IsActive
	}
	return couponsvc.CreateCouponInput{
		Code:          r.Code,
		Description:   r.Description,
		DiscountType:  discountType,
		DiscountValue: r.DiscountValue,
		MinOrderCents: r.MinOrderCents,
		IsActive:      isActive,
		ExpiresAt:     r.ExpiresAt,
	}, nil
}

type updateCouponRequest struct {
	Description   *string    `json:"description,omitempty"`
	MinOrderCents *int       `json:"min_order_cents,omitempty" validate:"omitempty,min=0"`
	IsActive      *bool      `json:"is_active,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	ClearExpiry   bool       `json:"clear_expiry,omitempty"`
}

func (r updateCouponRequest) toInput() (couponsvc.UpdateCouponInput, error) {
	if r.ClearExpiry && r.ExpiresAt != nil {
		return couponsvc.UpdateCouponInput{}, pkgerrors.New(pkgerrors.CodeValidation, "expires_at and clear_expiry are mutually exclusive")
	}
	return couponsvc.UpdateCouponInput{
		Description:   r.Description,
		MinOrderCents: r.MinOrderCents,
		IsActive:      r.IsActive,
		ExpiresAt:     r.ExpiresAt,
		ClearExpiry:   r.ClearExpiry,
	}, nil
}
