package coupons

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/craftkart/craftkart-backend/pkg/db"
	"github.com/craftkart/craftkart-backend/pkg/db/models"
	"github.com/craftkart/craftkart-backend/pkg/enums"
	pkgerrors "github.com/craftkart/craftkart-backend/pkg/errors"
	"github.com/craftkart/craftkart-backend/pkg/metrics"
	"github.com/craftkart/craftkart-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Validation outcome labels exported to metrics.
const (
	OutcomeApplied        = "applied"
	OutcomeNotFound       = "not_found"
	OutcomeInactive       = "inactive"
	OutcomeExpired        = "expired"
	OutcomeMinOrderNotMet = "min_order_not_met"
)

// Quote is the result of validating a coupon against a subtotal.
type Quote struct {
	Coupon        *models.Coupon
	DiscountCents int
}

// Service exposes coupon validation and administration.
type Service interface {
	Validate(ctx context.Context, code string, subtotalCents int, now time.Time) (*Quote, error)
	Create(ctx context.Context, input CreateCouponInput) (*models.Coupon, error)
	Update(ctx context.Context, input UpdateCouponInput) (*models.Coupon, error)
	Delete(ctx context.Context, couponID uuid.UUID) error
	List(ctx context.Context, params pagination.Params) (*CouponList, error)
}

// CreateCouponInput carries the admin payload for a new coupon.
type CreateCouponInput struct {
	Code          string
	Description   *string
	DiscountType  enums.DiscountType
	DiscountValue int
	MinOrderCents int
	IsActive      bool
	ExpiresAt     *time.Time
}

// UpdateCouponInput carries partial coupon updates.
type UpdateCouponInput struct {
	CouponID      uuid.UUID
	Description   *string
	MinOrderCents *int
	IsActive      *bool
	ExpiresAt     *time.Time
	ClearExpiry   bool
}

type service struct {
	repo    Repository
	metrics *metrics.CheckoutMetrics
}

// NewService builds the coupon service with the required dependencies.
func NewService(repo Repository, checkoutMetrics *metrics.CheckoutMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupons repository required")
	}
	return &service{repo: repo, metrics: checkoutMetrics}, nil
}

// Validate checks the coupon against the provided subtotal. Rule order is
// fixed: existence, active flag, expiry, minimum order value.
func (s *service) Validate(ctx context.Context, code string, subtotalCents int, now time.Time) (*Quote, error) {
	if strings.TrimSpace(code) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code required")
	}
	if subtotalCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subtotal cannot be negative")
	}

	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.IncCouponValidation(OutcomeNotFound)
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}

	if !coupon.IsActive {
		s.metrics.IncCouponValidation(OutcomeInactive)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon is not active")
	}
	if coupon.ExpiresAt != nil && !coupon.ExpiresAt.After(now) {
		s.metrics.IncCouponValidation(OutcomeExpired)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon has expired")
	}
	if subtotalCents < coupon.MinOrderCents {
		s.metrics.IncCouponValidation(OutcomeMinOrderNotMet)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order value below coupon minimum").
			WithDetails(map[string]any{"min_order_cents": coupon.MinOrderCents})
	}

	discount := computeDiscountCents(coupon, subtotalCents)
	s.metrics.IncCouponValidation(OutcomeApplied)
	return &Quote{Coupon: coupon, DiscountCents: discount}, nil
}

// computeDiscountCents applies the coupon and clamps the result to the subtotal.
func computeDiscountCents(coupon *models.Coupon, subtotalCents int) int {
	var discount int
	switch coupon.DiscountType {
	case enums.DiscountTypePercentage:
		pct := decimal.NewFromInt(int64(coupon.DiscountValue)).Div(decimal.NewFromInt(100))
		discount = int(decimal.NewFromInt(int64(subtotalCents)).Mul(pct).Round(0).IntPart())
	case enums.DiscountTypeFixed:
		discount = coupon.DiscountValue
	}
	if discount > subtotalCents {
		discount = subtotalCents
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}

func (s *service) Create(ctx context.Context, input CreateCouponInput) (*models.Coupon, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code required")
	}
	if !input.DiscountType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid discount type")
	}
	if input.DiscountValue <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount value must be positive")
	}
	if input.DiscountType == enums.DiscountTypePercentage && input.DiscountValue > 100 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "percentage discount cannot exceed 100")
	}
	if input.MinOrderCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "minimum order cannot be negative")
	}

	coupon := &models.Coupon{
		Code:          code,
		Description:   input.Description,
		DiscountType:  input.DiscountType,
		DiscountValue: input.DiscountValue,
		MinOrderCents: input.MinOrderCents,
		IsActive:      input.IsActive,
		ExpiresAt:     input.ExpiresAt,
	}
	created, err := s.repo.Create(ctx, coupon)
	if err != nil {
		if db.IsUniqueViolation(err, "idx_coupons_code") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "coupon code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create coupon")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, input UpdateCouponInput) (*models.Coupon, error) {
	if input.CouponID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon id required")
	}

	updates := map[string]any{}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.MinOrderCents != nil {
		if *input.MinOrderCents < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "minimum order cannot be negative")
		}
		updates["min_order_cents"] = *input.MinOrderCents
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if input.ClearExpiry {
		updates["expires_at"] = nil
	} else if input.ExpiresAt != nil {
		updates["expires_at"] = *input.ExpiresAt
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	if _, err := s.repo.FindByID(ctx, input.CouponID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}

	if err := s.repo.Update(ctx, input.CouponID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update coupon")
	}
	coupon, err := s.repo.FindByID(ctx, input.CouponID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload coupon")
	}
	return coupon, nil
}

// Delete removes a coupon. Placed orders carry their own coupon_code and
// discount snapshots, so nothing is recomputed.
func (s *service) Delete(ctx context.Context, couponID uuid.UUID) error {
	if couponID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "coupon id required")
	}

	if _, err := s.repo.FindByID(ctx, couponID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}

	if err := s.repo.Delete(ctx, couponID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete coupon")
	}
	return nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*CouponList, error) {
	list, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list coupons")
	}
	return list, nil
}
