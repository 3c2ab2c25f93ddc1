package coupons

import (
	"context"
	"strings"

	"github.com/craftkart/craftkart-backend/pkg/db/models"
	"github.com/craftkart/craftkart-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for coupons.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, coupon *models.Coupon) (*models.Coupon, error)
	Update(ctx context.Context, couponID uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, couponID uuid.UUID) error
	FindByID(ctx context.Context, couponID uuid.UUID) (*models.Coupon, error)
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	List(ctx context.Context, params pagination.Params) (*CouponList, error)
}

// CouponList is one page of coupons plus the next cursor.
type CouponList struct {
	Coupons    []models.Coupon
	NextCursor string
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a coupons repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, coupon *models.Coupon) (*models.Coupon, error) {
	if err := r.db.WithContext(ctx).Create(coupon).Error; err != nil {
		return nil, err
	}
	return coupon, nil
}

func (r *repository) Update(ctx context.Context, couponID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("id = ?", couponID).
		Updates(updates).Error
}

// Delete removes the coupon row. Orders keep their coupon_code snapshot, so
// already-placed orders are unaffected.
func (r *repository) Delete(ctx context.Context, couponID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", couponID).
		Delete(&models.Coupon{}).Error
}

func (r *repository) FindByID(ctx context.Context, couponID uuid.UUID) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.WithContext(ctx).
		Where("id = ?", couponID).
		First(&coupon).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.WithContext(ctx).
		Where("UPPER(code) = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&coupon).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params) (*CouponList, error) {
	limit := pagination.LimitWithBuffer(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Coupon{})

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var coupons []models.Coupon
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&coupons).Error; err != nil {
		return nil, err
	}

	list := &CouponList{}
	pageSize := pagination.NormalizeLimit(params.Limit)
	if len(coupons) > pageSize {
		coupons = coupons[:pageSize]
		last := coupons[len(coupons)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	list.Coupons = coupons
	return list, nil
}
