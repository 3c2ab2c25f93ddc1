package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/craftkart/craftkart-backend/pkg/enums"
)

// Coupon holds a promotional code and its redemption rules.
type Coupon struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code          string             `gorm:"column:code;not null;uniqueIndex:idx_coupons_code"`
	Description   *string            `gorm:"column:description"`
	DiscountType  enums.DiscountType `gorm:"column:discount_type;type:discount_type;not null"`
	DiscountValue int                `gorm:"column:discount_value;not null"`
	MinOrderCents int                `gorm:"column:min_order_cents;not null;default:0"`
	IsActive      bool               `gorm:"column:is_active;not null;default:true"`
	ExpiresAt     *time.Time         `gorm:"column:expires_at"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
