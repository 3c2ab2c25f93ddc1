package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/craftkart/craftkart-backend/pkg/enums"
	"github.com/craftkart/craftkart-backend/pkg/types"
)

// Order is the customer order aggregate. Shipping address and pricing are
// snapshotted at placement so later product or address edits never leak in.
type Order struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID            uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index:idx_orders_user"`
	Status            enums.OrderStatus   `gorm:"column:status;type:order_status;not null;default:'pending'"`
	PaymentMethod     enums.PaymentMethod `gorm:"column:payment_method;type:payment_method;not null"`
	PaymentStatus     enums.PaymentStatus `gorm:"column:payment_status;type:payment_status;not null;default:'pending'"`
	ProviderOrderID   *string             `gorm:"column:provider_order_id"`
	ProviderPaymentID *string             `gorm:"column:provider_payment_id;uniqueIndex:idx_orders_provider_payment"`
	CouponCode        *string             `gorm:"column:coupon_code"`
	SubtotalCents     int                 `gorm:"column:subtotal_cents;not null"`
	DiscountCents     int                 `gorm:"column:discount_cents;not null;default:0"`
	TotalCents        int                 `gorm:"column:total_cents;not null"`
	ShippingAddress   types.Address       `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	CancelReason      *string             `gorm:"column:cancel_reason"`
	CanceledAt        *time.Time          `gorm:"column:canceled_at"`
	DeliveredAt       *time.Time          `gorm:"column:delivered_at"`
	Items             []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
