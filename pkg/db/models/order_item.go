package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem captures the snapshot of each line within an order.
type OrderItem struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index:idx_order_items_order"`
	ProductID      *uuid.UUID `gorm:"column:product_id;type:uuid"`
	Title          string     `gorm:"column:title;not null"`
	SKU            string     `gorm:"column:sku;not null"`
	ImageURL       *string    `gorm:"column:image_url"`
	UnitPriceCents int        `gorm:"column:unit_price_cents;not null"`
	Qty            int        `gorm:"column:qty;not null"`
	TotalCents     int        `gorm:"column:total_cents;not null"`

	// Per-line personalization captured at checkout.
	CustomizationText *string `gorm:"column:customization_text"`
	SelectedColor     *string `gorm:"column:selected_color"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
