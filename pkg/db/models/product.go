package models

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a storefront listing.
type Product struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SKU         string     `gorm:"column:sku;not null"`
	Title       string     `gorm:"column:title;not null"`
	Description *string    `gorm:"column:description"`
	Category    string     `gorm:"column:category;not null"`
	ImageURL    *string    `gorm:"column:image_url"`
	PriceCents  int        `gorm:"column:price_cents;not null"`
	Stock       int        `gorm:"column:stock;not null;default:0"`
	IsActive    bool       `gorm:"column:is_active;not null;default:true"`
	DeletedAt   *time.Time `gorm:"column:deleted_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
