package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/craftkart/craftkart-backend/pkg/types"
)

// CustomerAddress is a saved shipping address on a customer profile.
type CustomerAddress struct {
	ID        uuid.UUID     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID     `gorm:"column:user_id;type:uuid;not null;index:idx_addresses_user"`
	Address   types.Address `gorm:"column:address;type:jsonb;serializer:json"`
	IsDefault bool          `gorm:"column:is_default;not null;default:false"`
	CreatedAt time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName keeps the table plural without gorm guessing.
func (CustomerAddress) TableName() string {
	return "customer_addresses"
}
