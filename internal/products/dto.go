package products

import (
	"github.com/google/uuid"
)

// CreateProductInput carries the admin payload for a new listing.
type CreateProductInput struct {
	SKU         string
	Title       string
	Description *string
	Category    string
	ImageURL    *string
	PriceCents  int
	Stock       int
	IsActive    bool
}

// UpdateProductInput carries partial updates; nil fields are left untouched.
type UpdateProductInput struct {
	ProductID   uuid.UUID
	Title       *string
	Description *string
	Category    *string
	ImageURL    *string
	PriceCents  *int
	Stock       *int
	IsActive    *bool
}
