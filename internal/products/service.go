package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/craftkart/craftkart-backend/pkg/db"
	"github.com/craftkart/craftkart-backend/pkg/db/models"
	pkgerrors "github.com/craftkart/craftkart-backend/pkg/errors"
	"github.com/craftkart/craftkart-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service exposes product catalog operations.
type Service interface {
	List(ctx context.Context, params pagination.Params, category string) (*ProductList, error)
	Get(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	Create(ctx context.Context, input CreateProductInput) (*models.Product, error)
	Update(ctx context.Context, input UpdateProductInput) (*models.Product, error)
	Delete(ctx context.Context, productID uuid.UUID) error
}

type service struct {
	repo Repository
}

// NewService builds the product service with the required dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, category string) (*ProductList, error) {
	filters := ListFilters{
		Category:   strings.TrimSpace(category),
		ActiveOnly: true,
	}
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return list, nil
}

func (s *service) Get(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	if strings.TrimSpace(input.SKU) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku required")
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title required")
	}
	if input.PriceCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}

	product := &models.Product{
		SKU:         strings.TrimSpace(input.SKU),
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Category:    strings.TrimSpace(input.Category),
		ImageURL:    input.ImageURL,
		PriceCents:  input.PriceCents,
		Stock:       input.Stock,
		IsActive:    input.IsActive,
	}
	created, err := s.repo.Create(ctx, product)
	if err != nil {
		if db.IsUniqueViolation(err, "idx_products_sku") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "sku already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, input UpdateProductInput) (*models.Product, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	updates := map[string]any{}
	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title cannot be empty")
		}
		updates["title"] = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Category != nil {
		updates["category"] = strings.TrimSpace(*input.Category)
	}
	if input.ImageURL != nil {
		updates["image_url"] = *input.ImageURL
	}
	if input.PriceCents != nil {
		if *input.PriceCents <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		updates["price_cents"] = *input.PriceCents
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		updates["stock"] = *input.Stock
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	if _, err := s.repo.FindByID(ctx, input.ProductID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	if err := s.repo.Update(ctx, input.ProductID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	product, err := s.repo.FindByID(ctx, input.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload product")
	}
	return product, nil
}

func (s *service) Delete(ctx context.Context, productID uuid.UUID) error {
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if _, err := s.repo.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if err := s.repo.SoftDelete(ctx, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}
