package controllers

import (
	"net/http"
	"strings"

	"github.com/craftkart/craftkart-backend/api/responses"
	"github.com/craftkart/craftkart-backend/api/validators"
	productsvc "github.com/craftkart/craftkart-backend/internal/products"
	pkgerrors "github.com/craftkart/craftkart-backend/pkg/errors"
	"github.com/craftkart/craftkart-backend/pkg/logger"
	"github.com/craftkart/craftkart-backend/pkg/pagination"
)

// ListProducts serves the public catalog with cursor pagination and an
// optional category filter.
func ListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}
		category := r.URL.Query().Get("category")

		list, err := svc.List(r.Context(), params, category)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"products":    list.Products,
			"next_cursor": list.NextCursor,
		})
	}
}

// GetProduct serves one active product by id.
func GetProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		productID, err := pathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Get(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// AdminCreateProduct creates a catalog entry.
func AdminCreateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Create(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// AdminUpdateProduct applies a partial catalog update.
func AdminUpdateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		productID, err := pathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := payload.toInput()
		input.ProductID = productID

		product, err := svc.Update(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// AdminDeleteProduct soft-deletes a product so existing orders keep their
// line snapshots.
func AdminDeleteProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		productID, err := pathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

type createProductRequest struct {
	SKU         string  `json:"sku" validate:"required"`
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description,omitempty"`
	Category    string  `json:"category" validate:"required"`
	ImageURL    *string `json:"image_url,omitempty" validate:"omitempty,url"`
	PriceCents  int     `json:"price_cents" validate:"required,min=1"`
	Stock       int     `json:"stock" validate:"min=0"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

func (r createProductRequest) toInput() productsvc.CreateProductInput {
	isActive := true
	if r.IsActive != nil {
		isActive = *r.IsActive
	}
	return productsvc.CreateProductInput{
		SKU:         strings.TrimSpace(r.SKU),
		Title:       strings.TrimSpace(r.Title),
		Description: r.Description,
		Category:    strings.TrimSpace(r.Category),
		ImageURL:    r.ImageURL,
		PriceCents:  r.PriceCents,
		Stock:       r.Stock,
		IsActive:    isActive,
	}
}

type updateProductRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	ImageURL    *string `json:"image_url,omitempty" validate:"omitempty,url"`
	PriceCents  *int    `json:"price_cents,omitempty" validate:"omitempty,min=1"`
	Stock       *int    `json:"stock,omitempty" validate:"omitempty,min=0"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

func (r updateProductRequest) toInput() productsvc.UpdateProductInput {
	return productsvc.UpdateProductInput{
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		ImageURL:    r.ImageURL,
		PriceCents:  r.PriceCents,
		Stock:       r.Stock,
		IsActive:    r.IsActive,
	}
}
