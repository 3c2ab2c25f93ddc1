package cart

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/craftkart/craftkart-backend/internal/coupons"
	"github.com/craftkart/craftkart-backend/internal/products"
	"github.com/craftkart/craftkart-backend/pkg/db/models"
	pkgerrors "github.com/craftkart/craftkart-backend/pkg/errors"
	"github.com/google/uuid"
)

// maxCustomizationLen bounds the free-text engraving per line.
const maxCustomizationLen = 240

// QuoteItem is one requested cart line.
type QuoteItem struct {
	ProductID         uuid.UUID
	Qty               int
	CustomizationText *string
	SelectedColor     *string
}

// QuotedLine is the server-side snapshot of one cart line.
type QuotedLine struct {
	ProductID         uuid.UUID
	Title             string
	SKU               string
	ImageURL          *string
	UnitPriceCents    int
	Qty               int
	TotalCents        int
	CustomizationText *string
	SelectedColor     *string
}

// Quote is the fully recomputed cart total. Client-submitted prices are
// never trusted; everything here comes from the catalog.
type Quote struct {
	Lines         []QuotedLine
	SubtotalCents int
	DiscountCents int
	TotalCents    int
	CouponCode    *string
}

// Service recomputes cart pricing from the catalog.
type Service interface {
	BuildQuote(ctx context.Context, items []QuoteItem, couponCode string, now time.Time) (*Quote, error)
}

type couponValidator interface {
	Validate(ctx context.Context, code string, subtotalCents int, now time.Time) (*coupons.Quote, error)
}

type productFinder interface {
	FindActiveByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

type service struct {
	products productFinder
	coupons  couponValidator
}

// NewService builds the cart quoting service.
func NewService(productRepo products.Repository, couponSvc coupons.Service) (Service, error) {
	if productRepo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if couponSvc == nil {
		return nil, fmt.Errorf("coupons service required")
	}
	return &service{products: productRepo, coupons: couponSvc}, nil
}

func (s *service) BuildQuote(ctx context.Context, items []QuoteItem, couponCode string, now time.Time) (*Quote, error) {
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	// Lines merge only when the product and its customization match; the
	// same mug engraved two different ways stays two lines.
	type lineKey struct {
		productID uuid.UUID
		custom    string
		color     string
	}
	qtyByLine := map[lineKey]int{}
	lineOrder := make([]lineKey, 0, len(items))
	qtyByProduct := map[uuid.UUID]int{}
	productOrder := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if item.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
		}
		if item.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
		custom := trimmedOption(item.CustomizationText)
		if len(custom) > maxCustomizationLen {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "customization text too long").
				WithDetails(map[string]any{"max": maxCustomizationLen})
		}
		key := lineKey{productID: item.ProductID, custom: custom, color: trimmedOption(item.SelectedColor)}
		if _, seen := qtyByLine[key]; !seen {
			lineOrder = append(lineOrder, key)
		}
		qtyByLine[key] += item.Qty
		if _, seen := qtyByProduct[item.ProductID]; !seen {
			productOrder = append(productOrder, item.ProductID)
		}
		qtyByProduct[item.ProductID] += item.Qty
	}

	found, err := s.products.FindActiveByIDs(ctx, productOrder)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart products")
	}
	byID := make(map[uuid.UUID]models.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}

	for _, productID := range productOrder {
		product, ok := byID[productID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product unavailable").
				WithDetails(map[string]any{"product_id": productID})
		}
		if product.Stock < qtyByProduct[productID] {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "insufficient stock").
				WithDetails(map[string]any{"product_id": productID, "available": product.Stock})
		}
	}

	lines := make([]QuotedLine, 0, len(lineOrder))
	subtotal := 0
	for _, key := range lineOrder {
		product := byID[key.productID]
		qty := qtyByLine[key]
		lineTotal := product.PriceCents * qty
		lines = append(lines, QuotedLine{
			ProductID:         product.ID,
			Title:             product.Title,
			SKU:               product.SKU,
			ImageURL:          product.ImageURL,
			UnitPriceCents:    product.PriceCents,
			Qty:               qty,
			TotalCents:        lineTotal,
			CustomizationText: optionValue(key.custom),
			SelectedColor:     optionValue(key.color),
		})
		subtotal += lineTotal
	}

	quote := &Quote{
		Lines:         lines,
		SubtotalCents: subtotal,
		TotalCents:    subtotal,
	}

	code := strings.TrimSpace(couponCode)
	if code != "" {
		couponQuote, err := s.coupons.Validate(ctx, code, subtotal, now)
		if err != nil {
			return nil, err
		}
		quote.DiscountCents = couponQuote.DiscountCents
		quote.TotalCents = subtotal - couponQuote.DiscountCents
		quote.CouponCode = &couponQuote.Coupon.Code
	}

	return quote, nil
}

func trimmedOption(v *string) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(*v)
}

func optionValue(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
