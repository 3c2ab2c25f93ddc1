package products

import (
	"context"
	"time"

	"github.com/craftkart/craftkart-backend/pkg/db/models"
	"github.com/craftkart/craftkart-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for product listings.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	Update(ctx context.Context, productID uuid.UUID, updates map[string]any) error
	SoftDelete(ctx context.Context, productID uuid.UUID) error
	FindByID(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	FindActiveByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*ProductList, error)
}

// ListFilters narrows the public product listing.
type ListFilters struct {
	Category    string
	ActiveOnly  bool
	IncludeSoft bool
}

// ProductList is one page of products plus the next cursor.
type ProductList struct {
	Products   []models.Product
	NextCursor string
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a products repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func (r *repository) Update(ctx context.Context, productID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND deleted_at IS NULL", productID).
		Updates(updates).Error
}

func (r *repository) SoftDelete(ctx context.Context, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND deleted_at IS NULL", productID).
		Updates(map[string]any{"deleted_at": time.Now().UTC(), "is_active": false}).Error
}

func (r *repository) FindByID(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", productID).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) FindActiveByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("id IN ? AND is_active AND deleted_at IS NULL", ids).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params, filters ListFilters) (*ProductList, error) {
	limit := pagination.LimitWithBuffer(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Product{})
	if !filters.IncludeSoft {
		query = query.Where("deleted_at IS NULL")
	}
	if filters.ActiveOnly {
		query = query.Where("is_active")
	}
	if filters.Category != "" {
		query = query.Where("category = ?", filters.Category)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at, id) < (?, ?)",
			cursor.CreatedAt, cursor.ID,
		)
	}

	var products []models.Product
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&products).Error; err != nil {
		return nil, err
	}

	list := &ProductList{}
	pageSize := pagination.NormalizeLimit(params.Limit)
	if len(products) > pageSize {
		products = products[:pageSize]
		last := products[len(products)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	list.Products = products
	return list, nil
}
