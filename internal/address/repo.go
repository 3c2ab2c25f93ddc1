package address

import (
	"context"

	"github.com/craftkart/craftkart-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence for saved customer addresses.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, address *models.CustomerAddress) (*models.CustomerAddress, error)
	FindByIDForUser(ctx context.Context, addressID, userID uuid.UUID) (*models.CustomerAddress, error)
	FindDefaultForUser(ctx context.Context, userID uuid.UUID) (*models.CustomerAddress, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.CustomerAddress, error)
	Update(ctx context.Context, addressID uuid.UUID, updates map[string]any) error
	ClearDefault(ctx context.Context, userID uuid.UUID) error
	Delete(ctx context.Context, addressID uuid.UUID) error
	CountForUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an address repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, address *models.CustomerAddress) (*models.CustomerAddress, error) {
	if err := r.db.WithContext(ctx).Create(address).Error; err != nil {
		return nil, err
	}
	return address, nil
}

func (r *repository) FindByIDForUser(ctx context.Context, addressID, userID uuid.UUID) (*models.CustomerAddress, error) {
	var address models.CustomerAddress
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", addressID, userID).
		First(&address).Error
	if err != nil {
		return nil, err
	}
	return &address, nil
}

func (r *repository) FindDefaultForUser(ctx context.Context, userID uuid.UUID) (*models.CustomerAddress, error) {
	var address models.CustomerAddress
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_default", userID).
		First(&address).Error
	if err != nil {
		return nil, err
	}
	return &address, nil
}

func (r *repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.CustomerAddress, error) {
	var addresses []models.CustomerAddress
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC, created_at DESC").
		Find(&addresses).Error
	if err != nil {
		return nil, err
	}
	return addresses, nil
}

func (r *repository) Update(ctx context.Context, addressID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.CustomerAddress{}).
		Where("id = ?", addressID).
		Updates(updates).Error
}

// ClearDefault unsets the default flag across the user's addresses so a new
// default can be written without tripping the partial unique index.
func (r *repository) ClearDefault(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.CustomerAddress{}).
		Where("user_id = ? AND is_default", userID).
		Update("is_default", false).Error
}

func (r *repository) Delete(ctx context.Context, addressID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", addressID).
		Delete(&models.CustomerAddress{}).Error
}

func (r *repository) CountForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CustomerAddress{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}
