package address

import (
	"context"
	"errors"
	"fmt"

	"github.com/craftkart/craftkart-backend/pkg/db/models"
	pkgerrors "github.com/craftkart/craftkart-backend/pkg/errors"
	"github.com/craftkart/craftkart-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// maxSavedAddresses caps the address book per customer.
const maxSavedAddresses = 10

// Service manages the customer address book.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.CustomerAddress, error)
	Create(ctx context.Context, input CreateAddressInput) (*models.CustomerAddress, error)
	Update(ctx context.Context, input UpdateAddressInput) (*models.CustomerAddress, error)
	SetDefault(ctx context.Context, userID, addressID uuid.UUID) (*models.CustomerAddress, error)
	SaveDefault(ctx context.Context, userID uuid.UUID, addr types.Address) error
	Delete(ctx context.Context, userID, addressID uuid.UUID) error
}

// CreateAddressInput carries a new saved address.
type CreateAddressInput struct {
	UserID     uuid.UUID
	Address    types.Address
	SetDefault bool
}

// UpdateAddressInput carries changes to a saved address.
type UpdateAddressInput struct {
	UserID     uuid.UUID
	AddressID  uuid.UUID
	Address    *types.Address
	SetDefault bool
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	tx   txRunner
	repo Repository
}

// NewService builds the address book service.
func NewService(tx txRunner, repo Repository) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	return &service{tx: tx, repo: repo}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.CustomerAddress, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	addresses, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addresses")
	}
	return addresses, nil
}

// Create saves a new address. The first saved address always becomes the
// default; otherwise the default moves only when requested.
func (s *service) Create(ctx context.Context, input CreateAddressInput) (*models.CustomerAddress, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	normalized := input.Address.Normalized()
	if err := normalized.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid address")
	}

	count, err := s.repo.CountForUser(ctx, input.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count addresses")
	}
	if count >= maxSavedAddresses {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address limit reached").
			WithDetails(map[string]any{"max": maxSavedAddresses})
	}

	address := &models.CustomerAddress{
		UserID:    input.UserID,
		Address:   normalized,
		IsDefault: input.SetDefault || count == 0,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if address.IsDefault {
			if err := txRepo.ClearDefault(ctx, input.UserID); err != nil {
				return err
			}
		}
		_, err := txRepo.Create(ctx, address)
		return err
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save address")
	}
	return address, nil
}

func (s *service) Update(ctx context.Context, input UpdateAddressInput) (*models.CustomerAddress, error) {
	if input.UserID == uuid.Nil || input.AddressID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and address id required")
	}

	existing, err := s.findOwned(ctx, input.AddressID, input.UserID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Address != nil {
		normalized := input.Address.Normalized()
		if err := normalized.Validate(); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid address")
		}
		updates["address"] = normalized
	}
	if input.SetDefault && !existing.IsDefault {
		updates["is_default"] = true
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, ok := updates["is_default"]; ok {
			if err := txRepo.ClearDefault(ctx, input.UserID); err != nil {
				return err
			}
		}
		return txRepo.Update(ctx, input.AddressID, updates)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update address")
	}

	return s.findOwned(ctx, input.AddressID, input.UserID)
}

// SetDefault moves the default marker to the given address.
func (s *service) SetDefault(ctx context.Context, userID, addressID uuid.UUID) (*models.CustomerAddress, error) {
	existing, err := s.findOwned(ctx, addressID, userID)
	if err != nil {
		return nil, err
	}
	if existing.IsDefault {
		return existing, nil
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.ClearDefault(ctx, userID); err != nil {
			return err
		}
		return txRepo.Update(ctx, addressID, map[string]any{"is_default": true})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set default address")
	}

	return s.findOwned(ctx, addressID, userID)
}

// SaveDefault upserts the customer's default address from a checkout. An
// existing default is rewritten in place; otherwise a new default is created.
func (s *service) SaveDefault(ctx context.Context, userID uuid.UUID, addr types.Address) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	normalized := addr.Normalized()
	if err := normalized.Validate(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid address")
	}

	existing, err := s.repo.FindDefaultForUser(ctx, userID)
	switch {
	case err == nil:
		if err := s.repo.Update(ctx, existing.ID, map[string]any{"address": normalized}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save default address")
		}
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		_, err := s.Create(ctx, CreateAddressInput{UserID: userID, Address: normalized, SetDefault: true})
		return err
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load default address")
	}
}

func (s *service) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	if _, err := s.findOwned(ctx, addressID, userID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, addressID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete address")
	}
	return nil
}

func (s *service) findOwned(ctx context.Context, addressID, userID uuid.UUID) (*models.CustomerAddress, error) {
	address, err := s.repo.FindByIDForUser(ctx, addressID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}
	return address, nil
}
