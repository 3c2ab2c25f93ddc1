package address

import (
	"context"
	"testing"

	"github.com/craftkart/craftkart-backend/pkg/db/models"
	pkgerrors "github.com/craftkart/craftkart-backend/pkg/errors"
	"github.com/craftkart/craftkart-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type stubRepo struct {
	Repository

	createFn       func(ctx context.Context, address *models.CustomerAddress) (*models.CustomerAddress, error)
	findFn         func(ctx context.Context, addressID, userID uuid.UUID) (*models.CustomerAddress, error)
	findDefaultFn  func(ctx context.Context, userID uuid.UUID) (*models.CustomerAddress, error)
	listFn         func(ctx context.Context, userID uuid.UUID) ([]models.CustomerAddress, error)
	updateFn       func(ctx context.Context, addressID uuid.UUID, updates map[string]any) error
	clearDefaultFn func(ctx context.Context, userID uuid.UUID) error
	deleteFn       func(ctx context.Context, addressID uuid.UUID) error
	countFn        func(ctx context.Context, userID uuid.UUID) (int64, error)
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Create(ctx context.Context, address *models.CustomerAddress) (*models.CustomerAddress, error) {
	if s.createFn == nil {
		address.ID = uuid.New()
		return address, nil
	}
	return s.createFn(ctx, address)
}

func (s *stubRepo) FindByIDForUser(ctx context.Context, addressID, userID uuid.UUID) (*models.CustomerAddress, error) {
	return s.findFn(ctx, addressID, userID)
}

func (s *stubRepo) FindDefaultForUser(ctx context.Context, userID uuid.UUID) (*models.CustomerAddress, error) {
	if s.findDefaultFn == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.findDefaultFn(ctx, userID)
}

func (s *stubRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.CustomerAddress, error) {
	return s.listFn(ctx, userID)
}

func (s *stubRepo) Update(ctx context.Context, addressID uuid.UUID, updates map[string]any) error {
	if s.updateFn == nil {
		return nil
	}
	return s.updateFn(ctx, addressID, updates)
}

func (s *stubRepo) ClearDefault(ctx context.Context, userID uuid.UUID) error {
	if s.clearDefaultFn == nil {
		return nil
	}
	return s.clearDefaultFn(ctx, userID)
}

func (s *stubRepo) Delete(ctx context.Context, addressID uuid.UUID) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, addressID)
}

func (s *stubRepo) CountForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	if s.countFn == nil {
		return 0, nil
	}
	return s.countFn(ctx, userID)
}

type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

func validAddress() types.Address {
	return types.Address{
		FullName:   "Asha Rao",
		Phone:      "+91 98450 00000",
		Line1:      "12 MG Road",
		City:       "Bengaluru",
		State:      "Karnataka",
		PostalCode: "560001",
	}
}

func TestCreateFirstAddressBecomesDefault(t *testing.T) {
	t.Parallel()

	var cleared int
	repo := &stubRepo{
		countFn: func(ctx context.Context, userID uuid.UUID) (int64, error) { return 0, nil },
		clearDefaultFn: func(ctx context.Context, userID uuid.UUID) error {
			cleared++
			return nil
		},
	}
	svc := &service{tx: fakeTx{}, repo: repo}

	created, err := svc.Create(context.Background(), CreateAddressInput{
		UserID:  uuid.New(),
		Address: validAddress(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !created.IsDefault {
		t.Fatal("first address should become the default")
	}
	if cleared != 1 {
		t.Fatalf("expected default clear before insert, got %d", cleared)
	}
	if created.Address.Country != "IN" {
		t.Fatalf("expected country default, got %q", created.Address.Country)
	}
}

func TestCreateSecondAddressKeepsExistingDefault(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{
		countFn: func(ctx context.Context, userID uuid.UUID) (int64, error) { return 1, nil },
	}
	svc := &service{tx: fakeTx{}, repo: repo}

	created, err := svc.Create(context.Background(), CreateAddressInput{
		UserID:  uuid.New(),
		Address: validAddress(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.IsDefault {
		t.Fatal("second address should not steal the default")
	}
}

func TestCreateRejectsInvalidAddress(t *testing.T) {
	t.Parallel()

	svc := &service{tx: fakeTx{}, repo: &stubRepo{}}

	input := CreateAddressInput{UserID: uuid.New(), Address: validAddress()}
	input.Address.Line1 = ""

	_, err := svc.Create(context.Background(), input)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateEnforcesAddressLimit(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{
		countFn: func(ctx context.Context, userID uuid.UUID) (int64, error) { return maxSavedAddresses, nil },
	}
	svc := &service{tx: fakeTx{}, repo: repo}

	_, err := svc.Create(context.Background(), CreateAddressInput{UserID: uuid.New(), Address: validAddress()})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSetDefaultMovesMarker(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	addressID := uuid.New()
	isDefault := false

	var cleared int
	var capturedUpdates map[string]any
	repo := &stubRepo{
		findFn: func(ctx context.Context, id, uid uuid.UUID) (*models.CustomerAddress, error) {
			return &models.CustomerAddress{ID: addressID, UserID: userID, IsDefault: isDefault}, nil
		},
		clearDefaultFn: func(ctx context.Context, uid uuid.UUID) error {
			cleared++
			isDefault = true
			return nil
		},
		updateFn: func(ctx context.Context, id uuid.UUID, updates map[string]any) error {
			capturedUpdates = updates
			return nil
		},
	}
	svc := &service{tx: fakeTx{}, repo: repo}

	_, err := svc.SetDefault(context.Background(), userID, addressID)
	if err != nil {
		t.Fatalf("set default: %v", err)
	}
	if cleared != 1 {
		t.Fatalf("expected one default clear, got %d", cleared)
	}
	if capturedUpdates["is_default"] != true {
		t.Fatalf("expected is_default update, got %+v", capturedUpdates)
	}
}

func TestSetDefaultIsIdempotent(t *testing.T) {
	t.Parallel()

	var cleared int
	repo := &stubRepo{
		findFn: func(ctx context.Context, id, uid uuid.UUID) (*models.CustomerAddress, error) {
			return &models.CustomerAddress{ID: id, UserID: uid, IsDefault: true}, nil
		},
		clearDefaultFn: func(ctx context.Context, uid uuid.UUID) error {
			cleared++
			return nil
		},
	}
	svc := &service{tx: fakeTx{}, repo: repo}

	address, err := svc.SetDefault(context.Background(), uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("set default: %v", err)
	}
	if !address.IsDefault {
		t.Fatal("expected address to stay default")
	}
	if cleared != 0 {
		t.Fatal("already-default address should not touch the flag")
	}
}

func TestSaveDefaultRewritesExistingDefault(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	defaultID := uuid.New()

	var created int
	var capturedUpdates map[string]any
	repo := &stubRepo{
		findDefaultFn: func(ctx context.Context, uid uuid.UUID) (*models.CustomerAddress, error) {
			return &models.CustomerAddress{ID: defaultID, UserID: uid, IsDefault: true}, nil
		},
		createFn: func(ctx context.Context, address *models.CustomerAddress) (*models.CustomerAddress, error) {
			created++
			return address, nil
		},
		updateFn: func(ctx context.Context, id uuid.UUID, updates map[string]any) error {
			if id != defaultID {
				t.Fatalf("expected update on default %s, got %s", defaultID, id)
			}
			capturedUpdates = updates
			return nil
		},
	}
	svc := &service{tx: fakeTx{}, repo: repo}

	if err := svc.SaveDefault(context.Background(), userID, validAddress()); err != nil {
		t.Fatalf("save default: %v", err)
	}
	if created != 0 {
		t.Fatal("existing default should be rewritten, not duplicated")
	}
	if _, ok := capturedUpdates["address"]; !ok {
		t.Fatalf("expected address update, got %+v", capturedUpdates)
	}
}

func TestSaveDefaultCreatesWhenMissing(t *testing.T) {
	t.Parallel()

	var created *models.CustomerAddress
	repo := &stubRepo{
		createFn: func(ctx context.Context, address *models.CustomerAddress) (*models.CustomerAddress, error) {
			address.ID = uuid.New()
			created = address
			return address, nil
		},
	}
	svc := &service{tx: fakeTx{}, repo: repo}

	if err := svc.SaveDefault(context.Background(), uuid.New(), validAddress()); err != nil {
		t.Fatalf("save default: %v", err)
	}
	if created == nil || !created.IsDefault {
		t.Fatalf("expected a new default address, got %+v", created)
	}
}

func TestUpdateHidesOtherUsersAddresses(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{
		findFn: func(ctx context.Context, id, uid uuid.UUID) (*models.CustomerAddress, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	svc := &service{tx: fakeTx{}, repo: repo}

	addr := validAddress()
	_, err := svc.Update(context.Background(), UpdateAddressInput{
		UserID:    uuid.New(),
		AddressID: uuid.New(),
		Address:   &addr,
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteChecksOwnership(t *testing.T) {
	t.Parallel()

	var deleted int
	repo := &stubRepo{
		findFn: func(ctx context.Context, id, uid uuid.UUID) (*models.CustomerAddress, error) {
			return nil, gorm.ErrRecordNotFound
		},
		deleteFn: func(ctx context.Context, id uuid.UUID) error {
			deleted++
			return nil
		},
	}
	svc := &service{tx: fakeTx{}, repo: repo}

	err := svc.Delete(context.Background(), uuid.New(), uuid.New())
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if deleted != 0 {
		t.Fatal("missing address must not be deleted")
	}
}
