package orders

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/craftkart/craftkart-backend/internal/cart"
	"github.com/craftkart/craftkart-backend/internal/payments"
	"github.com/craftkart/craftkart-backend/pkg/db/models"
	"github.com/craftkart/craftkart-backend/pkg/enums"
	pkgerrors "github.com/craftkart/craftkart-backend/pkg/errors"
	"github.com/craftkart/craftkart-backend/pkg/logger"
	"github.com/craftkart/craftkart-backend/pkg/pagination"
	"github.com/craftkart/craftkart-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type stubRepo struct {
	Repository

	createFn        func(ctx context.Context, order *models.Order) (*models.Order, error)
	createItemsFn   func(ctx context.Context, items []models.OrderItem) error
	findByIDFn      func(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	findForUserFn   func(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	findByPaymentFn func(ctx context.Context, paymentID string) (*models.Order, error)
	updateFn        func(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	decrementFn     func(ctx context.Context, productID uuid.UUID, qty int) error
	restoreFn       func(ctx context.Context, productID uuid.UUID, qty int) error
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if s.createFn == nil {
		order.ID = uuid.New()
		return order, nil
	}
	return s.createFn(ctx, order)
}

func (s *stubRepo) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if s.createItemsFn == nil {
		return nil
	}
	return s.createItemsFn(ctx, items)
}

func (s *stubRepo) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.findByIDFn(ctx, orderID)
}

func (s *stubRepo) FindByIDForUser(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	return s.findForUserFn(ctx, orderID, userID)
}

func (s *stubRepo) FindByProviderPaymentID(ctx context.Context, paymentID string) (*models.Order, error) {
	if s.findByPaymentFn == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.findByPaymentFn(ctx, paymentID)
}

func (s *stubRepo) Update(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	if s.updateFn == nil {
		return nil
	}
	return s.updateFn(ctx, orderID, updates)
}

func (s *stubRepo) DecrementStock(ctx context.Context, productID uuid.UUID, qty int) error {
	if s.decrementFn == nil {
		return nil
	}
	return s.decrementFn(ctx, productID, qty)
}

func (s *stubRepo) RestoreStock(ctx context.Context, productID uuid.UUID, qty int) error {
	if s.restoreFn == nil {
		return nil
	}
	return s.restoreFn(ctx, productID, qty)
}

type stubCart struct {
	quote *cart.Quote
	err   error
	calls int
}

func (s *stubCart) BuildQuote(ctx context.Context, items []cart.QuoteItem, couponCode string, now time.Time) (*cart.Quote, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.quote, nil
}

type stubGate struct {
	err   error
	calls int
}

func (s *stubGate) Confirm(ctx context.Context, confirmation payments.Confirmation) error {
	s.calls++
	return s.err
}

type stubNotifier struct {
	placed   int
	updated  int
	canceled int
}

func (s *stubNotifier) OrderPlaced(ctx context.Context, order *models.Order) { s.placed++ }

func (s *stubNotifier) OrderStatusUpdated(ctx context.Context, order *models.Order, previous enums.OrderStatus) {
	s.updated++
}

func (s *stubNotifier) OrderCanceled(ctx context.Context, order *models.Order) { s.canceled++ }

type stubAddressBook struct {
	err   error
	calls int
	saved types.Address
}

func (s *stubAddressBook) SaveDefault(ctx context.Context, userID uuid.UUID, addr types.Address) error {
	s.calls++
	s.saved = addr
	return s.err
}

type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

func newTestService(t *testing.T, repo Repository, cartSvc *stubCart, gate *stubGate, notifier Notifier) *service {
	t.Helper()
	svc := &service{
		tx:       fakeTx{},
		repo:     repo,
		cart:     cartSvc,
		gate:     gate,
		notifier: notifier,
		logg:     logger.New(logger.Options{ServiceName: "orders-test", Output: io.Discard}),
	}
	return svc
}

func sampleQuote(productID uuid.UUID) *cart.Quote {
	return &cart.Quote{
		Lines: []cart.QuotedLine{{
			ProductID:      productID,
			Title:          "Engraved Mug",
			SKU:            "MUG-01",
			UnitPriceCents: 50000,
			Qty:            3,
			TotalCents:     150000,
		}},
		SubtotalCents: 150000,
		TotalCents:    150000,
	}
}

func sampleCheckoutInput(userID uuid.UUID) CheckoutInput {
	return CheckoutInput{
		UserID:        userID,
		Items:         []cart.QuoteItem{{ProductID: uuid.New(), Qty: 3}},
		PaymentMethod: enums.PaymentMethodCOD,
		ShippingAddress: types.Address{
			FullName:   "Asha Rao",
			Phone:      "+91 98450 00000",
			Line1:      "12 MG Road",
			City:       "Bengaluru",
			State:      "Karnataka",
			PostalCode: "560001",
		},
	}
}

func TestCheckoutCODCreatesOrder(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	productID := uuid.New()

	var decremented int
	var createdItems []models.OrderItem
	repo := &stubRepo{
		decrementFn: func(ctx context.Context, id uuid.UUID, qty int) error {
			if id != productID || qty != 3 {
				t.Fatalf("unexpected stock decrement %s x%d", id, qty)
			}
			decremented++
			return nil
		},
		createItemsFn: func(ctx context.Context, items []models.OrderItem) error {
			createdItems = items
			return nil
		},
	}
	notifier := &stubNotifier{}
	svc := newTestService(t, repo, &stubCart{quote: sampleQuote(productID)}, &stubGate{}, notifier)

	order, err := svc.Checkout(context.Background(), sampleCheckoutInput(userID))
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if order.PaymentMethod != enums.PaymentMethodCOD {
		t.Fatalf("unexpected payment method %s", order.PaymentMethod)
	}
	if order.PaymentStatus != enums.PaymentStatusCODPending {
		t.Fatalf("expected cod_pending payment status, got %s", order.PaymentStatus)
	}
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending status, got %s", order.Status)
	}
	if order.TotalCents != 150000 {
		t.Fatalf("unexpected total %d", order.TotalCents)
	}
	if decremented != 1 {
		t.Fatalf("expected one stock decrement, got %d", decremented)
	}
	if len(createdItems) != 1 || createdItems[0].SKU != "MUG-01" {
		t.Fatalf("unexpected order items %+v", createdItems)
	}
	if notifier.placed != 1 {
		t.Fatalf("expected one placed notification, got %d", notifier.placed)
	}
}

func TestCheckoutSaveAddressIsBestEffort(t *testing.T) {
	t.Parallel()

	book := &stubAddressBook{err: pkgerrors.New(pkgerrors.CodeDependency, "address store down")}
	svc := newTestService(t, &stubRepo{}, &stubCart{quote: sampleQuote(uuid.New())}, &stubGate{}, nil)
	svc.addresses = book

	input := sampleCheckoutInput(uuid.New())
	input.SaveAddress = true

	order, err := svc.Checkout(context.Background(), input)
	if err != nil {
		t.Fatalf("checkout must not fail on address save: %v", err)
	}
	if order == nil {
		t.Fatal("expected order despite address save failure")
	}
	if book.calls != 1 {
		t.Fatalf("expected one save attempt, got %d", book.calls)
	}
	if book.saved.PostalCode != "560001" {
		t.Fatalf("expected normalized shipping address, got %+v", book.saved)
	}
}

func TestCheckoutSkipsAddressSaveUnlessRequested(t *testing.T) {
	t.Parallel()

	book := &stubAddressBook{}
	svc := newTestService(t, &stubRepo{}, &stubCart{quote: sampleQuote(uuid.New())}, &stubGate{}, nil)
	svc.addresses = book

	if _, err := svc.Checkout(context.Background(), sampleCheckoutInput(uuid.New())); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if book.calls != 0 {
		t.Fatalf("address book should not be touched, got %d calls", book.calls)
	}
}

func TestCheckoutOnlineRejectedBeforePersist(t *testing.T) {
	t.Parallel()

	var created int
	repo := &stubRepo{
		createFn: func(ctx context.Context, order *models.Order) (*models.Order, error) {
			created++
			order.ID = uuid.New()
			return order, nil
		},
	}
	gate := &stubGate{err: pkgerrors.New(pkgerrors.CodePaymentVerification, "payment could not be verified")}
	cartSvc := &stubCart{quote: sampleQuote(uuid.New())}
	svc := newTestService(t, repo, cartSvc, gate, nil)

	input := sampleCheckoutInput(uuid.New())
	input.PaymentMethod = enums.PaymentMethodOnline
	input.Payment = &payments.Confirmation{ProviderOrderID: "order_A", PaymentID: "pay_A", Signature: "bad"}

	_, err := svc.Checkout(context.Background(), input)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodePaymentVerification {
		t.Fatalf("expected payment verification error, got %v", err)
	}
	if created != 0 {
		t.Fatal("order must not be persisted when verification fails")
	}
	if cartSvc.calls != 0 {
		t.Fatal("cart should not be quoted when verification fails")
	}
}

func TestCheckoutOnlineRequiresConfirmation(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubRepo{}, &stubCart{quote: sampleQuote(uuid.New())}, &stubGate{}, nil)

	input := sampleCheckoutInput(uuid.New())
	input.PaymentMethod = enums.PaymentMethodOnline

	_, err := svc.Checkout(context.Background(), input)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCheckoutReplayReturnsExistingOrder(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	existing := &models.Order{ID: uuid.New(), UserID: userID, TotalCents: 135000}

	var created int
	repo := &stubRepo{
		findByPaymentFn: func(ctx context.Context, paymentID string) (*models.Order, error) {
			if paymentID != "pay_A" {
				t.Fatalf("unexpected payment id %q", paymentID)
			}
			return existing, nil
		},
		createFn: func(ctx context.Context, order *models.Order) (*models.Order, error) {
			created++
			return order, nil
		},
	}
	gate := &stubGate{}
	svc := newTestService(t, repo, &stubCart{quote: sampleQuote(uuid.New())}, gate, nil)

	input := sampleCheckoutInput(userID)
	input.PaymentMethod = enums.PaymentMethodOnline
	input.Payment = &payments.Confirmation{ProviderOrderID: "order_A", PaymentID: "pay_A", Signature: "sig"}

	order, err := svc.Checkout(context.Background(), input)
	if err != nil {
		t.Fatalf("checkout replay: %v", err)
	}
	if order.ID != existing.ID {
		t.Fatal("expected the already-recorded order back")
	}
	if created != 0 {
		t.Fatal("replay must not create a second order")
	}
	if gate.calls != 0 {
		t.Fatal("replay must not re-verify the payment")
	}
}

func TestCheckoutReplayForOtherUserConflicts(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{
		findByPaymentFn: func(ctx context.Context, paymentID string) (*models.Order, error) {
			return &models.Order{ID: uuid.New(), UserID: uuid.New()}, nil
		},
	}
	svc := newTestService(t, repo, &stubCart{quote: sampleQuote(uuid.New())}, &stubGate{}, nil)

	input := sampleCheckoutInput(uuid.New())
	input.PaymentMethod = enums.PaymentMethodOnline
	input.Payment = &payments.Confirmation{ProviderOrderID: "order_A", PaymentID: "pay_A", Signature: "sig"}

	_, err := svc.Checkout(context.Background(), input)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCheckoutInvalidAddressRejected(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubRepo{}, &stubCart{quote: sampleQuote(uuid.New())}, &stubGate{}, nil)

	input := sampleCheckoutInput(uuid.New())
	input.ShippingAddress.PostalCode = ""

	_, err := svc.Checkout(context.Background(), input)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCheckoutStockRaceSurfacesConflict(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{
		decrementFn: func(ctx context.Context, productID uuid.UUID, qty int) error {
			return gorm.ErrRecordNotFound
		},
	}
	svc := newTestService(t, repo, &stubCart{quote: sampleQuote(uuid.New())}, &stubGate{}, nil)

	_, err := svc.Checkout(context.Background(), sampleCheckoutInput(uuid.New()))
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCancelRequiresReason(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubRepo{}, &stubCart{}, &stubGate{}, nil)

	_, err := svc.Cancel(context.Background(), CancelInput{UserID: uuid.New(), OrderID: uuid.New(), Reason: "  "})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCancelHidesOtherUsersOrders(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{
		findForUserFn: func(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	svc := newTestService(t, repo, &stubCart{}, &stubGate{}, nil)

	_, err := svc.Cancel(context.Background(), CancelInput{UserID: uuid.New(), OrderID: uuid.New(), Reason: "changed my mind"})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCancelShippedOrderRejected(t *testing.T) {
	t.Parallel()

	order := &models.Order{ID: uuid.New(), Status: enums.OrderStatusShipped}
	repo := &stubRepo{
		findForUserFn: func(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
			return order, nil
		},
	}
	svc := newTestService(t, repo, &stubCart{}, &stubGate{}, nil)

	_, err := svc.Cancel(context.Background(), CancelInput{UserID: uuid.New(), OrderID: order.ID, Reason: "too late"})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestCancelRestoresStockAndRefundsPaidOrder(t *testing.T) {
	t.Parallel()

	productID := uuid.New()
	order := &models.Order{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		Status:        enums.OrderStatusProcessing,
		PaymentMethod: enums.PaymentMethodOnline,
		PaymentStatus: enums.PaymentStatusPaid,
		Items:         []models.OrderItem{{ProductID: &productID, Qty: 2}},
	}

	var restored int
	var capturedUpdates map[string]any
	repo := &stubRepo{
		findForUserFn: func(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
			return order, nil
		},
		findByIDFn: func(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
			canceled := *order
			canceled.Status = enums.OrderStatusCanceled
			canceled.PaymentStatus = enums.PaymentStatusRefunded
			return &canceled, nil
		},
		updateFn: func(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
			capturedUpdates = updates
			return nil
		},
		restoreFn: func(ctx context.Context, id uuid.UUID, qty int) error {
			if id != productID || qty != 2 {
				t.Fatalf("unexpected stock restore %s x%d", id, qty)
			}
			restored++
			return nil
		},
	}
	notifier := &stubNotifier{}
	svc := newTestService(t, repo, &stubCart{}, &stubGate{}, notifier)

	canceled, err := svc.Cancel(context.Background(), CancelInput{UserID: order.UserID, OrderID: order.ID, Reason: "found a better gift"})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if canceled.Status != enums.OrderStatusCanceled {
		t.Fatalf("expected canceled status, got %s", canceled.Status)
	}
	if capturedUpdates["payment_status"] != enums.PaymentStatusRefunded {
		t.Fatalf("expected refund marker in updates, got %+v", capturedUpdates)
	}
	if capturedUpdates["cancel_reason"] != "found a better gift" {
		t.Fatalf("expected cancel reason in updates, got %+v", capturedUpdates)
	}
	if restored != 1 {
		t.Fatalf("expected one stock restore, got %d", restored)
	}
	if notifier.canceled != 1 {
		t.Fatalf("expected one canceled notification, got %d", notifier.canceled)
	}
}

func TestAdminUpdateStatusRejectsBackwardMove(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{
		findByIDFn: func(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
			return &models.Order{ID: orderID, Status: enums.OrderStatusShipped}, nil
		},
	}
	svc := newTestService(t, repo, &stubCart{}, &stubGate{}, nil)

	_, err := svc.AdminUpdateStatus(context.Background(), AdminUpdateStatusInput{
		OrderID: uuid.New(),
		Status:  enums.OrderStatusProcessing,
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestAdminUpdateStatusDeliveredSettlesCOD(t *testing.T) {
	t.Parallel()

	order := &models.Order{
		ID:            uuid.New(),
		Status:        enums.OrderStatusOutForDelivery,
		PaymentMethod: enums.PaymentMethodCOD,
		PaymentStatus: enums.PaymentStatusCODPending,
	}

	var capturedUpdates map[string]any
	repo := &stubRepo{
		findByIDFn: func(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
			return order, nil
		},
		updateFn: func(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
			capturedUpdates = updates
			return nil
		},
	}
	notifier := &stubNotifier{}
	svc := newTestService(t, repo, &stubCart{}, &stubGate{}, notifier)

	_, err := svc.AdminUpdateStatus(context.Background(), AdminUpdateStatusInput{
		OrderID: order.ID,
		Status:  enums.OrderStatusDelivered,
	})
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if capturedUpdates["status"] != enums.OrderStatusDelivered {
		t.Fatalf("expected delivered status update, got %+v", capturedUpdates)
	}
	if capturedUpdates["payment_status"] != enums.PaymentStatusPaid {
		t.Fatalf("expected cod settlement, got %+v", capturedUpdates)
	}
	if _, ok := capturedUpdates["delivered_at"]; !ok {
		t.Fatal("expected delivered_at to be set")
	}
	if notifier.updated != 1 {
		t.Fatalf("expected one status notification, got %d", notifier.updated)
	}
}

func TestAdminUpdateStatusToCanceledRequiresReason(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{
		findByIDFn: func(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
			return &models.Order{ID: orderID, Status: enums.OrderStatusPending}, nil
		},
	}
	svc := newTestService(t, repo, &stubCart{}, &stubGate{}, nil)

	_, err := svc.AdminUpdateStatus(context.Background(), AdminUpdateStatusInput{
		OrderID: uuid.New(),
		Status:  enums.OrderStatusCanceled,
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAdminGetReturnsAnyUsersOrder(t *testing.T) {
	t.Parallel()

	order := &models.Order{ID: uuid.New(), UserID: uuid.New(), Status: enums.OrderStatusProcessing}
	repo := &stubRepo{
		findByIDFn: func(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
			return order, nil
		},
	}
	svc := newTestService(t, repo, &stubCart{}, &stubGate{}, nil)

	got, err := svc.AdminGet(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("admin get: %v", err)
	}
	if got.ID != order.ID {
		t.Fatalf("unexpected order %s", got.ID)
	}
}

func TestAdminGetUnknownOrder(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{
		findByIDFn: func(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	svc := newTestService(t, repo, &stubCart{}, &stubGate{}, nil)

	_, err := svc.AdminGet(context.Background(), uuid.New())
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetHidesOtherUsersOrders(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{
		findForUserFn: func(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	svc := newTestService(t, repo, &stubCart{}, &stubGate{}, nil)

	_, err := svc.Get(context.Background(), uuid.New(), uuid.New())
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListForUserRequiresUser(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubRepo{}, &stubCart{}, &stubGate{}, nil)

	_, err := svc.ListForUser(context.Background(), uuid.Nil, pagination.Params{})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
