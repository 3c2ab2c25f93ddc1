package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/craftkart/craftkart-backend/internal/cart"
	"github.com/craftkart/craftkart-backend/internal/payments"
	"github.com/craftkart/craftkart-backend/pkg/db"
	"github.com/craftkart/craftkart-backend/pkg/db/models"
	"github.com/craftkart/craftkart-backend/pkg/enums"
	pkgerrors "github.com/craftkart/craftkart-backend/pkg/errors"
	"github.com/craftkart/craftkart-backend/pkg/logger"
	"github.com/craftkart/craftkart-backend/pkg/metrics"
	"github.com/craftkart/craftkart-backend/pkg/pagination"
	"github.com/craftkart/craftkart-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service exposes order placement, lookup and lifecycle operations.
type Service interface {
	Checkout(ctx context.Context, input CheckoutInput) (*models.Order, error)
	Get(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error)
	Cancel(ctx context.Context, input CancelInput) (*models.Order, error)
	AdminUpdateStatus(ctx context.Context, input AdminUpdateStatusInput) (*models.Order, error)
	AdminList(ctx context.Context, params pagination.Params, filters AdminListFilters) (*OrderList, error)
	AdminGet(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
}

// Notifier publishes best-effort customer notifications. Implementations log
// and swallow their own failures; order flows never fail on notifications.
type Notifier interface {
	OrderPlaced(ctx context.Context, order *models.Order)
	OrderStatusUpdated(ctx context.Context, order *models.Order, previous enums.OrderStatus)
	OrderCanceled(ctx context.Context, order *models.Order)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type quoter interface {
	BuildQuote(ctx context.Context, items []cart.QuoteItem, couponCode string, now time.Time) (*cart.Quote, error)
}

// addressBook persists a checkout address as the customer's default when the
// order asks for it. Failures never fail the order.
type addressBook interface {
	SaveDefault(ctx context.Context, userID uuid.UUID, addr types.Address) error
}

type service struct {
	tx        txRunner
	repo      Repository
	cart      quoter
	gate      payments.Gate
	notifier  Notifier
	addresses addressBook
	metrics   *metrics.CheckoutMetrics
	logg      *logger.Logger
}

// NewService builds the orders service. The notifier, address book and
// metrics are optional.
func NewService(
	tx txRunner,
	repo Repository,
	cartSvc cart.Service,
	gate payments.Gate,
	notifier Notifier,
	addresses addressBook,
	checkoutMetrics *metrics.CheckoutMetrics,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if cartSvc == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if gate == nil {
		return nil, fmt.Errorf("payment gate required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:        tx,
		repo:      repo,
		cart:      cartSvc,
		gate:      gate,
		notifier:  notifier,
		addresses: addresses,
		metrics:   checkoutMetrics,
		logg:      logg,
	}, nil
}

// Checkout places an order. Cart pricing is recomputed from the catalog, and
// online payments must pass the confirmation gate before anything is written.
// Replays of an already-recorded provider payment id return the existing order.
func (s *service) Checkout(ctx context.Context, input CheckoutInput) (*models.Order, error) {
	start := time.Now()
	now := start.UTC()

	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}

	address := input.ShippingAddress.Normalized()
	if err := address.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping address")
	}

	if input.PaymentMethod == enums.PaymentMethodOnline {
		if input.Payment == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment confirmation required")
		}

		if existing, err := s.findReplay(ctx, input.UserID, input.Payment.PaymentID); existing != nil || err != nil {
			return existing, err
		}

		if err := s.gate.Confirm(ctx, *input.Payment); err != nil {
			return nil, err
		}
	}

	quote, err := s.cart.BuildQuote(ctx, input.Items, input.CouponCode, now)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:          input.UserID,
		Status:          enums.OrderStatusPending,
		PaymentMethod:   input.PaymentMethod,
		CouponCode:      quote.CouponCode,
		SubtotalCents:   quote.SubtotalCents,
		DiscountCents:   quote.DiscountCents,
		TotalCents:      quote.TotalCents,
		ShippingAddress: address,
	}
	if input.PaymentMethod == enums.PaymentMethodOnline {
		order.PaymentStatus = enums.PaymentStatusPaid
		order.ProviderOrderID = &input.Payment.ProviderOrderID
		order.ProviderPaymentID = &input.Payment.PaymentID
	} else {
		order.PaymentStatus = enums.PaymentStatusCODPending
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		for _, line := range quote.Lines {
			if err := txRepo.DecrementStock(ctx, line.ProductID, line.Qty); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeConflict, "product stock changed, please retry").
						WithDetails(map[string]any{"product_id": line.ProductID})
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve stock")
			}
		}

		created, err := txRepo.Create(ctx, order)
		if err != nil {
			return err
		}

		items := make([]models.OrderItem, 0, len(quote.Lines))
		for _, line := range quote.Lines {
			productID := line.ProductID
			items = append(items, models.OrderItem{
				OrderID:           created.ID,
				ProductID:         &productID,
				Title:             line.Title,
				SKU:               line.SKU,
				ImageURL:          line.ImageURL,
				UnitPriceCents:    line.UnitPriceCents,
				Qty:               line.Qty,
				TotalCents:        line.TotalCents,
				CustomizationText: line.CustomizationText,
				SelectedColor:     line.SelectedColor,
			})
		}
		if err := txRepo.CreateItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}
		order.Items = items
		return nil
	})
	if err != nil {
		// Two concurrent checkouts for the same payment hit the unique
		// index; the loser returns the order the winner created.
		if input.Payment != nil && db.IsUniqueViolation(err, "idx_orders_provider_payment") {
			if existing, replayErr := s.findReplay(ctx, input.UserID, input.Payment.PaymentID); existing != nil || replayErr != nil {
				return existing, replayErr
			}
		}
		if appErr := pkgerrors.As(err); appErr != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
	}

	s.metrics.IncOrderCreated(string(input.PaymentMethod))
	s.metrics.ObserveCheckoutDuration(string(input.PaymentMethod), time.Since(start))

	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Info(ctx, "order placed")

	if input.SaveAddress && s.addresses != nil {
		if err := s.addresses.SaveDefault(ctx, input.UserID, address); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "save default address failed")
		}
	}

	if s.notifier != nil {
		s.notifier.OrderPlaced(ctx, order)
	}
	return order, nil
}

// findReplay looks up an order already recorded for the provider payment id.
// A payment recorded against another customer's order is rejected outright.
func (s *service) findReplay(ctx context.Context, userID uuid.UUID, paymentID string) (*models.Order, error) {
	if strings.TrimSpace(paymentID) == "" {
		return nil, nil
	}
	existing, err := s.repo.FindByProviderPaymentID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up payment")
	}
	if existing.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "payment already used")
	}
	return existing, nil
}

// Get returns an order owned by the user. Orders belonging to other customers
// are reported as missing.
func (s *service) Get(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	if userID == uuid.Nil || orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and order id required")
	}
	order, err := s.repo.FindByIDForUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	list, err := s.repo.ListForUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

// Cancel lets a customer cancel their own order while it is still pending or
// processing. Stock is returned and paid online orders are marked refunded.
func (s *service) Cancel(ctx context.Context, input CancelInput) (*models.Order, error) {
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cancel reason required")
	}
	if input.UserID == uuid.Nil || input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and order id required")
	}

	order, err := s.repo.FindByIDForUser(ctx, input.OrderID, input.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	canceled, err := s.cancelOrder(ctx, order, reason)
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithOrderID(ctx, canceled.ID.String())
	s.logg.Info(ctx, "order canceled")
	if s.notifier != nil {
		s.notifier.OrderCanceled(ctx, canceled)
	}
	return canceled, nil
}

func (s *service) cancelOrder(ctx context.Context, order *models.Order, reason string) (*models.Order, error) {
	if !CanCancel(order.Status) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be canceled").
			WithDetails(map[string]any{"status": order.Status})
	}

	now := time.Now().UTC()
	updates := map[string]any{
		"status":        enums.OrderStatusCanceled,
		"cancel_reason": reason,
		"canceled_at":   now,
	}
	if order.PaymentStatus == enums.PaymentStatusPaid {
		updates["payment_status"] = enums.PaymentStatusRefunded
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		for _, item := range order.Items {
			if item.ProductID == nil {
				continue
			}
			if err := txRepo.RestoreStock(ctx, *item.ProductID, item.Qty); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore stock")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	canceled, err := s.repo.FindByID(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
	}
	return canceled, nil
}

// AdminUpdateStatus moves an order forward along the fulfillment path. Moving
// to canceled requires a reason and follows the customer cancellation rules.
func (s *service) AdminUpdateStatus(ctx context.Context, input AdminUpdateStatusInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	order, err := s.repo.FindByID(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	if !CanTransition(order.Status, input.Status) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "status transition not allowed").
			WithDetails(map[string]any{"from": order.Status, "to": input.Status})
	}

	previous := order.Status

	if input.Status == enums.OrderStatusCanceled {
		reason := strings.TrimSpace(input.Reason)
		if reason == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cancel reason required")
		}
		canceled, err := s.cancelOrder(ctx, order, reason)
		if err != nil {
			return nil, err
		}
		ctx = s.logg.WithOrderID(ctx, canceled.ID.String())
		s.logg.Info(ctx, "order canceled")
		if s.notifier != nil {
			s.notifier.OrderCanceled(ctx, canceled)
		}
		return canceled, nil
	}

	updates := map[string]any{"status": input.Status}
	if input.Status == enums.OrderStatusDelivered {
		updates["delivered_at"] = time.Now().UTC()
		if order.PaymentStatus == enums.PaymentStatusCODPending {
			updates["payment_status"] = enums.PaymentStatusPaid
		}
	}

	if err := s.repo.Update(ctx, order.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}

	updated, err := s.repo.FindByID(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
	}

	ctx = s.logg.WithOrderID(ctx, updated.ID.String())
	s.logg.Info(ctx, "order status updated")
	if s.notifier != nil {
		s.notifier.OrderStatusUpdated(ctx, updated, previous)
	}
	return updated, nil
}

func (s *service) AdminList(ctx context.Context, params pagination.Params, filters AdminListFilters) (*OrderList, error) {
	list, err := s.repo.ListAll(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

// AdminGet returns any customer's order for the back office.
func (s *service) AdminGet(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}
