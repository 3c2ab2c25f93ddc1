package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/craftkart/craftkart-backend/pkg/db/models"
	"github.com/craftkart/craftkart-backend/pkg/enums"
	pkgerrors "github.com/craftkart/craftkart-backend/pkg/errors"
	"github.com/craftkart/craftkart-backend/pkg/logger"
	"github.com/craftkart/craftkart-backend/pkg/pagination"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// eventTypeAttribute keys the event kind on published Pub/Sub messages.
const eventTypeAttribute = "event_type"

// Service defines notification list/read operations plus the order event
// hooks used by the checkout and fulfillment flows.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)

	OrderPlaced(ctx context.Context, order *models.Order)
	OrderStatusUpdated(ctx context.Context, order *models.Order, previous enums.OrderStatus)
	OrderCanceled(ctx context.Context, order *models.Order)
}

// EventPublisher is the Pub/Sub surface the service publishes through.
type EventPublisher interface {
	Publish(ctx context.Context, msg *pubsub.Message) *pubsub.PublishResult
}

// OrderEvent is the payload published for every order notification.
type OrderEvent struct {
	EventID        string                 `json:"eventId"`
	Type           enums.NotificationType `json:"type"`
	UserID         uuid.UUID              `json:"userId"`
	OrderID        uuid.UUID              `json:"orderId"`
	Title          string                 `json:"title"`
	Message        string                 `json:"message"`
	RecipientEmail string                 `json:"recipientEmail,omitempty"`
	RecipientName  string                 `json:"recipientName,omitempty"`
	OccurredAt     time.Time              `json:"occurredAt"`
}

type service struct {
	repo      Repository
	publisher EventPublisher
	logg      *logger.Logger
}

// ListParams configures pagination for notifications.
type ListParams struct {
	UserID     uuid.UUID
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items  []models.Notification `json:"items"`
	Cursor string                `json:"cursor"`
}

// NewService wires notifications dependencies. The publisher is optional; a
// nil publisher keeps in-app notifications without emails.
func NewService(repo Repository, publisher EventPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{repo: repo, publisher: publisher, logg: logg}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	query := listNotificationsParams{
		UserID:     params.UserID,
		Limit:      params.Limit,
		UnreadOnly: params.UnreadOnly,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}

	return &ListResult{
		Items:  rows,
		Cursor: cursor,
	}, nil
}

func (s *service) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.MarkRead(ctx, userID, notificationID, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	count, err := s.repo.MarkAllRead(ctx, userID, time.Now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}

// OrderPlaced records the confirmation notification after checkout.
func (s *service) OrderPlaced(ctx context.Context, order *models.Order) {
	title := "Order confirmed"
	message := fmt.Sprintf("Your order for %s has been placed. We'll let you know when it ships.", formatINR(order.TotalCents))
	if order.PaymentMethod == enums.PaymentMethodCOD {
		message = fmt.Sprintf("Your order for %s has been placed. Please keep %s ready on delivery.", formatINR(order.TotalCents), formatINR(order.TotalCents))
	}
	s.notify(ctx, order, enums.NotificationTypeOrderPlaced, title, message)
}

// OrderStatusUpdated records a fulfillment progress notification.
func (s *service) OrderStatusUpdated(ctx context.Context, order *models.Order, previous enums.OrderStatus) {
	title := "Order update"
	var message string
	switch order.Status {
	case enums.OrderStatusProcessing:
		message = "Your order is being prepared."
	case enums.OrderStatusShipped:
		message = "Your order has shipped."
	case enums.OrderStatusOutForDelivery:
		message = "Your order is out for delivery."
	case enums.OrderStatusDelivered:
		title = "Order delivered"
		message = "Your order has been delivered. Enjoy!"
	default:
		message = fmt.Sprintf("Your order status changed to %s.", order.Status)
	}
	s.notify(ctx, order, enums.NotificationTypeOrderStatus, title, message)
}

// OrderCanceled records the cancellation notification.
func (s *service) OrderCanceled(ctx context.Context, order *models.Order) {
	message := "Your order has been canceled."
	if order.PaymentStatus == enums.PaymentStatusRefunded {
		message = fmt.Sprintf("Your order has been canceled. A refund of %s is on its way.", formatINR(order.TotalCents))
	}
	s.notify(ctx, order, enums.NotificationTypeOrderCanceled, "Order canceled", message)
}

// notify persists the in-app row and publishes the event for the email
// worker. Failures are logged and swallowed; order flows never depend on
// notification delivery.
func (s *service) notify(ctx context.Context, order *models.Order, notificationType enums.NotificationType, title, message string) {
	if order == nil {
		return
	}

	orderID := order.ID
	notification := &models.Notification{
		UserID:  order.UserID,
		OrderID: &orderID,
		Type:    notificationType,
		Title:   title,
		Message: message,
	}

	var errs error
	if err := s.repo.Create(ctx, notification); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("create notification row: %w", err))
	}
	if err := s.publish(ctx, order, notificationType, title, message); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("publish notification event: %w", err))
	}
	if errs != nil {
		s.logg.Error(s.logg.WithOrderID(ctx, order.ID.String()), "notification delivery incomplete", errs)
	}
}

func (s *service) publish(ctx context.Context, order *models.Order, notificationType enums.NotificationType, title, message string) error {
	if s.publisher == nil {
		return nil
	}

	event := OrderEvent{
		EventID:        uuid.NewString(),
		Type:           notificationType,
		UserID:         order.UserID,
		OrderID:        order.ID,
		Title:          title,
		Message:        message,
		RecipientEmail: order.ShippingAddress.Email,
		RecipientName:  order.ShippingAddress.FullName,
		OccurredAt:     time.Now().UTC(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	result := s.publisher.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{eventTypeAttribute: string(notificationType)},
	})
	_, err = result.Get(ctx)
	return err
}

// formatINR renders a paise amount as rupees.
func formatINR(cents int) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s₹%d.%02d", sign, cents/100, cents%100)
}
