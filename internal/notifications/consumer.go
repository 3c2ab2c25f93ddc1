package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/craftkart/craftkart-backend/pkg/logger"
	"github.com/craftkart/craftkart-backend/pkg/redis"
	"github.com/craftkart/craftkart-backend/pkg/sendgrid"
)

const (
	emailConsumerScope  = "order-emails"
	emailIdempotencyTTL = 24 * time.Hour
)

// Mailer is the transactional email surface the consumer delivers through.
type Mailer interface {
	Send(ctx context.Context, email sendgrid.Email) error
}

// Consumer drains order notification events and sends the customer emails.
type Consumer struct {
	subscription *pubsub.Subscriber
	mailer       Mailer
	store        redis.IdempotencyStore
	fromAddress  string
	logg         *logger.Logger
}

// NewConsumer builds the order email consumer.
func NewConsumer(subscription *pubsub.Subscriber, mailer Mailer, store redis.IdempotencyStore, fromAddress string, logg *logger.Logger) (*Consumer, error) {
	if subscription == nil {
		return nil, fmt.Errorf("notification subscription required")
	}
	if mailer == nil {
		return nil, fmt.Errorf("mailer required")
	}
	if store == nil {
		return nil, fmt.Errorf("idempotency store required")
	}
	if strings.TrimSpace(fromAddress) == "" {
		return nil, fmt.Errorf("sender address required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		subscription: subscription,
		mailer:       mailer,
		store:        store,
		fromAddress:  fromAddress,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": msg.Attributes[eventTypeAttribute],
	})

	var event OrderEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		c.logg.Error(logCtx, "failed to decode order event", err)
		return processResult{ack: true}
	}
	logCtx = c.logg.WithOrderID(logCtx, event.OrderID.String())

	if strings.TrimSpace(event.RecipientEmail) == "" {
		c.logg.Info(logCtx, "skipping event without recipient email")
		return processResult{ack: true}
	}

	key := c.store.IdempotencyKey(emailConsumerScope, event.EventID)
	fresh, err := c.store.SetNX(ctx, key, 1, emailIdempotencyTTL)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if !fresh {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	email := sendgrid.Email{
		To:       event.RecipientEmail,
		ToName:   event.RecipientName,
		From:     c.fromAddress,
		Subject:  event.Title,
		BodyText: event.Message,
	}
	if err := c.mailer.Send(ctx, email); err != nil {
		c.logg.Error(logCtx, "order email delivery failed", err)
		_ = c.store.Del(ctx, key)
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "order email sent")
	return processResult{ack: true}
}
