package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/craftkart/craftkart-backend/internal/notifications"
	"github.com/craftkart/craftkart-backend/pkg/config"
	"github.com/craftkart/craftkart-backend/pkg/logger"
	"github.com/craftkart/craftkart-backend/pkg/pubsub"
	"github.com/craftkart/craftkart-backend/pkg/redis"
	"github.com/craftkart/craftkart-backend/pkg/sendgrid"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "notification-worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "notification-worker"

	logg = logger.New(logger.Options{
		ServiceName: "notification-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	redisClient, err := redis.New(ctx, cfg.Redis)
	requireResource(ctx, logg, "redis", err)
	defer redisClient.Close()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer pubsubClient.Close()

	mailer, err := sendgrid.NewClient(cfg.Sendgrid.APIKey, cfg.Sendgrid.DefaultFrom)
	requireResource(ctx, logg, "sendgrid", err)

	consumer, err := notifications.NewConsumer(
		pubsubClient.NotificationSubscription(),
		mailer,
		redisClient,
		cfg.Sendgrid.DefaultFrom,
		logg,
	)
	requireResource(ctx, logg, "notification consumer", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"serviceKind": cfg.Service.Kind,
		"env":         cfg.App.Env,
	})
	logg.Info(runCtx, "notification worker ready")

	if err := consumer.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "notification worker not working", err)
		os.Exit(1)
	}
	logg.Info(runCtx, "notification worker shutting down gracefully")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
