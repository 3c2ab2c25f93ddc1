package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/craftkart/craftkart-backend/api/controllers"
	"github.com/craftkart/craftkart-backend/api/routes"
	addresssvc "github.com/craftkart/craftkart-backend/internal/address"
	cartsvc "github.com/craftkart/craftkart-backend/internal/cart"
	couponsvc "github.com/craftkart/craftkart-backend/internal/coupons"
	notificationsvc "github.com/craftkart/craftkart-backend/internal/notifications"
	ordersvc "github.com/craftkart/craftkart-backend/internal/orders"
	"github.com/craftkart/craftkart-backend/internal/payments"
	"github.com/craftkart/craftkart-backend/internal/payments/razorpay"
	productsvc "github.com/craftkart/craftkart-backend/internal/products"
	"github.com/craftkart/craftkart-backend/pkg/config"
	"github.com/craftkart/craftkart-backend/pkg/db"
	"github.com/craftkart/craftkart-backend/pkg/logger"
	"github.com/craftkart/craftkart-backend/pkg/metrics"
	"github.com/craftkart/craftkart-backend/pkg/migrate"
	"github.com/craftkart/craftkart-backend/pkg/pubsub"
	"github.com/craftkart/craftkart-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	requireResource(ctx, logg, "migrations", migrate.MaybeRunDev(ctx, cfg, logg, dbClient))

	redisClient, err := redis.New(ctx, cfg.Redis)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	// Pub/Sub powers transactional emails; the API degrades to in-app
	// notifications without it.
	var pubsubClient *pubsub.Client
	if cfg.GCP.ProjectID != "" {
		pubsubClient, err = pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Warn(logg.WithField(ctx, "error", err.Error()), "pubsub unavailable, emails disabled")
			pubsubClient = nil
		} else {
			defer pubsubClient.Close()
		}
	}

	promRegistry := prometheus.NewRegistry()
	checkoutMetrics := metrics.NewCheckoutMetrics(promRegistry)

	razorpayClient, err := razorpay.NewClient(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret, razorpay.WithBaseURL(cfg.Razorpay.BaseURL))
	requireResource(ctx, logg, "razorpay", err)

	gate, err := payments.NewGate(razorpayClient, checkoutMetrics)
	requireResource(ctx, logg, "payment gate", err)

	productRepo := productsvc.NewRepository(dbClient.DB())
	couponRepo := couponsvc.NewRepository(dbClient.DB())
	orderRepo := ordersvc.NewRepository(dbClient.DB())
	addressRepo := addresssvc.NewRepository(dbClient.DB())
	notificationRepo := notificationsvc.NewRepository(dbClient.DB())

	productService, err := productsvc.NewService(productRepo)
	requireResource(ctx, logg, "product service", err)

	couponService, err := couponsvc.NewService(couponRepo, checkoutMetrics)
	requireResource(ctx, logg, "coupon service", err)

	cartService, err := cartsvc.NewService(productRepo, couponService)
	requireResource(ctx, logg, "cart service", err)

	var publisher notificationsvc.EventPublisher
	if pubsubClient != nil {
		publisher = pubsubClient.NotificationPublisher()
	}
	notificationService, err := notificationsvc.NewService(notificationRepo, publisher, logg)
	requireResource(ctx, logg, "notification service", err)

	addressService, err := addresssvc.NewService(dbClient, addressRepo)
	requireResource(ctx, logg, "address service", err)

	orderService, err := ordersvc.NewService(
		dbClient,
		orderRepo,
		cartService,
		gate,
		notificationService,
		addressService,
		checkoutMetrics,
		logg,
	)
	requireResource(ctx, logg, "order service", err)

	healthDeps := map[string]controllers.Pinger{
		"database": dbClient,
		"redis":    redisClient,
	}
	if pubsubClient != nil {
		healthDeps["pubsub"] = pubsubClient
	}

	handler := routes.NewRouter(cfg, logg, redisClient, promRegistry, healthDeps, routes.Services{
		Products:      productService,
		Coupons:       couponService,
		Cart:          cartService,
		Orders:        orderService,
		Addresses:     addressService,
		Notifications: notificationService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	runCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(runCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(runCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stopCtx.Done():
		logg.Info(runCtx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(runCtx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
	logg.Info(runCtx, "api server stopped")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
