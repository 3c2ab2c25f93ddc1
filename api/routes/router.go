package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/craftkart/craftkart-backend/api/controllers"
	"github.com/craftkart/craftkart-backend/api/middleware"
	addresssvc "github.com/craftkart/craftkart-backend/internal/address"
	cartsvc "github.com/craftkart/craftkart-backend/internal/cart"
	couponsvc "github.com/craftkart/craftkart-backend/internal/coupons"
	notificationsvc "github.com/craftkart/craftkart-backend/internal/notifications"
	ordersvc "github.com/craftkart/craftkart-backend/internal/orders"
	productsvc "github.com/craftkart/craftkart-backend/internal/products"
	"github.com/craftkart/craftkart-backend/pkg/config"
	"github.com/craftkart/craftkart-backend/pkg/logger"
	"github.com/craftkart/craftkart-backend/pkg/redis"
)

// Services bundles everything the HTTP surface exposes.
type Services struct {
	Products      productsvc.Service
	Coupons       couponsvc.Service
	Cart          cartsvc.Service
	Orders        ordersvc.Service
	Addresses     addresssvc.Service
	Notifications notificationsvc.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *redis.Client,
	promRegistry *prometheus.Registry,
	healthDeps map[string]controllers.Pinger,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	checkoutPolicy := middleware.NewRateLimitPolicy(
		"checkout",
		cfg.RateLimit.CheckoutWindow,
		cfg.RateLimit.CheckoutUserLimit,
	)
	couponPolicy := middleware.NewRateLimitPolicy(
		"coupon",
		cfg.RateLimit.CouponWindow,
		cfg.RateLimit.CouponUserLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, healthDeps))
	})

	if promRegistry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(svcs.Products, logg))
			r.Get("/{productID}", controllers.GetProduct(svcs.Products, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.Idempotency(redisClient, logg))

			r.Post("/cart/quote", controllers.QuoteCart(svcs.Cart, logg))
			r.With(middleware.RateLimit(couponPolicy, redisClient, logg)).
				Post("/coupons/validate", controllers.ValidateCoupon(svcs.Coupons, logg))
			r.With(middleware.RateLimit(checkoutPolicy, redisClient, logg)).
				Post("/checkout", controllers.Checkout(svcs.Orders, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.ListOrders(svcs.Orders, logg))
				r.Get("/{orderID}", controllers.OrderDetail(svcs.Orders, logg))
				r.Post("/{orderID}/cancel", controllers.CancelOrder(svcs.Orders, logg))
			})

			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", controllers.ListAddresses(svcs.Addresses, logg))
				r.Post("/", controllers.CreateAddress(svcs.Addresses, logg))
				r.Put("/{addressID}", controllers.UpdateAddress(svcs.Addresses, logg))
				r.Post("/{addressID}/default", controllers.SetDefaultAddress(svcs.Addresses, logg))
				r.Delete("/{addressID}", controllers.DeleteAddress(svcs.Addresses, logg))
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.ListNotifications(svcs.Notifications, logg))
				r.Post("/{notificationID}/read", controllers.MarkNotificationRead(svcs.Notifications, logg))
				r.Post("/read-all", controllers.MarkAllNotificationsRead(svcs.Notifications, logg))
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.RequireRole("admin", logg))
			r.Use(middleware.Idempotency(redisClient, logg))

			r.Route("/products", func(r chi.Router) {
				r.Post("/", controllers.AdminCreateProduct(svcs.Products, logg))
				r.Patch("/{productID}", controllers.AdminUpdateProduct(svcs.Products, logg))
				r.Delete("/{productID}", controllers.AdminDeleteProduct(svcs.Products, logg))
			})

			r.Route("/coupons", func(r chi.Router) {
				r.Get("/", controllers.AdminListCoupons(svcs.Coupons, logg))
				r.Post("/", controllers.AdminCreateCoupon(svcs.Coupons, logg))
				r.Patch("/{couponID}", controllers.AdminUpdateCoupon(svcs.Coupons, logg))
				r.Delete("/{couponID}", controllers.AdminDeleteCoupon(svcs.Coupons, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminListOrders(svcs.Orders, logg))
				r.Get("/{orderID}", controllers.AdminOrderDetail(svcs.Orders, logg))
				r.Patch("/{orderID}/status", controllers.AdminUpdateOrderStatus(svcs.Orders, logg))
			})
		})
	})

	return r
}
