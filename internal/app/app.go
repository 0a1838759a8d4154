// Package app wires configuration, storage and modules into the services
// used by the HTTP server and the operator CLI.
package app

import (
	"context"
	"net/http"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/middleware"
	"storefront/internal/modules/auth"
	"storefront/internal/modules/order"
	"storefront/internal/modules/payment"
	"storefront/internal/pkg/jwt"
	"storefront/internal/pkg/response"
	"storefront/internal/queue"
	"storefront/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type App struct {
	Config    *config.Config
	Log       zerolog.Logger
	DB        *gorm.DB
	Redis     *redis.Client
	Publisher queue.Publisher

	Codec    *jwt.Service
	Auth     *auth.Service
	Orders   *order.Service
	Payments *payment.Service
}

// New connects storage and builds every service. Redis and the broker are
// optional: without them rate limiting is off and events are dropped.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Log: log, DB: db, Publisher: queue.NopPublisher{}}

	a.Redis = config.NewRedisClient(ctx, cfg)
	if cfg.RedisAddr != "" && a.Redis == nil {
		log.Warn().Str("addr", cfg.RedisAddr).Msg("redis unreachable, rate limiting disabled")
	}

	if cfg.EventsEnabled {
		pub, err := queue.NewAMQPPublisher(cfg.AMQPURL, log)
		if err != nil {
			log.Warn().Err(err).Msg("broker unreachable, events disabled")
		} else {
			a.Publisher = pub
		}
	}
	events := queue.NewEmitter(a.Publisher, log)

	users := repository.NewUserRepository(db)
	orders := repository.NewOrderRepository(db)

	a.Codec = jwt.New(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.RefreshTTL)
	tokens := auth.NewTokenManager(a.Codec, repository.NewRefreshTokenRepository(db), users, cfg.RefreshTokenPepper)
	a.Auth = auth.NewService(users, tokens, log)
	a.Orders = order.NewService(orders, events, log)
	a.Payments = payment.NewService(
		orders,
		repository.NewPaymentRepository(db),
		payment.NewRazorpayClient(cfg.Razorpay),
		events,
		cfg.Razorpay,
		log,
	)
	return a, nil
}

// Router mounts every module under /api/v1.
func (a *App) Router() *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestLogger(a.Log),
		middleware.CORS(a.Config.CORSAllowedOrigins),
		middleware.RequestTimeout(a.Config.RequestTimeout),
		middleware.Authenticate(a.Codec),
	)

	r.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, "ok", gin.H{"env": a.Config.AppEnv})
	})

	authHandler := auth.NewHandler(a.Auth)
	orderHandler := order.NewHandler(a.Orders)
	paymentHandler := payment.NewHandler(a.Payments)

	v1 := r.Group("/api/v1")
	{
		authHandler.RegisterPublicRoutes(v1, middleware.RateLimit(a.Config.RateLimit, a.Redis, a.Log))
		paymentHandler.RegisterPublicRoutes(v1)

		protected := v1.Group("", middleware.RequireAuth())
		authHandler.RegisterProtectedRoutes(protected)
		orderHandler.RegisterProtectedRoutes(protected)
		paymentHandler.RegisterProtectedRoutes(protected)

		admin := v1.Group("/admin", middleware.AdminOnly())
		authHandler.RegisterAdminRoutes(admin)
		orderHandler.RegisterAdminRoutes(admin)
	}
	return r
}

// Close releases the broker, Redis and database connections.
func (a *App) Close() {
	if err := a.Publisher.Close(); err != nil {
		a.Log.Warn().Err(err).Msg("close publisher")
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Log.Warn().Err(err).Msg("close redis")
		}
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
