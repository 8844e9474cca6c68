// Package http - Router configuration for REST API.
//
// Router собирает все handlers и middleware в единую точку входа.
//
// Pattern: Composition Root
// - Все зависимости собираются здесь
// - Handlers получают только нужные им сервисы
// - Middleware применяется к соответствующим группам routes
package http

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Haleralex/coinvault/internal/adapters/http/handlers"
	"github.com/Haleralex/coinvault/internal/adapters/http/middleware"
	"github.com/Haleralex/coinvault/internal/infrastructure/persistence/postgres"
)

// ============================================
// Router Configuration
// ============================================

// RouterConfig - конфигурация роутера.
type RouterConfig struct {
	// Logger для middleware
	Logger *slog.Logger
	// Pool - пул соединений для health checks
	Pool *pgxpool.Pool
	// ServiceName и Version для /health и /
	ServiceName string
	Version     string
	// Debug включает gin debug режим
	Debug bool
	// AllowedOrigins для CORS
	AllowedOrigins []string
	// RateLimit - лимитер запросов, nil отключает лимитирование
	RateLimit *middleware.RateLimitConfig
}

// DefaultRouterConfig - конфигурация по умолчанию для development.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		Logger:         slog.Default(),
		ServiceName:    "Wallet Service",
		Version:        "dev",
		Debug:          true,
		AllowedOrigins: []string{"*"},
		RateLimit:      middleware.DefaultRateLimitConfig(),
	}
}

// ============================================
// Router Builder
// ============================================

// RouterBuilder - builder для создания роутера.
type RouterBuilder struct {
	config        *RouterConfig
	walletService handlers.WalletService
	authService   handlers.AuthService
	tokenVerifier middleware.TokenVerifier
}

// NewRouterBuilder создаёт новый builder.
func NewRouterBuilder(config *RouterConfig) *RouterBuilder {
	if config == nil {
		config = DefaultRouterConfig()
	}
	return &RouterBuilder{config: config}
}

// WithWalletService добавляет кошельковый сервис.
func (b *RouterBuilder) WithWalletService(service handlers.WalletService) *RouterBuilder {
	b.walletService = service
	return b
}

// WithAuthService добавляет сервис аутентификации.
func (b *RouterBuilder) WithAuthService(service handlers.AuthService, verifier middleware.TokenVerifier) *RouterBuilder {
	b.authService = service
	b.tokenVerifier = verifier
	return b
}

// Build создаёт сконфигурированный Gin Engine.
func (b *RouterBuilder) Build() *gin.Engine {
	if !b.config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	handlers.SetupValidator()

	// ============================================
	// Global Middleware
	// ============================================

	// Recovery первым: перехватывает панику из всего, что ниже
	router.Use(middleware.Recovery(&middleware.RecoveryConfig{
		Logger:           b.config.Logger,
		EnableStackTrace: true,
	}))
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(&middleware.CORSConfig{
		AllowOrigins:  b.config.AllowedOrigins,
		AllowMethods:  middleware.DefaultCORSConfig().AllowMethods,
		AllowHeaders:  middleware.DefaultCORSConfig().AllowHeaders,
		ExposeHeaders: middleware.DefaultCORSConfig().ExposeHeaders,
		MaxAge:        middleware.DefaultCORSConfig().MaxAge,
	}))
	router.Use(middleware.Logging(&middleware.LoggingConfig{
		Logger:    b.config.Logger,
		SkipPaths: []string{"/health", "/metrics"},
	}))
	if b.config.RateLimit != nil {
		router.Use(middleware.RateLimit(b.config.RateLimit))
	}
	router.Use(middleware.Metrics())

	// ============================================
	// System Routes
	// ============================================

	var dbCheck handlers.HealthChecker
	if b.config.Pool != nil {
		pool := b.config.Pool
		dbCheck = func(ctx context.Context) error {
			return postgres.HealthCheck(ctx, pool)
		}
	}

	healthHandler := handlers.NewHealthHandler(b.config.ServiceName, b.config.Version, dbCheck)

	router.GET("/", healthHandler.Root)
	router.GET("/health", healthHandler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ============================================
	// Wallet Routes
	// ============================================

	if b.walletService != nil {
		walletHandler := handlers.NewWalletHandler(b.walletService)

		wallet := router.Group("/wallet")
		{
			wallet.POST("/topup", walletHandler.TopUp)
			wallet.POST("/bonus", walletHandler.IssueBonus)
			wallet.POST("/spend", walletHandler.Spend)
			wallet.GET("/balance/:account_id/:asset_type_id", walletHandler.GetBalance)
			wallet.GET("/transactions/:account_id/:asset_type_id", walletHandler.GetTransactionHistory)
			wallet.GET("/asset-types", walletHandler.ListAssetTypes)
			wallet.GET("/accounts", walletHandler.ListAccounts)
		}
	}

	// ============================================
	// Auth Routes
	// ============================================

	if b.authService != nil {
		authHandler := handlers.NewAuthHandler(b.authService)

		authGroup := router.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.GET("/me", middleware.Auth(b.tokenVerifier), authHandler.Me)
		}
	}

	return router
}
