package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	httpadapter "github.com/Haleralex/coinvault/internal/adapters/http"
	"github.com/Haleralex/coinvault/internal/adapters/http/middleware"
	"github.com/Haleralex/coinvault/internal/application/auth"
	"github.com/Haleralex/coinvault/internal/application/engine"
	"github.com/Haleralex/coinvault/internal/config"
	"github.com/Haleralex/coinvault/internal/infrastructure/persistence/postgres"
	"github.com/Haleralex/coinvault/internal/pkg/logger"
)

func main() {
	// .env удобен локально, в проде переменные приходят из окружения
	_ = godotenv.Load()

	// 1. Configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Logger
	logLevel := cfg.Log.Level
	if cfg.App.Debug {
		logLevel = "debug"
	}
	logger.Setup(&logger.Config{
		Level:  logLevel,
		Format: cfg.Log.Format,
	})
	log := slog.Default()

	log.Info("starting wallet service",
		slog.String("name", cfg.App.Name),
		slog.String("version", cfg.App.Version),
	)

	// 3. Database
	ctx := context.Background()

	pool, err := postgres.NewConnectionPool(ctx, cfg.Database.URL, postgres.PoolConfig{
		MaxConns:        cfg.Database.MaxConnections,
		MinConns:        cfg.Database.MinConnections,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
	})
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()
	log.Info("database connected")

	// 4. Repositories
	accountRepo := postgres.NewAccountRepository(pool)
	assetTypeRepo := postgres.NewAssetTypeRepository(pool)
	walletRepo := postgres.NewWalletRepository(pool)
	ledgerRepo := postgres.NewLedgerRepository(pool)
	idempotencyRepo := postgres.NewIdempotencyRepository(pool)
	uow := postgres.NewUnitOfWork(pool)

	// 5. Services
	walletService := engine.NewService(
		accountRepo,
		assetTypeRepo,
		walletRepo,
		ledgerRepo,
		idempotencyRepo,
		uow,
		cfg.Idempotency.KeyTTL(),
		log,
	)

	authService := auth.NewService(
		accountRepo,
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenExpiry(),
		log,
	)

	// Системные счета обязаны существовать до приёма трафика:
	// без них ни одна проводка не сбалансируется
	if err := walletService.VerifySystemAccounts(ctx); err != nil {
		log.Error("system accounts verification failed, run migrations first",
			slog.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info("system accounts verified")

	// 6. Router
	router := httpadapter.NewRouterBuilder(&httpadapter.RouterConfig{
		Logger:         log,
		Pool:           pool,
		ServiceName:    cfg.App.Name,
		Version:        cfg.App.Version,
		Debug:          cfg.App.Debug,
		AllowedOrigins: []string{"*"},
		RateLimit:      middleware.DefaultRateLimitConfig(),
	}).
		WithWalletService(walletService).
		WithAuthService(authService, authService).
		Build()

	// 7. HTTP Server
	server := httpadapter.NewServer(&httpadapter.ServerConfig{
		Addr:            cfg.Server.Address(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Logger:          log,
	}, router)

	log.Info("server listening", slog.String("address", cfg.Server.Address()))

	if err := server.Run(); err != nil {
		log.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("server stopped gracefully")
}
