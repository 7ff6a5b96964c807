package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/BradenHooton/shiftbook/internal/auth"
	"github.com/BradenHooton/shiftbook/internal/config"
	"github.com/BradenHooton/shiftbook/internal/database"
	"github.com/BradenHooton/shiftbook/internal/handlers"
	middlewareCustom "github.com/BradenHooton/shiftbook/internal/middleware"
	"github.com/BradenHooton/shiftbook/internal/observability"
	"github.com/BradenHooton/shiftbook/internal/repositories"
	"github.com/BradenHooton/shiftbook/internal/routes"
	"github.com/BradenHooton/shiftbook/internal/services"
	pkghttp "github.com/BradenHooton/shiftbook/pkg/http"
	pkglogger "github.com/BradenHooton/shiftbook/pkg/logger"
	"github.com/BradenHooton/shiftbook/pkg/rabbitmq"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.Server.LogLevel)}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded",
		slog.String("env", cfg.Server.Env),
		slog.String("ledger_backend", cfg.Lockout.Backend))

	if err := observability.InitSentry(cfg.Sentry.DSN, cfg.Server.Env); err != nil {
		logger.Warn("sentry disabled", slog.Any("error", err))
	}
	defer observability.FlushSentry()

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		err := database.Migrate(ctx, db.Pool, logger)
		cancel()
		if err != nil {
			logger.Error("failed to migrate database", slog.Any("error", err))
			os.Exit(1)
		}
	}

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	shiftRepo := repositories.NewShiftRepository(db)
	favoriteRepo := repositories.NewFavoriteShiftRepository(db)

	attemptStore, closeStore, err := newAttemptStore(cfg, db)
	if err != nil {
		logger.Error("failed to initialize attempt ledger", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeStore()

	// Lockout ledger
	policy := services.LockoutPolicy{
		MaxAttempts:     cfg.Lockout.MaxAttempts,
		LockoutDuration: cfg.Lockout.LockoutDuration,
	}
	ledger := services.NewAttemptLedger(attemptStore, policy, cfg.Lockout.WriteTimeout, logger)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionExpiry)
	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelayMs:   cfg.Auth.TimingDelayBaseMs,
		RandomDelayMs: cfg.Auth.TimingDelayRandomMs,
	})
	auditLogger := pkglogger.NewAuditLogger(logger)

	// Initialize services
	authService := services.NewAuthService(userRepo, ledger, tokenManager, timingDelay, logger, auditLogger)
	shiftService := services.NewShiftService(shiftRepo, favoriteRepo, logger)

	publisher := newPublisher(cfg, logger)
	defer publisher.Close()
	authService.SetEventPublisher(publisher, cfg.Events.Exchange)

	if cfg.Email.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		emailService, err := services.NewAWSSESEmailService(ctx, cfg.Email.AWSRegion, cfg.Email.FromAddress, logger)
		cancel()
		if err != nil {
			logger.Warn("lockout notices disabled", slog.Any("error", err))
		} else {
			authService.SetLockoutNotifier(emailService)
		}
	}

	// Initialize handlers
	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}
	cookieConfig := auth.CookieConfig{
		Domain:   cfg.Auth.CookieDomain,
		Secure:   cfg.Server.IsProduction(),
		SameSite: "lax",
	}
	authHandler := handlers.NewAuthHandler(authService, tokenManager, ipConfig, cookieConfig)
	shiftHandler := handlers.NewShiftHandler(shiftService)
	healthHandler := handlers.NewHealthHandler(db, logger)

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.SecureLogger(logger, ipConfig))
	router.Use(middlewareCustom.Recoverer(logger))
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Production: cfg.Server.IsProduction()}))
	router.Use(middlewareCustom.CORS(cfg.Server.AllowedOrigins))
	router.Use(middleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(router, authHandler, shiftHandler, healthHandler, tokenManager, middlewareCustom.RateLimitConfig{
		RequestsPerMinute: cfg.Server.AuthRequestsPerMinute,
		IPConfig:          ipConfig,
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		return
	}

	logger.Info("server stopped gracefully")
}

// newAttemptStore returns the ledger storage selected by LEDGER_BACKEND and a
// function that releases it.
func newAttemptStore(cfg *config.Config, db *database.DB) (services.LoginAttemptStore, func(), error) {
	if cfg.Lockout.Backend != config.LedgerBackendRedis {
		return repositories.NewLoginAttemptRepository(db), func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, err
	}

	return repositories.NewRedisLoginAttemptRepository(client, cfg.Redis.KeyPrefix), func() { _ = client.Close() }, nil
}

// newPublisher connects to the broker when AMQP_URL is set. Events fall back to the
// log when the broker is absent or unreachable; logins never depend on it.
func newPublisher(cfg *config.Config, logger *slog.Logger) rabbitmq.Publisher {
	if cfg.Events.AMQPURL == "" {
		return &rabbitmq.LogPublisher{Logger: logger}
	}

	producer, err := rabbitmq.NewEventProducer(cfg.Events.AMQPURL, logger)
	if err != nil {
		logger.Warn("event broker unavailable, auth events will only be logged", slog.Any("error", err))
		return &rabbitmq.LogPublisher{Logger: logger}
	}
	return producer
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
