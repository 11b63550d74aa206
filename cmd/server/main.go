package main

import (
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/menolabs/wellness-backend/internal/apps"
	"github.com/menolabs/wellness-backend/internal/apps/menowellness"
	"github.com/menolabs/wellness-backend/internal/apps/partnersupport"
	"github.com/menolabs/wellness-backend/internal/audit"
	"github.com/menolabs/wellness-backend/internal/config"
	"github.com/menolabs/wellness-backend/internal/consent"
	"github.com/menolabs/wellness-backend/internal/database"
	"github.com/menolabs/wellness-backend/internal/envelope"
	"github.com/menolabs/wellness-backend/internal/handlers"
	"github.com/menolabs/wellness-backend/internal/kms"
	"github.com/menolabs/wellness-backend/internal/lifecycle"
	"github.com/menolabs/wellness-backend/internal/logging"
	"github.com/menolabs/wellness-backend/internal/middleware"
	"github.com/menolabs/wellness-backend/internal/retention"
	"github.com/menolabs/wellness-backend/internal/routes"
	"github.com/menolabs/wellness-backend/internal/services"
	"github.com/menolabs/wellness-backend/internal/store"
	"github.com/menolabs/wellness-backend/internal/tenant"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// App registry
	registry, err := tenant.LoadFromFile(cfg.AppsConfigPath)
	if err != nil {
		slog.Error("failed to load app registry", "path", cfg.AppsConfigPath, "error", err)
		os.Exit(1)
	}
	slog.Info("app registry loaded", "apps", len(registry.All()))

	// Database
	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}

	if err := database.Migrate(db); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(db)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		pgLogHandler,
	)))

	// Log cleanup (30-day retention)
	cleanupDone := make(chan struct{})
	logging.StartCleanup(db, cleanupDone)

	// Root key provider: AWS KMS in production, deterministic local keys
	// for development.
	var provider kms.RootKeyProvider
	switch cfg.KMSProvider {
	case "local":
		provider = kms.NewLocalProvider(cfg.KMSLocalSeed)
		slog.Warn("using local root key provider; not for production")
	default:
		provider = kms.NewAWSProvider(cfg.AWSRegion, cfg.KMSTimeout)
	}

	// One root key path per app namespace, from the registry.
	keyPaths := make(map[string]kms.KeyPath)
	for _, appCfg := range registry.All() {
		keyPaths[appCfg.AppID] = kms.KeyPath{
			Project:  "wellness",
			Location: cfg.AWSRegion,
			KeyRing:  cfg.KMSKeyRing,
			KeyID:    appCfg.KMSKeyID,
		}
	}
	envelopeService := envelope.New(provider, keyPaths)

	// Privacy core
	st := store.NewGorm(db)
	recorder := audit.NewRecorder(st)
	consentService := consent.NewService(st, recorder)
	retentionService := retention.NewService(st)

	lifecycleService := lifecycle.NewService(st, recorder, retentionService, consentService, nil)
	authService := services.NewAuthService(db, cfg, lifecycleService)
	lifecycleService.SetPrincipalDeleter(authService)

	sentimentService := services.NewSentimentService(
		cfg.SentimentAPIURL, cfg.SentimentAPIKey,
		&http.Client{Timeout: cfg.SentimentTimeout},
		consentService, recorder,
	)

	// Register plugins (both apps)
	plugins := []apps.Plugin{
		menowellness.New(st, envelopeService, consentService, sentimentService, recorder),
		partnersupport.New(st, envelopeService, consentService, recorder),
	}

	// Retention sweeps (invite expiry + aged deletion requests)
	sweepDone := make(chan struct{})
	retention.StartSweeps(retentionService, lifecycleService, cfg.SweepInterval, sweepDone)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, registry)
	healthHandler := handlers.NewHealthHandler(db, registry)
	privacyHandler := handlers.NewPrivacyHandler(lifecycleService, retentionService, envelopeService)
	consentHandler := handlers.NewConsentHandler(consentService)
	keysHandler := handlers.NewKeysHandler(envelopeService)
	legalHandler := handlers.NewLegalHandler(registry)

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      os.Getenv("APP_ENV"),
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    4 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})
	app.Use(middleware.TenantMiddleware(registry))

	// Routes
	routes.Setup(app, cfg, db, authHandler, healthHandler, privacyHandler, consentHandler, keysHandler, legalHandler, plugins)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	close(cleanupDone)
	close(sweepDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	// Close database connections
	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
