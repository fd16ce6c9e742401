package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/joho/godotenv"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/shiningsmiles/gatepass-bridge/internal/billing"
	"github.com/shiningsmiles/gatepass-bridge/internal/config"
	"github.com/shiningsmiles/gatepass-bridge/internal/database"
	"github.com/shiningsmiles/gatepass-bridge/internal/handlers"
	"github.com/shiningsmiles/gatepass-bridge/internal/logging"
	"github.com/shiningsmiles/gatepass-bridge/internal/messaging"
	"github.com/shiningsmiles/gatepass-bridge/internal/middleware"
	"github.com/shiningsmiles/gatepass-bridge/internal/render"
	"github.com/shiningsmiles/gatepass-bridge/internal/routes"
	"github.com/shiningsmiles/gatepass-bridge/internal/scheduler"
	"github.com/shiningsmiles/gatepass-bridge/internal/services"
	"github.com/shiningsmiles/gatepass-bridge/internal/storage"
)

func main() {
	_ = godotenv.Load()

	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()

	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}
	if cfg.BillingBaseURL == "" || cfg.BillingAPIKey == "" {
		slog.Error("BILLING_API_BASE_URL and BILLING_API_KEY environment variables are required")
		os.Exit(1)
	}
	if cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" || cfg.TwilioWhatsAppFrom == "" {
		slog.Error("TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_WHATSAPP_NUMBER environment variables are required")
		os.Exit(1)
	}

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

	// External collaborators
	billingClient := billing.NewClient(cfg.BillingBaseURL, cfg.BillingAPIKey, cfg.BillingTimeout)
	gateway := messaging.NewTwilioGateway(
		cfg.TwilioAccountSID,
		cfg.TwilioAuthToken,
		cfg.TwilioWhatsAppFrom,
		cfg.PublicBaseURL+"/api/webhooks/message-status",
	)
	store, err := storage.NewS3Store(context.Background(), cfg.S3Bucket, cfg.S3Region)
	if err != nil {
		slog.Error("artifact store init failed", "error", err)
		os.Exit(1)
	}
	renderer := render.NewPassRenderer(cfg.SchoolName)

	// Services
	contactService := services.NewContactService(db, billingClient, cfg.DefaultCountryCode)
	entitlementService := services.NewEntitlementService(
		db, contactService, gateway, renderer, store,
		cfg.PublicBaseURL, cfg.TempDir, cfg.TermEnd,
	)
	verificationService := services.NewVerificationService(db)
	reconcilerService := services.NewReconcilerService(db, store)
	paymentService := services.NewPaymentService(billingClient, contactService, gateway, cfg.DefaultCountryCode)
	reminderService := services.NewReminderService(billingClient, contactService, gateway, cfg.DefaultCountryCode)
	profileSyncService := services.NewProfileSyncService(billingClient, contactService)

	// Handlers
	healthHandler := handlers.NewHealthHandler(db)
	contactHandler := handlers.NewContactHandler(contactService)
	gatePassHandler := handlers.NewGatePassHandler(entitlementService, verificationService)
	triggerHandler := handlers.NewTriggerHandler(paymentService, reminderService)
	webhookHandler := handlers.NewWebhookHandler(entitlementService, reconcilerService, cfg.DefaultCountryCode)

	// Scheduled sweeps
	sched := scheduler.New(scheduler.Config{
		ProfileSyncSpec:  cfg.ProfileSyncCron,
		ReminderSpec:     cfg.ReminderCron,
		PaymentSweepSpec: cfg.PaymentSweepCron,
		Term:             cfg.CurrentTerm,
	}, billingClient, profileSyncService, reminderService, paymentService)
	if err := sched.Start(); err != nil {
		slog.Error("scheduler start failed", "error", err)
		os.Exit(1)
	}

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

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		return c.Next()
	})

	routes.Setup(app, cfg, healthHandler, contactHandler, gatePassHandler, triggerHandler, webhookHandler)

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

	sched.Stop()
	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

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
