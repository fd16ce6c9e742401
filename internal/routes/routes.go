package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/shiningsmiles/gatepass-bridge/internal/config"
	"github.com/shiningsmiles/gatepass-bridge/internal/handlers"
	"github.com/shiningsmiles/gatepass-bridge/internal/middleware"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	healthHandler *handlers.HealthHandler,
	contactHandler *handlers.ContactHandler,
	gatePassHandler *handlers.GatePassHandler,
	triggerHandler *handlers.TriggerHandler,
	webhookHandler *handlers.WebhookHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Verification link embedded in every scannable code — public, no side
	// effects, called every time a gate scans a pass.
	api.Get("/gatepasses/verify", gatePassHandler.Verify)
	api.Get("/students/:student_id/profile", contactHandler.GetProfile)

	// Operator triggers
	admin := api.Group("", middleware.AdminToken(cfg))
	admin.Post("/trigger-payment-check", triggerHandler.PaymentCheck)
	admin.Post("/trigger-reminder", triggerHandler.Reminder)
	admin.Post("/contacts", contactHandler.Upsert)
	admin.Post("/gatepasses", gatePassHandler.Generate)

	// Messaging provider callbacks (no admin token; Twilio posts here)
	api.Post("/webhooks/whatsapp", webhookHandler.InboundMessage)
	api.Post("/webhooks/message-status", webhookHandler.DeliveryStatus)

	// Local transient artifacts (QR images) for deployments without object
	// storage reachability from the provider.
	app.Static("/temp", cfg.TempDir)
}
