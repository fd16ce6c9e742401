package handlers

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shiningsmiles/gatepass-bridge/internal/dto"
	"github.com/shiningsmiles/gatepass-bridge/internal/messaging"
	"github.com/shiningsmiles/gatepass-bridge/internal/services"
)

// WebhookHandler receives the messaging provider's push notifications:
// inbound WhatsApp messages and asynchronous delivery outcomes.
type WebhookHandler struct {
	entitlement *services.EntitlementService
	reconciler  *services.ReconcilerService
	countryCC   string
}

func NewWebhookHandler(entitlement *services.EntitlementService, reconciler *services.ReconcilerService, defaultCountryCode string) *WebhookHandler {
	return &WebhookHandler{entitlement: entitlement, reconciler: reconciler, countryCC: defaultCountryCode}
}

// InboundMessage handles POST /api/webhooks/whatsapp. "get gate pass"
// resends the sender's latest pass; anything else gets a usage hint.
func (h *WebhookHandler) InboundMessage(c *fiber.Ctx) error {
	from := strings.TrimPrefix(c.FormValue("From"), "whatsapp:")
	body := strings.ToLower(strings.TrimSpace(c.FormValue("Body")))
	if from == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "From required",
		})
	}

	phone, err := messaging.NormalizePhone(from, h.countryCC)
	if err != nil {
		return c.JSON(dto.InboundReply{Reply: "Please message from a valid WhatsApp number."})
	}

	if body != "get gate pass" && body != "get gatepass" {
		return c.JSON(dto.InboundReply{Reply: "Send 'get gate pass' to view your latest gate pass."})
	}

	reply, err := h.entitlement.ResendLatest(c.UserContext(), phone)
	if err != nil {
		if errors.Is(err, services.ErrContactNotFound) {
			return c.JSON(dto.InboundReply{Reply: "Please provide your student ID. Reply with 'ID <student_id>'."})
		}
		slog.Error("inbound message handling failed", "from", phone, "error", err.Error())
		return c.JSON(dto.InboundReply{Reply: "An error occurred. Please try again later."})
	}
	return c.JSON(dto.InboundReply{Reply: reply})
}

// DeliveryStatus handles POST /api/webhooks/message-status. Always answers
// 200: the provider retries on failure and a correlation miss is expected.
func (h *WebhookHandler) DeliveryStatus(c *fiber.Ctx) error {
	messageSID := c.FormValue("MessageSid")
	status := c.FormValue("MessageStatus")
	if messageSID == "" || status == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "MessageSid and MessageStatus required",
		})
	}

	if err := h.reconciler.HandleStatus(c.UserContext(), messageSID, status); err != nil {
		slog.Error("delivery status handling failed", "sid", messageSID, "status", status, "error", err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to process delivery status",
		})
	}
	return c.JSON(fiber.Map{"received": true})
}
