package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/shiningsmiles/gatepass-bridge/internal/billing"
	"github.com/shiningsmiles/gatepass-bridge/internal/dto"
	"github.com/shiningsmiles/gatepass-bridge/internal/messaging"
	"github.com/shiningsmiles/gatepass-bridge/internal/services"
)

// serviceError maps the error taxonomy onto HTTP status classes: 400 for
// rejected input, 404 for missing entities, 410 for expired passes, 502 for
// upstream failures, 500 otherwise.
func serviceError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, messaging.ErrInvalidPhone), errors.Is(err, services.ErrInvalidAmount):
		status = fiber.StatusBadRequest
	case errors.Is(err, services.ErrContactNotFound),
		errors.Is(err, services.ErrPassNotFound),
		errors.Is(err, billing.ErrNoRecord):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrPassExpired):
		status = fiber.StatusGone
	case errors.Is(err, billing.ErrUpstreamUnavailable), errors.Is(err, messaging.ErrDeliveryFailure):
		status = fiber.StatusBadGateway
	}

	message := err.Error()
	if status == fiber.StatusInternalServerError {
		message = "Internal server error"
	}
	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: message})
}
