package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/shiningsmiles/gatepass-bridge/internal/dto"
	"github.com/shiningsmiles/gatepass-bridge/internal/services"
)

type ContactHandler struct {
	contacts *services.ContactService
}

func NewContactHandler(contacts *services.ContactService) *ContactHandler {
	return &ContactHandler{contacts: contacts}
}

// Upsert handles POST /api/contacts — explicit contact update or creation.
func (h *ContactHandler) Upsert(c *fiber.Ctx) error {
	studentID := c.Query("student_id")
	phone := c.Query("phone_number")
	if studentID == "" || phone == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "student_id and phone_number required",
		})
	}

	contact, err := h.contacts.Upsert(studentID, phone, c.Query("firstname"), c.Query("lastname"))
	if err != nil {
		slog.Error("contact upsert failed", "student_id", studentID, "error", err.Error())
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"status":                 "Contact updated",
		"student_id":             contact.StudentID,
		"preferred_phone_number": contact.PreferredPhone,
	})
}

// GetProfile handles GET /api/students/:student_id/profile — cached contact,
// resolved from the billing provider on a miss.
func (h *ContactHandler) GetProfile(c *fiber.Ctx) error {
	studentID := c.Params("student_id")
	if studentID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "student_id required",
		})
	}

	contact, err := h.contacts.Resolve(studentID)
	if err != nil {
		slog.Error("profile resolution failed", "student_id", studentID, "error", err.Error())
		return serviceError(c, err)
	}

	return c.JSON(dto.ProfileResponse{
		Status: "success",
		Profile: dto.Profile{
			StudentID:   contact.StudentID,
			Firstname:   contact.Firstname,
			Lastname:    contact.Lastname,
			PhoneNumber: contact.PreferredPhone,
			LastUpdated: contact.UpdatedAt,
		},
	})
}
