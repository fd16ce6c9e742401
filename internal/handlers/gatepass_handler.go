package handlers

import (
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/shiningsmiles/gatepass-bridge/internal/dto"
	"github.com/shiningsmiles/gatepass-bridge/internal/services"
)

type GatePassHandler struct {
	entitlement  *services.EntitlementService
	verification *services.VerificationService
}

func NewGatePassHandler(entitlement *services.EntitlementService, verification *services.VerificationService) *GatePassHandler {
	return &GatePassHandler{entitlement: entitlement, verification: verification}
}

// Generate handles POST /api/gatepasses — runs the entitlement engine for
// the observed payment figures.
func (h *GatePassHandler) Generate(c *fiber.Ctx) error {
	studentID := c.Query("student_id")
	term := c.Query("term")
	if studentID == "" || term == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "student_id and term required",
		})
	}

	paymentAmount, err := strconv.ParseFloat(c.Query("payment_amount", "0"), 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "invalid payment_amount",
		})
	}
	totalFees, err := strconv.ParseFloat(c.Query("total_fees", "0"), 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "invalid total_fees",
		})
	}

	result, err := h.entitlement.Issue(c.UserContext(), studentID, term, paymentAmount, totalFees)
	if err != nil {
		slog.Error("gate pass generation failed", "student_id", studentID, "term", term, "error", err.Error())
		return serviceError(c, err)
	}

	switch result.Outcome {
	case services.OutcomeDenied:
		return c.JSON(dto.GatePassResponse{
			Status:  "No gate pass issued",
			Outcome: string(result.Outcome),
			Reason:  "Payment below 50%",
		})
	case services.OutcomeReused:
		return c.JSON(dto.GatePassResponse{
			Status:         "Gate pass not updated",
			Outcome:        string(result.Outcome),
			PassID:         result.PassID,
			ExpiryDate:     result.ExpiresAt,
			WhatsAppNumber: result.WhatsAppNumber,
		})
	default:
		return c.JSON(dto.GatePassResponse{
			Status:         "Gate pass issued",
			Outcome:        string(result.Outcome),
			PassID:         result.PassID,
			ExpiryDate:     result.ExpiresAt,
			WhatsAppNumber: result.WhatsAppNumber,
			Delivery:       result.Delivery,
		})
	}
}

// Verify handles GET /api/gatepasses/verify — the link embedded in the
// scannable code. Side-effect free.
func (h *GatePassHandler) Verify(c *fiber.Ctx) error {
	passID := c.Query("pass_id")
	phone := c.Query("phone")
	if phone == "" {
		phone = c.Query("whatsapp_number")
	}
	if passID == "" || phone == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "pass_id and phone required",
		})
	}

	result, err := h.verification.Verify(passID, phone)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(dto.VerifyResponse{
		Status:         "valid",
		StudentID:      result.StudentID,
		ExpiryDate:     result.ExpiresAt,
		WhatsAppNumber: result.WhatsAppNumber,
	})
}
