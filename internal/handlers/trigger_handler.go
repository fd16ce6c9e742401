package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/shiningsmiles/gatepass-bridge/internal/dto"
	"github.com/shiningsmiles/gatepass-bridge/internal/services"
)

// TriggerHandler exposes the per-student operations the scheduler also runs,
// for manual invocation.
type TriggerHandler struct {
	payments  *services.PaymentService
	reminders *services.ReminderService
}

func NewTriggerHandler(payments *services.PaymentService, reminders *services.ReminderService) *TriggerHandler {
	return &TriggerHandler{payments: payments, reminders: reminders}
}

// PaymentCheck handles POST /api/trigger-payment-check.
func (h *TriggerHandler) PaymentCheck(c *fiber.Ctx) error {
	studentID := c.Query("student_id")
	term := c.Query("term")
	if studentID == "" || term == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "student_id and term required",
		})
	}

	result, err := h.payments.CheckNewPayments(studentID, term, c.Query("phone_number"))
	if err != nil {
		slog.Error("payment check failed", "student_id", studentID, "term", term, "error", err.Error())
		return serviceError(c, err)
	}

	return c.JSON(dto.NotificationResponse{
		Status:   "Payment check triggered",
		Notified: result.Notified,
		Amount:   result.Amount,
		Balance:  result.Balance,
		Reason:   result.Reason,
	})
}

// Reminder handles POST /api/trigger-reminder.
func (h *TriggerHandler) Reminder(c *fiber.Ctx) error {
	studentID := c.Query("student_id")
	term := c.Query("term")
	if studentID == "" || term == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "student_id and term required",
		})
	}

	result, err := h.reminders.SendBalanceReminder(studentID, term, c.Query("phone_number"))
	if err != nil {
		slog.Error("reminder failed", "student_id", studentID, "term", term, "error", err.Error())
		return serviceError(c, err)
	}

	return c.JSON(dto.NotificationResponse{
		Status:   "Balance reminder triggered",
		Notified: result.Notified,
		Balance:  result.Balance,
		Reason:   result.Reason,
	})
}
