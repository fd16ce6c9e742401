package services

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/shiningsmiles/gatepass-bridge/internal/billing"
	"github.com/shiningsmiles/gatepass-bridge/internal/messaging"
)

// ReminderService sends outstanding-balance notices to guardians.
type ReminderService struct {
	billing   BillingAPI
	contacts  *ContactService
	gateway   messaging.Gateway
	countryCC string
}

func NewReminderService(billingAPI BillingAPI, contacts *ContactService, gateway messaging.Gateway, defaultCountryCode string) *ReminderService {
	return &ReminderService{billing: billingAPI, contacts: contacts, gateway: gateway, countryCC: defaultCountryCode}
}

// SendBalanceReminder notifies the guardian when the term balance is
// positive. A settled account is a quiet no-op.
func (s *ReminderService) SendBalanceReminder(studentID, term, phoneOverride string) (*NotificationResult, error) {
	statement, err := s.billing.GetStatement(studentID, term)
	if err != nil {
		if errors.Is(err, billing.ErrNoRecord) {
			return &NotificationResult{Reason: "no statement for term"}, nil
		}
		return nil, err
	}

	if statement.Balance <= 0 {
		slog.Info("no outstanding balance", "student_id", studentID, "term", term)
		return &NotificationResult{Reason: "no outstanding balance"}, nil
	}

	contact, err := s.contacts.Resolve(studentID)
	if err != nil {
		return nil, err
	}
	phone := contact.PreferredPhone
	if phoneOverride != "" {
		phone, err = messaging.NormalizePhone(phoneOverride, s.countryCC)
		if err != nil {
			return nil, err
		}
	}

	body := fmt.Sprintf(
		"Reminder: %s has an outstanding balance of $%.2f for Term %s. Kindly settle as soon as possible.",
		studentID, statement.Balance, term,
	)
	if _, err := s.gateway.SendText(phone, body); err != nil {
		return nil, err
	}

	slog.Info("balance reminder sent", "student_id", studentID, "balance", statement.Balance)
	return &NotificationResult{Notified: true, Balance: statement.Balance}, nil
}
