package services

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/shiningsmiles/gatepass-bridge/internal/billing"
	"github.com/shiningsmiles/gatepass-bridge/internal/messaging"
	"github.com/shiningsmiles/gatepass-bridge/internal/models"
)

// NotificationResult is the structured outcome of a payment-check or
// reminder run. Not notifying is a valid business outcome, not an error.
type NotificationResult struct {
	Notified bool
	Amount   float64
	Balance  float64
	Reason   string
}

// PaymentService reports payment completion to guardians. It only observes
// payments the billing provider already recorded.
type PaymentService struct {
	billing  BillingAPI
	contacts *ContactService
	gateway  messaging.Gateway
	countryCC string
}

func NewPaymentService(billingAPI BillingAPI, contacts *ContactService, gateway messaging.Gateway, defaultCountryCode string) *PaymentService {
	return &PaymentService{billing: billingAPI, contacts: contacts, gateway: gateway, countryCC: defaultCountryCode}
}

// CheckNewPayments fetches the latest payment and current balance for the
// term and sends a confirmation to the guardian. phoneOverride, when set,
// replaces the contact's preferred number for this send only.
func (s *PaymentService) CheckNewPayments(studentID, term, phoneOverride string) (*NotificationResult, error) {
	payments, err := s.billing.GetPayments(studentID, term)
	if err != nil {
		if errors.Is(err, billing.ErrNoRecord) {
			return &NotificationResult{Reason: "no payment record for term"}, nil
		}
		return nil, err
	}
	if len(payments) == 0 {
		slog.Info("no payments found", "student_id", studentID, "term", term)
		return &NotificationResult{Reason: "no payments found"}, nil
	}

	latest := payments[len(payments)-1]
	if latest.Amount <= 0 {
		return &NotificationResult{Reason: "no new payment amount"}, nil
	}

	statement, err := s.billing.GetStatement(studentID, term)
	if err != nil && !errors.Is(err, billing.ErrNoRecord) {
		return nil, err
	}
	var balance float64
	if statement != nil {
		balance = statement.Balance
	}

	contact, phone, err := s.resolvePhone(studentID, phoneOverride)
	if err != nil {
		return nil, err
	}

	body := fmt.Sprintf(
		"Dear %s, thank you for your payment of $%.2f for %s. Your balance is now $%.2f.",
		contact.FullName(), latest.Amount, studentID, balance,
	)
	if _, err := s.gateway.SendText(phone, body); err != nil {
		return nil, err
	}

	slog.Info("payment confirmation sent", "student_id", studentID, "amount", latest.Amount)
	return &NotificationResult{Notified: true, Amount: latest.Amount, Balance: balance}, nil
}

func (s *PaymentService) resolvePhone(studentID, phoneOverride string) (*models.Contact, string, error) {
	contact, err := s.contacts.Resolve(studentID)
	if err != nil {
		return nil, "", err
	}
	phone := contact.PreferredPhone
	if phoneOverride != "" {
		phone, err = messaging.NormalizePhone(phoneOverride, s.countryCC)
		if err != nil {
			return nil, "", err
		}
	}
	return contact, phone, nil
}
