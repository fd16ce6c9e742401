package services

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shiningsmiles/gatepass-bridge/internal/billing"
	"github.com/shiningsmiles/gatepass-bridge/internal/messaging"
	"github.com/shiningsmiles/gatepass-bridge/internal/models"
	"gorm.io/gorm"
)

// ErrContactNotFound means no contact with a usable phone number could be
// resolved for the student, from cache or from the billing provider.
var ErrContactNotFound = errors.New("no contact found")

// BillingAPI is the slice of the billing provider this system consumes.
// Satisfied by *billing.Client.
type BillingAPI interface {
	GetPayments(studentID, term string) ([]billing.Payment, error)
	GetStatement(studentID, term string) (*billing.Statement, error)
	GetDebtList() ([]billing.DebtEntry, error)
	GetProfile(studentID string) (*billing.Profile, error)
}

// ContactService is the contact directory: a persistent cache of guardian
// contact details keyed by student id, populated lazily from the billing
// provider or by explicit updates.
type ContactService struct {
	db        *gorm.DB
	billing   BillingAPI
	countryCC string
}

func NewContactService(db *gorm.DB, billingAPI BillingAPI, defaultCountryCode string) *ContactService {
	return &ContactService{db: db, billing: billingAPI, countryCC: defaultCountryCode}
}

// Resolve returns the cached contact for the student, fetching and caching
// the provider profile on a miss.
func (s *ContactService) Resolve(studentID string) (*models.Contact, error) {
	var contact models.Contact
	err := s.db.Where("student_id = ?", studentID).First(&contact).Error
	if err == nil {
		return &contact, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("contact lookup failed: %w", err)
	}

	profile, err := s.billing.GetProfile(studentID)
	if err != nil {
		if errors.Is(err, billing.ErrNoRecord) {
			return nil, fmt.Errorf("%w: %s", ErrContactNotFound, studentID)
		}
		return nil, err
	}
	return s.SyncFromProfile(studentID, profile)
}

// SyncFromProfile normalizes the profile's phone numbers and upserts the
// contact. A profile without any usable number is ErrContactNotFound.
func (s *ContactService) SyncFromProfile(studentID string, profile *billing.Profile) (*models.Contact, error) {
	studentMobile := s.normalizeOptional(profile.StudentMobile)
	guardianMobile := s.normalizeOptional(profile.GuardianMobile)

	preferred := studentMobile
	if preferred == "" {
		preferred = guardianMobile
	}
	if preferred == "" {
		return nil, fmt.Errorf("%w: no phone number in profile for %s", ErrContactNotFound, studentID)
	}

	var contact models.Contact
	err := s.db.Where("student_id = ?", studentID).First(&contact).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		contact = models.Contact{
			ID:             uuid.New(),
			StudentID:      studentID,
			Firstname:      profile.Firstname,
			Lastname:       profile.Lastname,
			StudentMobile:  studentMobile,
			GuardianMobile: guardianMobile,
			PreferredPhone: preferred,
		}
		if err := s.db.Create(&contact).Error; err != nil {
			return nil, fmt.Errorf("failed to cache contact: %w", err)
		}
		slog.Info("contact cached from provider", "student_id", studentID)
		return &contact, nil
	} else if err != nil {
		return nil, fmt.Errorf("contact lookup failed: %w", err)
	}

	contact.Firstname = profile.Firstname
	contact.Lastname = profile.Lastname
	contact.StudentMobile = studentMobile
	contact.GuardianMobile = guardianMobile
	contact.PreferredPhone = preferred
	if err := s.db.Save(&contact).Error; err != nil {
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}
	slog.Info("contact refreshed from provider", "student_id", studentID)
	return &contact, nil
}

// Upsert applies an explicit contact update. The phone becomes the preferred
// number; the guardian number is only set if it was empty; blank names keep
// their previous values.
func (s *ContactService) Upsert(studentID, phone, firstname, lastname string) (*models.Contact, error) {
	normalized, err := messaging.NormalizePhone(phone, s.countryCC)
	if err != nil {
		return nil, err
	}

	var contact models.Contact
	err = s.db.Where("student_id = ?", studentID).First(&contact).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		contact = models.Contact{
			ID:             uuid.New(),
			StudentID:      studentID,
			Firstname:      firstname,
			Lastname:       lastname,
			StudentMobile:  normalized,
			GuardianMobile: normalized,
			PreferredPhone: normalized,
		}
		if err := s.db.Create(&contact).Error; err != nil {
			return nil, fmt.Errorf("failed to create contact: %w", err)
		}
		slog.Info("contact added", "student_id", studentID)
		return &contact, nil
	} else if err != nil {
		return nil, fmt.Errorf("contact lookup failed: %w", err)
	}

	if firstname != "" {
		contact.Firstname = firstname
	}
	if lastname != "" {
		contact.Lastname = lastname
	}
	contact.StudentMobile = normalized
	if contact.GuardianMobile == "" {
		contact.GuardianMobile = normalized
	}
	contact.PreferredPhone = normalized
	if err := s.db.Save(&contact).Error; err != nil {
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}
	slog.Info("contact updated", "student_id", studentID)
	return &contact, nil
}

// FindByPhone returns the contact whose preferred number matches, for
// treating an inbound message sender as a known guardian.
func (s *ContactService) FindByPhone(phone string) (*models.Contact, error) {
	var contact models.Contact
	err := s.db.Where("preferred_phone = ?", phone).First(&contact).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: phone %s", ErrContactNotFound, phone)
	} else if err != nil {
		return nil, fmt.Errorf("contact lookup failed: %w", err)
	}
	return &contact, nil
}

// normalizeOptional drops numbers that cannot be normalized instead of
// failing the whole profile.
func (s *ContactService) normalizeOptional(raw string) string {
	if raw == "" {
		return ""
	}
	normalized, err := messaging.NormalizePhone(raw, s.countryCC)
	if err != nil {
		return ""
	}
	return normalized
}
