package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/shiningsmiles/gatepass-bridge/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrPassNotFound covers both an unknown pass id and a known id
	// presented with the wrong phone number; the two are indistinguishable
	// so valid identifiers cannot be probed.
	ErrPassNotFound = errors.New("invalid gate pass or WhatsApp number")

	// ErrPassExpired means the pass existed for this bearer but its
	// validity window has closed.
	ErrPassExpired = errors.New("gate pass expired")
)

type VerifyResult struct {
	StudentID      string
	ExpiresAt      time.Time
	WhatsAppNumber string
}

// VerificationService answers whether a gate pass is still valid for a
// bearer. Lookups are side-effect free and safe at any frequency.
type VerificationService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewVerificationService(db *gorm.DB) *VerificationService {
	return &VerificationService{db: db, now: time.Now}
}

// Verify checks the (pass id, phone) compound key and the expiry window.
func (s *VerificationService) Verify(passID, phone string) (*VerifyResult, error) {
	var pass models.GatePass
	err := s.db.Where("pass_id = ? AND whatsapp_number = ?", passID, phone).First(&pass).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPassNotFound
	} else if err != nil {
		return nil, fmt.Errorf("gate pass lookup failed: %w", err)
	}

	if pass.ExpiresAt.Before(s.now().UTC()) {
		return nil, fmt.Errorf("%w on %s", ErrPassExpired, pass.ExpiresAt.Format(time.RFC3339))
	}

	return &VerifyResult{
		StudentID:      pass.StudentID,
		ExpiresAt:      pass.ExpiresAt,
		WhatsAppNumber: pass.WhatsAppNumber,
	}, nil
}
