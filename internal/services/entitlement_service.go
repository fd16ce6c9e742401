package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shiningsmiles/gatepass-bridge/internal/messaging"
	"github.com/shiningsmiles/gatepass-bridge/internal/models"
	"github.com/shiningsmiles/gatepass-bridge/internal/render"
	"github.com/shiningsmiles/gatepass-bridge/internal/storage"
	"gorm.io/gorm"
)

var (
	// ErrArtifactRender means the credential document or QR code could not
	// be generated. Fatal to the issuance attempt: no pass is persisted
	// without a renderable document.
	ErrArtifactRender = errors.New("gate pass rendering failed")

	// ErrInvalidAmount rejects non-positive fee totals before any external call.
	ErrInvalidAmount = errors.New("total fees must be positive")
)

type Outcome string

const (
	OutcomeIssued Outcome = "issued"
	OutcomeReused Outcome = "reused"
	OutcomeDenied Outcome = "denied_below_threshold"
)

// Delivery outcomes for an issuance. A failed delivery never invalidates an
// already-issued pass.
const (
	DeliveryMedia    = "media_sent"
	DeliveryFallback = "text_fallback_sent"
	DeliveryFailed   = "delivery_failed"
)

const passAttachedBody = "Your gate pass is attached. This pass is valid only for your WhatsApp number. Do not share."

type IssueResult struct {
	Outcome        Outcome
	PassID         string
	ExpiresAt      time.Time
	WhatsAppNumber string
	Delivery       string
}

// EntitlementService maps payment ratios to access-validity windows and
// manages the gate-pass lifecycle end to end.
type EntitlementService struct {
	db            *gorm.DB
	contacts      *ContactService
	gateway       messaging.Gateway
	renderer      *render.PassRenderer
	store         storage.ArtifactStore
	publicBaseURL string
	tempDir       string
	termEnd       func(term string) time.Time
	now           func() time.Time
}

func NewEntitlementService(
	db *gorm.DB,
	contacts *ContactService,
	gateway messaging.Gateway,
	renderer *render.PassRenderer,
	store storage.ArtifactStore,
	publicBaseURL string,
	tempDir string,
	termEnd func(term string) time.Time,
) *EntitlementService {
	return &EntitlementService{
		db:            db,
		contacts:      contacts,
		gateway:       gateway,
		renderer:      renderer,
		store:         store,
		publicBaseURL: publicBaseURL,
		tempDir:       tempDir,
		termEnd:       termEnd,
		now:           time.Now,
	}
}

// Issue computes the entitlement for the observed payment figures and issues,
// reuses or denies a gate pass.
//
// Tiering: 100%+ is valid until the term's fixed end date, 75-99% for 60 days,
// 50-74% for 30 days, below 50% no pass. An unexpired pass whose recorded
// percentage is at least the new one is returned unchanged instead of
// reissuing, so unchanged entitlement never triggers a duplicate send.
func (s *EntitlementService) Issue(ctx context.Context, studentID, term string, paymentAmount, totalFees float64) (*IssueResult, error) {
	if totalFees <= 0 {
		return nil, ErrInvalidAmount
	}

	contact, err := s.contacts.Resolve(studentID)
	if err != nil {
		return nil, err
	}

	percent := paymentAmount / totalFees * 100
	issuedAt := s.now().UTC()

	var expiresAt time.Time
	switch {
	case percent >= 100:
		expiresAt = s.termEnd(term)
	case percent >= 75:
		expiresAt = issuedAt.Add(60 * 24 * time.Hour)
	case percent >= 50:
		expiresAt = issuedAt.Add(30 * 24 * time.Hour)
	default:
		slog.Info("payment below threshold, no gate pass issued",
			"student_id", studentID, "term", term, "percent", percent)
		return &IssueResult{Outcome: OutcomeDenied}, nil
	}

	// Reuse check against data read no earlier than request start.
	var existing models.GatePass
	err = s.db.Where("student_id = ? AND expires_at >= ?", studentID, issuedAt).
		Order("expires_at DESC").
		First(&existing).Error
	if err == nil && float64(existing.PaymentPercent) >= percent {
		slog.Info("existing gate pass still valid",
			"student_id", studentID, "pass_id", existing.PassID, "expires", existing.ExpiresAt)
		return &IssueResult{
			Outcome:        OutcomeReused,
			PassID:         existing.PassID,
			ExpiresAt:      existing.ExpiresAt,
			WhatsAppNumber: existing.WhatsAppNumber,
		}, nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("gate pass lookup failed: %w", err)
	}

	pass := models.GatePass{
		PassID:         uuid.NewString(),
		StudentID:      studentID,
		IssuedAt:       issuedAt,
		ExpiresAt:      expiresAt,
		PaymentPercent: int(percent),
		WhatsAppNumber: contact.PreferredPhone,
	}

	publicURL, pdfKey, qrPath, err := s.renderArtifacts(ctx, contact, &pass, percent)
	if err != nil {
		return nil, err
	}
	pass.PDFPath = &pdfKey
	pass.QRPath = &qrPath

	if err := s.db.Create(&pass).Error; err != nil {
		return nil, fmt.Errorf("failed to persist gate pass: %w", err)
	}

	delivery := s.deliver(ctx, contact, &pass, publicURL, percent)

	return &IssueResult{
		Outcome:        OutcomeIssued,
		PassID:         pass.PassID,
		ExpiresAt:      pass.ExpiresAt,
		WhatsAppNumber: pass.WhatsAppNumber,
		Delivery:       delivery,
	}, nil
}

// ResendLatest re-renders and resends the newest gate pass bound to the
// sender's number, for "get gate pass" over the inbound channel. Returns the
// reply text for the sender.
func (s *EntitlementService) ResendLatest(ctx context.Context, fromPhone string) (string, error) {
	contact, err := s.contacts.FindByPhone(fromPhone)
	if err != nil {
		return "", err
	}

	var pass models.GatePass
	err = s.db.Where("student_id = ? AND whatsapp_number = ?", contact.StudentID, fromPhone).
		Order("issued_at DESC").
		First(&pass).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Sprintf("No active gate pass found for %s.", contact.StudentID), nil
	} else if err != nil {
		return "", fmt.Errorf("gate pass lookup failed: %w", err)
	}

	percent := float64(pass.PaymentPercent)
	publicURL, pdfKey, qrPath, err := s.renderArtifacts(ctx, contact, &pass, percent)
	if err != nil {
		return "Error generating gate pass PDF. Please try again later.", nil
	}

	if err := s.db.Model(&pass).Updates(map[string]interface{}{
		"pdf_path": pdfKey,
		"qr_path":  qrPath,
	}).Error; err != nil {
		slog.Error("failed to record resent artifacts", "pass_id", pass.PassID, "error", err.Error())
	}

	switch s.deliver(ctx, contact, &pass, publicURL, percent) {
	case DeliveryMedia:
		return "Your gate pass has been sent as a PDF.", nil
	case DeliveryFallback:
		return "Your gate pass has been sent as text due to an error with the PDF.", nil
	default:
		return "Error sending gate pass. Please try again later.", nil
	}
}

// renderArtifacts generates the QR code and credential document for the pass
// and uploads the document to durable storage, returning its public link,
// storage key and the local QR file path.
func (s *EntitlementService) renderArtifacts(ctx context.Context, contact *models.Contact, pass *models.GatePass, percent float64) (string, string, string, error) {
	verifyURL := fmt.Sprintf("%s/api/gatepasses/verify?pass_id=%s&phone=%s",
		s.publicBaseURL, pass.PassID, url.QueryEscape(pass.WhatsAppNumber))

	qrPNG, err := render.EncodeQR(verifyURL)
	if err != nil {
		return "", "", "", fmt.Errorf("%w: %v", ErrArtifactRender, err)
	}

	pdfBytes, err := s.renderer.Render(render.PassData{
		StudentID:      pass.StudentID,
		StudentName:    contact.FullName(),
		PassID:         pass.PassID,
		IssuedAt:       pass.IssuedAt,
		ExpiresAt:      pass.ExpiresAt,
		PaymentPercent: percent,
		WhatsAppNumber: pass.WhatsAppNumber,
	}, qrPNG)
	if err != nil {
		return "", "", "", fmt.Errorf("%w: %v", ErrArtifactRender, err)
	}

	qrPath := filepath.Join(s.tempDir, "qr_"+pass.PassID+".png")
	if err := os.MkdirAll(s.tempDir, 0o755); err != nil {
		return "", "", "", fmt.Errorf("%w: %v", ErrArtifactRender, err)
	}
	if err := os.WriteFile(qrPath, qrPNG, 0o644); err != nil {
		return "", "", "", fmt.Errorf("%w: %v", ErrArtifactRender, err)
	}

	pdfKey := "gatepasses/gatepass_" + pass.PassID + ".pdf"
	publicURL, err := s.store.Put(ctx, pdfKey, pdfBytes, "application/pdf")
	if err != nil {
		return "", "", "", fmt.Errorf("failed to store gate pass document: %w", err)
	}

	return publicURL, pdfKey, qrPath, nil
}

// deliver probes the public link and sends the document as media; any
// failure falls back to a plain-text rendition of the same fields. The
// provider message SID is recorded on the pass for later status correlation.
func (s *EntitlementService) deliver(ctx context.Context, contact *models.Contact, pass *models.GatePass, publicURL string, percent float64) string {
	var sid string
	err := s.store.Probe(ctx, publicURL)
	if err == nil {
		sid, err = s.gateway.SendMedia(pass.WhatsAppNumber, passAttachedBody, publicURL)
	}
	if err == nil {
		s.recordSID(pass, sid)
		slog.Info("gate pass document sent",
			"student_id", pass.StudentID, "pass_id", pass.PassID, "to", pass.WhatsAppNumber)
		return DeliveryMedia
	}

	slog.Error("gate pass media delivery failed, falling back to text",
		"student_id", pass.StudentID, "pass_id", pass.PassID, "error", err.Error())

	fallback := fmt.Sprintf(
		"Dear %s,\nGate Pass for %s:\nPass ID: %s\nIssued: %s\nExpires: %s\nPayment: %.1f%%\nThis pass is valid only for %s. Do not share.",
		contact.FullName(), pass.StudentID, pass.PassID,
		pass.IssuedAt.Format("2006-01-02"), pass.ExpiresAt.Format("2006-01-02"),
		percent, pass.WhatsAppNumber,
	)
	sid, err = s.gateway.SendText(pass.WhatsAppNumber, fallback)
	if err != nil {
		slog.Error("gate pass fallback text failed",
			"student_id", pass.StudentID, "pass_id", pass.PassID, "error", err.Error())
		return DeliveryFailed
	}
	s.recordSID(pass, sid)
	slog.Info("fallback text gate pass sent",
		"student_id", pass.StudentID, "pass_id", pass.PassID, "to", pass.WhatsAppNumber)
	return DeliveryFallback
}

func (s *EntitlementService) recordSID(pass *models.GatePass, sid string) {
	if sid == "" {
		return
	}
	pass.MessageSID = &sid
	if err := s.db.Model(pass).Update("message_sid", sid).Error; err != nil {
		slog.Error("failed to record message sid", "pass_id", pass.PassID, "error", err.Error())
	}
}
