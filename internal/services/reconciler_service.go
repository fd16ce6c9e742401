package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/shiningsmiles/gatepass-bridge/internal/models"
	"github.com/shiningsmiles/gatepass-bridge/internal/storage"
	"gorm.io/gorm"
)

var terminalStatuses = map[string]bool{
	"delivered":   true,
	"failed":      true,
	"undelivered": true,
}

// ReconcilerService consumes asynchronous delivery outcomes and releases the
// transient artifacts of the matched gate pass. Correlation is best effort:
// an exact match on the recorded message SID is tried first, then a fuzzy
// match of the SID tail against pass ids. A miss is a silent no-op — the
// provider gives us nothing stronger to join on.
type ReconcilerService struct {
	db    *gorm.DB
	store storage.ArtifactStore
}

func NewReconcilerService(db *gorm.DB, store storage.ArtifactStore) *ReconcilerService {
	return &ReconcilerService{db: db, store: store}
}

// HandleStatus processes one delivery-status callback. Cleanup only: expiry,
// percentage and validity are never touched.
func (s *ReconcilerService) HandleStatus(ctx context.Context, messageSID, status string) error {
	if !terminalStatuses[status] {
		slog.Debug("ignoring non-terminal delivery status", "sid", messageSID, "status", status)
		return nil
	}

	pass, ok := s.correlate(messageSID)
	if !ok {
		slog.Debug("no gate pass matched delivery status", "sid", messageSID)
		return nil
	}

	s.releaseArtifacts(ctx, pass)

	if err := s.db.Model(pass).Updates(map[string]interface{}{
		"pdf_path": nil,
		"qr_path":  nil,
	}).Error; err != nil {
		return err
	}
	slog.Info("gate pass artifacts released", "sid", messageSID, "pass_id", pass.PassID, "status", status)
	return nil
}

func (s *ReconcilerService) correlate(messageSID string) (*models.GatePass, bool) {
	var pass models.GatePass

	err := s.db.Where("message_sid = ?", messageSID).First(&pass).Error
	if err == nil {
		return &pass, true
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		slog.Error("gate pass correlation query failed", "sid", messageSID, "error", err.Error())
		return nil, false
	}

	// Legacy fuzzy fallback for passes sent before SIDs were recorded.
	if len(messageSID) < 10 {
		return nil, false
	}
	tail := messageSID[len(messageSID)-10:]
	err = s.db.Where("LOWER(pass_id) LIKE LOWER(?)", "%"+tail+"%").First(&pass).Error
	if err != nil {
		return nil, false
	}
	return &pass, true
}

// releaseArtifacts deletes the rendered document and QR image. Keys under
// the durable-storage prefix go to the object store, anything else is a
// local transient file. Deletion failures are logged, not propagated; the
// reference clearing still proceeds.
func (s *ReconcilerService) releaseArtifacts(ctx context.Context, pass *models.GatePass) {
	for _, ref := range []*string{pass.PDFPath, pass.QRPath} {
		if ref == nil || *ref == "" {
			continue
		}
		if strings.HasPrefix(*ref, "gatepasses/") {
			if err := s.store.Delete(ctx, *ref); err != nil {
				slog.Error("artifact delete failed", "pass_id", pass.PassID, "key", *ref, "error", err.Error())
			}
			continue
		}
		if err := os.Remove(*ref); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Error("temp artifact delete failed", "pass_id", pass.PassID, "path", *ref, "error", err.Error())
		}
	}
}
