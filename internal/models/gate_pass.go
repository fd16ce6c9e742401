package models

import (
	"time"
)

// GatePass is a time-limited access credential bound to one student and one
// WhatsApp number. Rows are historical: a superseding issuance creates a new
// row, and the reconciler only ever clears artifact references.
type GatePass struct {
	ID             uint      `gorm:"primaryKey" json:"-"`
	PassID         string    `gorm:"size:36;not null;uniqueIndex:idx_gate_passes_pass_phone" json:"pass_id"`
	StudentID      string    `gorm:"size:50;not null;index" json:"student_id"`
	IssuedAt       time.Time `gorm:"not null" json:"issued_date"`
	ExpiresAt      time.Time `gorm:"not null;index" json:"expiry_date"`
	PaymentPercent int       `gorm:"not null" json:"payment_percentage"`
	WhatsAppNumber string    `gorm:"column:whatsapp_number;size:20;not null;uniqueIndex:idx_gate_passes_pass_phone" json:"whatsapp_number"`
	PDFPath        *string   `gorm:"size:255" json:"pdf_path,omitempty"`
	QRPath         *string   `gorm:"size:255" json:"qr_path,omitempty"`
	MessageSID     *string   `gorm:"column:message_sid;size:64;index" json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
