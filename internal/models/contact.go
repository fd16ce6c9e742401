package models

import (
	"time"

	"github.com/google/uuid"
)

// Contact is the cached guardian/student contact record. PreferredPhone is
// the single number all messages and gate passes are bound to, always stored
// in international format.
type Contact struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID      string    `gorm:"size:50;not null;uniqueIndex" json:"student_id"`
	Firstname      string    `gorm:"size:100" json:"firstname"`
	Lastname       string    `gorm:"size:100" json:"lastname"`
	StudentMobile  string    `gorm:"size:20" json:"student_mobile"`
	GuardianMobile string    `gorm:"size:20" json:"guardian_mobile_number"`
	PreferredPhone string    `gorm:"size:20;not null;index" json:"preferred_phone_number"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"last_updated"`
}

// FullName renders "Firstname Lastname" with N/A placeholders, matching the
// wording used on the printed pass.
func (c *Contact) FullName() string {
	first, last := c.Firstname, c.Lastname
	if first == "" {
		first = "N/A"
	}
	if last == "" {
		last = "N/A"
	}
	return first + " " + last
}
