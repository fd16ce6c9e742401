package services

import (
	"log/slog"
)

// SyncSummary counts a batch profile sync.
type SyncSummary struct {
	Total   int
	Synced  int
	Skipped int
	Failed  int
}

// ProfileSyncService refreshes the contact directory from the billing
// provider's debt list. One student's failure never aborts the sweep.
type ProfileSyncService struct {
	billing  BillingAPI
	contacts *ContactService
}

func NewProfileSyncService(billingAPI BillingAPI, contacts *ContactService) *ProfileSyncService {
	return &ProfileSyncService{billing: billingAPI, contacts: contacts}
}

// SyncAll fetches every student on the debt list and upserts their contact
// from the provider profile.
func (s *ProfileSyncService) SyncAll() (*SyncSummary, error) {
	entries, err := s.billing.GetDebtList()
	if err != nil {
		return nil, err
	}

	summary := &SyncSummary{Total: len(entries)}
	for _, entry := range entries {
		studentID := entry.Student.StudentNumber
		if studentID == "" {
			summary.Skipped++
			continue
		}

		profile, err := s.billing.GetProfile(studentID)
		if err != nil {
			slog.Error("profile fetch failed during sync", "student_id", studentID, "error", err.Error())
			summary.Failed++
			continue
		}

		if _, err := s.contacts.SyncFromProfile(studentID, profile); err != nil {
			slog.Warn("profile sync skipped student", "student_id", studentID, "error", err.Error())
			summary.Skipped++
			continue
		}
		summary.Synced++
	}

	slog.Info("profile sync completed",
		"total", summary.Total, "synced", summary.Synced, "skipped", summary.Skipped, "failed", summary.Failed)
	return summary, nil
}
