// Package scheduler runs the periodic sweeps: profile sync, balance
// reminders and payment checks. Each sweep invokes the same per-student
// operations the HTTP surface exposes, with per-student failure isolation.
package scheduler

import (
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
	"github.com/shiningsmiles/gatepass-bridge/internal/services"
)

type Config struct {
	ProfileSyncSpec  string
	ReminderSpec     string
	PaymentSweepSpec string
	Term             string
}

type Scheduler struct {
	cron        *cron.Cron
	cfg         Config
	billing     services.BillingAPI
	profileSync *services.ProfileSyncService
	reminders   *services.ReminderService
	payments    *services.PaymentService
}

func New(
	cfg Config,
	billing services.BillingAPI,
	profileSync *services.ProfileSyncService,
	reminders *services.ReminderService,
	payments *services.PaymentService,
) *Scheduler {
	return &Scheduler{
		cron:        cron.New(),
		cfg:         cfg,
		billing:     billing,
		profileSync: profileSync,
		reminders:   reminders,
		payments:    payments,
	}
}

// Start registers the jobs and starts the cron runner.
func (s *Scheduler) Start() error {
	jobs := []struct {
		name string
		spec string
		fn   func()
	}{
		{"profile sync", s.cfg.ProfileSyncSpec, s.runProfileSync},
		{"reminder sweep", s.cfg.ReminderSpec, s.runReminderSweep},
		{"payment sweep", s.cfg.PaymentSweepSpec, s.runPaymentSweep},
	}
	for _, job := range jobs {
		if _, err := s.cron.AddFunc(job.spec, job.fn); err != nil {
			return fmt.Errorf("failed to schedule %s (%q): %w", job.name, job.spec, err)
		}
	}
	s.cron.Start()
	slog.Info("scheduler started", "jobs", len(jobs))
	return nil
}

// Stop halts the runner, waiting for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	slog.Info("scheduler stopped")
}

func (s *Scheduler) runProfileSync() {
	if _, err := s.profileSync.SyncAll(); err != nil {
		slog.Error("scheduled profile sync failed", "error", err.Error())
	}
}

func (s *Scheduler) runReminderSweep() {
	entries, err := s.billing.GetDebtList()
	if err != nil {
		slog.Error("reminder sweep could not fetch debt list", "error", err.Error())
		return
	}
	sent := 0
	for _, entry := range entries {
		studentID := entry.Student.StudentNumber
		if studentID == "" {
			continue
		}
		result, err := s.reminders.SendBalanceReminder(studentID, s.cfg.Term, "")
		if err != nil {
			slog.Error("reminder sweep failed for student", "student_id", studentID, "error", err.Error())
			continue
		}
		if result.Notified {
			sent++
		}
	}
	slog.Info("reminder sweep completed", "students", len(entries), "sent", sent)
}

func (s *Scheduler) runPaymentSweep() {
	entries, err := s.billing.GetDebtList()
	if err != nil {
		slog.Error("payment sweep could not fetch debt list", "error", err.Error())
		return
	}
	sent := 0
	for _, entry := range entries {
		studentID := entry.Student.StudentNumber
		if studentID == "" {
			continue
		}
		result, err := s.payments.CheckNewPayments(studentID, s.cfg.Term, "")
		if err != nil {
			slog.Error("payment sweep failed for student", "student_id", studentID, "error", err.Error())
			continue
		}
		if result.Notified {
			sent++
		}
	}
	slog.Info("payment sweep completed", "students", len(entries), "sent", sent)
}
