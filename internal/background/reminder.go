// Package background contains tasks that run independently of HTTP requests.
package background

import (
	"context"
	"fmt"
	"time"

	"elibrary/internal/models"
	"elibrary/internal/repositories"
	"elibrary/internal/services"

	"github.com/rs/zerolog/log"
)

// ReminderSubject is the subject line of overdue reminders.
const ReminderSubject = "eLibrary return reminder"

// ReminderEvent is published for each reminder that was delivered.
type ReminderEvent struct {
	LoanID     string    `json:"loan_id"`
	UserID     string    `json:"user_id"`
	BookID     string    `json:"book_id"`
	DueAt      time.Time `json:"due_at"`
	RemindedAt time.Time `json:"reminded_at"`
}

// ReminderScheduler periodically emails borrowers of overdue loans. Each loan
// is reminded once; a failed delivery is retried on the next cycle.
type ReminderScheduler struct {
	loans     repositories.LoanRepository
	notifier  services.Notifier
	publisher services.EventPublisher
	interval  time.Duration
	now       func() time.Time
}

// NewReminderScheduler creates a scheduler that runs every interval.
func NewReminderScheduler(loans repositories.LoanRepository, notifier services.Notifier, interval time.Duration) *ReminderScheduler {
	return &ReminderScheduler{
		loans:    loans,
		notifier: notifier,
		interval: interval,
		now:      time.Now,
	}
}

// WithPublisher enables loan.reminded events.
func (s *ReminderScheduler) WithPublisher(p services.EventPublisher) *ReminderScheduler {
	s.publisher = p
	return s
}

// WithClock replaces the clock.
func (s *ReminderScheduler) WithClock(now func() time.Time) *ReminderScheduler {
	s.now = now
	return s
}

// Run executes a cycle immediately and then once per interval until ctx is
// cancelled. Cycles never overlap.
func (s *ReminderScheduler) Run(ctx context.Context) {
	log.Info().Dur("interval", s.interval).Msg("reminder scheduler started")
	defer log.Info().Msg("reminder scheduler stopped")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.RunOnce(ctx); err != nil {
			log.Error().Err(err).Msg("reminder cycle failed")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce performs one cycle and returns how many reminders were delivered.
// Per-loan delivery failures are logged, not returned.
func (s *ReminderScheduler) RunOnce(ctx context.Context) (sent int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reminder cycle panicked: %v", r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	now := s.now().UTC()
	due, err := s.loans.ListReminderDue(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list reminder-due loans: %w", err)
	}
	if len(due) == 0 {
		return 0, nil
	}

	var delivered []models.ReminderCandidate
	ids := make([]string, 0, len(due))
	for _, c := range due {
		if ctx.Err() != nil {
			break
		}
		if err := s.notifier.Send(ctx, c.Email, ReminderSubject, ReminderBody(c)); err != nil {
			log.Warn().Err(err).Str("loan_id", c.LoanID).Str("email", c.Email).Msg("failed to send reminder, will retry")
			continue
		}
		delivered = append(delivered, c)
		ids = append(ids, c.LoanID)
		log.Info().Str("loan_id", c.LoanID).Str("email", c.Email).Str("book", c.Title).Msg("reminder sent")
	}

	// Delivered reminders are flagged even when ctx was cancelled mid-cycle.
	if err := s.loans.MarkReminderSent(context.WithoutCancel(ctx), ids); err != nil {
		return 0, fmt.Errorf("failed to mark %d reminders sent: %w", len(ids), err)
	}

	for _, c := range delivered {
		s.publish(ReminderEvent{LoanID: c.LoanID, UserID: c.UserID, BookID: c.BookID, DueAt: c.DueAt, RemindedAt: now})
	}
	return len(delivered), nil
}

// ReminderBody renders the reminder text for one overdue loan.
func ReminderBody(c models.ReminderCandidate) string {
	return fmt.Sprintf(
		"Hi %s,\n\nThis is a reminder to return '%s' which was due on %s.\n\nThank you,\nYour eLibrary",
		c.Username, c.Title, c.DueAt.UTC().Format("2006-01-02"),
	)
}

func (s *ReminderScheduler) publish(event ReminderEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishJSON(services.EventLoanReminded, event); err != nil {
		log.Warn().Err(err).Str("loan_id", event.LoanID).Msg("failed to publish reminder event")
	}
}
