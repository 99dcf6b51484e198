package repositories

import (
	"context"
	"fmt"
	"time"

	"elibrary/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMLoanRepository is a GORM implementation of LoanRepository.
// Counter changes are conditional UPDATEs, so concurrent borrows can never
// drive copies_available below zero.
type GORMLoanRepository struct {
	db *gorm.DB
}

// NewGORMLoanRepository creates a new instance of GORMLoanRepository.
func NewGORMLoanRepository(db *gorm.DB) *GORMLoanRepository {
	return &GORMLoanRepository{
		db: db,
	}
}

// Borrow takes one copy of loan.BookID and records the loan.
func (r *GORMLoanRepository) Borrow(ctx context.Context, loan *models.Loan) error {
	if loan.ID == "" {
		loan.ID = uuid.New().String()
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Book{}).
			Where("id = ? AND copies_available > 0", loan.BookID).
			UpdateColumn("copies_available", gorm.Expr("copies_available - 1"))
		if res.Error != nil {
			return fmt.Errorf("failed to decrement copies for book %s: %w", loan.BookID, res.Error)
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.Book{}).Where("id = ?", loan.BookID).Count(&count).Error; err != nil {
				return fmt.Errorf("failed to look up book %s: %w", loan.BookID, err)
			}
			if count == 0 {
				return fmt.Errorf("book with ID %s: %w", loan.BookID, ErrNotFound)
			}
			return fmt.Errorf("book with ID %s: %w", loan.BookID, ErrNoCopiesAvailable)
		}

		if err := tx.Create(loan).Error; err != nil {
			return fmt.Errorf("failed to create loan: %w", translate(err))
		}
		return nil
	})
}

// Return closes an active loan owned by userID and puts the copy back.
// A loan that is unknown, owned by someone else or already returned yields
// ErrNotFound and leaves the counter untouched.
func (r *GORMLoanRepository) Return(ctx context.Context, loanID, userID string, returnedAt time.Time) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Loan{}).
			Where("id = ? AND user_id = ? AND returned_at IS NULL", loanID, userID).
			UpdateColumn("returned_at", returnedAt)
		if res.Error != nil {
			return fmt.Errorf("failed to close loan %s: %w", loanID, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("active loan with ID %s: %w", loanID, ErrNotFound)
		}

		if err := tx.First(&loan, "id = ?", loanID).Error; err != nil {
			return fmt.Errorf("failed to reload loan %s: %w", loanID, translate(err))
		}

		res = tx.Model(&models.Book{}).
			Where("id = ? AND copies_available < copies_total", loan.BookID).
			UpdateColumn("copies_available", gorm.Expr("copies_available + 1"))
		if res.Error != nil {
			return fmt.Errorf("failed to increment copies for book %s: %w", loan.BookID, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("book with ID %s: %w", loan.BookID, ErrCounterOutOfRange)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// ListActiveByUser lists the user's unreturned loans with book titles.
func (r *GORMLoanRepository) ListActiveByUser(ctx context.Context, userID string) ([]models.ActiveLoan, error) {
	loans := []models.ActiveLoan{}
	err := r.db.WithContext(ctx).
		Table("loans").
		Select("loans.id AS loan_id, loans.book_id, books.title, loans.borrowed_at, loans.due_at").
		Joins("JOIN books ON books.id = loans.book_id").
		Where("loans.user_id = ? AND loans.returned_at IS NULL", userID).
		Order("loans.due_at").
		Scan(&loans).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list loans for user %s: %w", userID, err)
	}
	return loans, nil
}

// ListReminderDue lists overdue, unreturned loans that have not been reminded.
func (r *GORMLoanRepository) ListReminderDue(ctx context.Context, now time.Time) ([]models.ReminderCandidate, error) {
	var candidates []models.ReminderCandidate
	err := r.db.WithContext(ctx).
		Table("loans").
		Select("loans.id AS loan_id, loans.user_id, users.username, users.email, loans.book_id, books.title, loans.due_at").
		Joins("JOIN users ON users.id = loans.user_id").
		Joins("JOIN books ON books.id = loans.book_id").
		Where("loans.reminder_sent = ? AND loans.due_at <= ? AND loans.returned_at IS NULL", false, now).
		Order("loans.due_at").
		Scan(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reminder-due loans: %w", err)
	}
	return candidates, nil
}

// MarkReminderSent sets the reminder flag on the given loans.
func (r *GORMLoanRepository) MarkReminderSent(ctx context.Context, loanIDs []string) error {
	if len(loanIDs) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Model(&models.Loan{}).
		Where("id IN ? AND reminder_sent = ?", loanIDs, false).
		UpdateColumn("reminder_sent", true).Error
	if err != nil {
		return fmt.Errorf("failed to mark reminders sent: %w", err)
	}
	return nil
}
