package repositories

import (
	"context"
	"time"

	"elibrary/internal/models"
)

// BookFilter narrows a catalog listing. Zero values match everything.
type BookFilter struct {
	Query   string
	GenreID string
}

// BookRepository defines the interface for catalog data access.
// Copy counters are only changed through LoanRepository.
type BookRepository interface {
	GetAll(ctx context.Context, filter BookFilter) ([]models.Book, error)
	GetByID(ctx context.Context, id string) (*models.Book, error)
	Create(ctx context.Context, book *models.Book, genreIDs []string) error
}

// GenreRepository defines the interface for genre data access.
type GenreRepository interface {
	GetAll(ctx context.Context) ([]models.Genre, error)
	Create(ctx context.Context, genre *models.Genre) error
}

// LoanRepository defines the interface for loan data access. Borrow and
// Return each apply a counter change and a loan change as one atomic unit.
type LoanRepository interface {
	// Borrow decrements the book's available count, conditioned on it being
	// positive, and inserts loan in the same transaction.
	Borrow(ctx context.Context, loan *models.Loan) error
	// Return closes the active loan owned by userID and increments the
	// book's available count in the same transaction.
	Return(ctx context.Context, loanID, userID string, returnedAt time.Time) (*models.Loan, error)
	ListActiveByUser(ctx context.Context, userID string) ([]models.ActiveLoan, error)
	// ListReminderDue returns active loans due at or before now whose
	// reminder has not been sent.
	ListReminderDue(ctx context.Context, now time.Time) ([]models.ReminderCandidate, error)
	MarkReminderSent(ctx context.Context, loanIDs []string) error
}
