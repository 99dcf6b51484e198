package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"elibrary/internal/apperror"
	"elibrary/internal/models"
	"elibrary/internal/repositories"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// MsgNotAvailable is returned when a book has no free copies.
const MsgNotAvailable = "not available"

// LoanEvent is the payload published for loan lifecycle events.
type LoanEvent struct {
	LoanID     string     `json:"loan_id"`
	UserID     string     `json:"user_id"`
	BookID     string     `json:"book_id"`
	DueAt      time.Time  `json:"due_at"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// LoanService manages borrowing and returning books.
type LoanService struct {
	books      repositories.BookRepository
	loans      repositories.LoanRepository
	loanPeriod time.Duration
	publisher  EventPublisher
	now        func() time.Time
}

// NewLoanService creates a new LoanService. Loans are due loanPeriod after
// they are borrowed.
func NewLoanService(books repositories.BookRepository, loans repositories.LoanRepository, loanPeriod time.Duration) *LoanService {
	return &LoanService{
		books:      books,
		loans:      loans,
		loanPeriod: loanPeriod,
		now:        time.Now,
	}
}

// WithPublisher enables loan lifecycle events.
func (s *LoanService) WithPublisher(p EventPublisher) *LoanService {
	s.publisher = p
	return s
}

// WithClock replaces the clock.
func (s *LoanService) WithClock(now func() time.Time) *LoanService {
	s.now = now
	return s
}

// Borrow takes one copy of bookID for userID.
func (s *LoanService) Borrow(ctx context.Context, userID, bookID string) (*models.Loan, error) {
	bookID = strings.TrimSpace(bookID)
	if bookID == "" {
		return nil, apperror.Validation("book id required")
	}

	book, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperror.NotFound("book not found", err)
		}
		log.Error().Err(err).Str("book_id", bookID).Msg("failed to fetch book for borrow")
		return nil, apperror.Dependency("borrowing is temporarily unavailable", err)
	}
	if book.CopiesAvailable <= 0 {
		return nil, apperror.State(MsgNotAvailable, nil)
	}

	now := s.now().UTC()
	loan := &models.Loan{
		ID:         uuid.New().String(),
		UserID:     userID,
		BookID:     book.ID,
		BorrowedAt: now,
		DueAt:      now.Add(s.loanPeriod),
	}
	if err := s.loans.Borrow(ctx, loan); err != nil {
		switch {
		case errors.Is(err, repositories.ErrNoCopiesAvailable):
			return nil, apperror.State(MsgNotAvailable, err)
		case errors.Is(err, repositories.ErrNotFound):
			return nil, apperror.NotFound("book not found", err)
		}
		log.Error().Err(err).Str("book_id", bookID).Str("user_id", userID).Msg("failed to borrow book")
		return nil, apperror.Dependency("borrowing is temporarily unavailable", err)
	}

	log.Info().Str("loan_id", loan.ID).Str("book_id", book.ID).Str("user_id", userID).Msg("book borrowed")
	s.publish(EventLoanBorrowed, LoanEvent{
		LoanID:     loan.ID,
		UserID:     loan.UserID,
		BookID:     loan.BookID,
		DueAt:      loan.DueAt,
		OccurredAt: now,
	})
	return loan, nil
}

// Return closes loanID if it is active and owned by userID.
func (s *LoanService) Return(ctx context.Context, loanID, userID string) (*models.Loan, error) {
	loanID = strings.TrimSpace(loanID)
	if loanID == "" {
		return nil, apperror.Validation("loan id required")
	}

	now := s.now().UTC()
	loan, err := s.loans.Return(ctx, loanID, userID, now)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperror.NotFound("loan not found", err)
		}
		log.Error().Err(err).Str("loan_id", loanID).Str("user_id", userID).Msg("failed to return loan")
		return nil, apperror.Dependency("returning is temporarily unavailable", err)
	}

	log.Info().Str("loan_id", loan.ID).Str("book_id", loan.BookID).Str("user_id", userID).Msg("book returned")
	s.publish(EventLoanReturned, LoanEvent{
		LoanID:     loan.ID,
		UserID:     loan.UserID,
		BookID:     loan.BookID,
		DueAt:      loan.DueAt,
		ReturnedAt: loan.ReturnedAt,
		OccurredAt: now,
	})
	return loan, nil
}

// ListActiveForUser lists the user's unreturned loans.
func (s *LoanService) ListActiveForUser(ctx context.Context, userID string) ([]models.ActiveLoan, error) {
	loans, err := s.loans.ListActiveByUser(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to list loans")
		return nil, apperror.Dependency("loans are temporarily unavailable", err)
	}
	return loans, nil
}

// publish is best-effort; the loan is already committed.
func (s *LoanService) publish(routingKey string, event LoanEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishJSON(routingKey, event); err != nil {
		log.Warn().Err(err).Str("routing_key", routingKey).Str("loan_id", event.LoanID).Msg("failed to publish loan event")
	}
}
