package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"elibrary/internal/apperror"
	"elibrary/internal/models"
	"elibrary/internal/repositories"
	"elibrary/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var loanNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newLoanService(books *MockBookRepository, loans *MockLoanRepository) *services.LoanService {
	return services.NewLoanService(books, loans, 14*24*time.Hour).
		WithClock(func() time.Time { return loanNow })
}

func TestLoanService_Borrow(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		books, loans, publisher := new(MockBookRepository), new(MockLoanRepository), new(MockPublisher)
		service := newLoanService(books, loans).WithPublisher(publisher)

		books.On("GetByID", ctx, "book-1").Return(&models.Book{ID: "book-1", CopiesTotal: 2, CopiesAvailable: 1}, nil).Once()
		loans.On("Borrow", ctx, mock.MatchedBy(func(l *models.Loan) bool {
			return l.UserID == "user-1" && l.BookID == "book-1" &&
				l.BorrowedAt.Equal(loanNow) && l.DueAt.Equal(loanNow.Add(14*24*time.Hour)) &&
				l.ReturnedAt == nil && !l.ReminderSent
		})).Return(nil).Once()
		publisher.On("PublishJSON", services.EventLoanBorrowed, mock.AnythingOfType("services.LoanEvent")).Return(nil).Once()

		loan, err := service.Borrow(ctx, "user-1", "book-1")
		require.NoError(t, err)
		assert.NotEmpty(t, loan.ID)
		books.AssertExpectations(t)
		loans.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})

	t.Run("unknown book", func(t *testing.T) {
		books, loans := new(MockBookRepository), new(MockLoanRepository)
		books.On("GetByID", ctx, "missing").Return(nil, fmt.Errorf("book: %w", repositories.ErrNotFound)).Once()

		_, err := newLoanService(books, loans).Borrow(ctx, "user-1", "missing")
		assert.True(t, apperror.Is(err, apperror.NotFoundError))
		loans.AssertNotCalled(t, "Borrow", mock.Anything, mock.Anything)
	})

	t.Run("no copies", func(t *testing.T) {
		books, loans := new(MockBookRepository), new(MockLoanRepository)
		books.On("GetByID", ctx, "book-1").Return(&models.Book{ID: "book-1", CopiesTotal: 1}, nil).Once()

		_, err := newLoanService(books, loans).Borrow(ctx, "user-1", "book-1")
		assert.True(t, apperror.Is(err, apperror.StateError))
		assert.EqualError(t, err, services.MsgNotAvailable)
		loans.AssertNotCalled(t, "Borrow", mock.Anything, mock.Anything)
	})

	t.Run("lost the race for the last copy", func(t *testing.T) {
		books, loans := new(MockBookRepository), new(MockLoanRepository)
		books.On("GetByID", ctx, "book-1").Return(&models.Book{ID: "book-1", CopiesTotal: 1, CopiesAvailable: 1}, nil).Once()
		loans.On("Borrow", ctx, mock.Anything).Return(fmt.Errorf("book: %w", repositories.ErrNoCopiesAvailable)).Once()

		_, err := newLoanService(books, loans).Borrow(ctx, "user-1", "book-1")
		assert.True(t, apperror.Is(err, apperror.StateError))
	})

	t.Run("store failure", func(t *testing.T) {
		books, loans := new(MockBookRepository), new(MockLoanRepository)
		books.On("GetByID", ctx, "book-1").Return(&models.Book{ID: "book-1", CopiesTotal: 1, CopiesAvailable: 1}, nil).Once()
		loans.On("Borrow", ctx, mock.Anything).Return(errors.New("disk full")).Once()

		_, err := newLoanService(books, loans).Borrow(ctx, "user-1", "book-1")
		assert.True(t, apperror.Is(err, apperror.DependencyError))
	})

	t.Run("publish failure does not fail the borrow", func(t *testing.T) {
		books, loans, publisher := new(MockBookRepository), new(MockLoanRepository), new(MockPublisher)
		books.On("GetByID", ctx, "book-1").Return(&models.Book{ID: "book-1", CopiesTotal: 1, CopiesAvailable: 1}, nil).Once()
		loans.On("Borrow", ctx, mock.Anything).Return(nil).Once()
		publisher.On("PublishJSON", services.EventLoanBorrowed, mock.Anything).Return(errors.New("channel closed")).Once()

		_, err := newLoanService(books, loans).WithPublisher(publisher).Borrow(ctx, "user-1", "book-1")
		assert.NoError(t, err)
	})
}

func TestLoanService_Return(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		books, loans, publisher := new(MockBookRepository), new(MockLoanRepository), new(MockPublisher)
		returned := loanNow
		loans.On("Return", ctx, "loan-1", "user-1", loanNow).
			Return(&models.Loan{ID: "loan-1", UserID: "user-1", BookID: "book-1", ReturnedAt: &returned}, nil).Once()
		publisher.On("PublishJSON", services.EventLoanReturned, mock.MatchedBy(func(e services.LoanEvent) bool {
			return e.LoanID == "loan-1" && e.ReturnedAt != nil
		})).Return(nil).Once()

		loan, err := newLoanService(books, loans).WithPublisher(publisher).Return(ctx, "loan-1", "user-1")
		require.NoError(t, err)
		assert.False(t, loan.Active())
		loans.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})

	t.Run("not found, not owned or already returned", func(t *testing.T) {
		books, loans := new(MockBookRepository), new(MockLoanRepository)
		loans.On("Return", ctx, "loan-1", "user-2", loanNow).
			Return(nil, fmt.Errorf("loan: %w", repositories.ErrNotFound)).Once()

		_, err := newLoanService(books, loans).Return(ctx, "loan-1", "user-2")
		assert.True(t, apperror.Is(err, apperror.NotFoundError))
	})

	t.Run("blank id", func(t *testing.T) {
		_, err := newLoanService(new(MockBookRepository), new(MockLoanRepository)).Return(ctx, " ", "user-1")
		assert.True(t, apperror.Is(err, apperror.ValidationError))
	})
}

func TestLoanService_ListActiveForUser(t *testing.T) {
	ctx := context.Background()
	books, loans := new(MockBookRepository), new(MockLoanRepository)
	active := []models.ActiveLoan{{LoanID: "loan-1", Title: "Dune", DueAt: loanNow}}
	loans.On("ListActiveByUser", ctx, "user-1").Return(active, nil).Once()
	loans.On("ListActiveByUser", ctx, "user-2").Return(nil, errors.New("timeout")).Once()

	service := newLoanService(books, loans)
	got, err := service.ListActiveForUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, active, got)

	_, err = service.ListActiveForUser(ctx, "user-2")
	assert.True(t, apperror.Is(err, apperror.DependencyError))
}
