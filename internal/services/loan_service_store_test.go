package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"elibrary/internal/apperror"
	"elibrary/internal/database"
	"elibrary/internal/models"
	"elibrary/internal/repositories"
	"elibrary/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Every borrower passes the availability pre-check before any decrement
// lands, so only the guarded UPDATE keeps the counter from going negative.
func TestLoanService_ConcurrentBorrowsAgainstStore(t *testing.T) {
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	ctx := context.Background()

	users := repositories.NewGORMUserRepository(db)
	books := repositories.NewGORMBookRepository(db)
	loans := repositories.NewGORMLoanRepository(db)

	user := &models.User{Username: "frank", Email: "frank@x.com", PasswordHash: "h", Role: models.RoleUser, EmailVerified: true}
	require.NoError(t, users.Create(ctx, user))
	const copies, attempts = 2, 8
	book := &models.Book{Title: "Hyperion", Author: "Simmons", CopiesTotal: copies, CopiesAvailable: copies}
	require.NoError(t, books.Create(ctx, book, nil))

	service := services.NewLoanService(books, loans, 14*24*time.Hour)

	start := make(chan struct{})
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		borrowed int
		rejected int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := service.Borrow(ctx, user.ID, book.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				borrowed++
			case apperror.Is(err, apperror.StateError):
				rejected++
			default:
				t.Errorf("unexpected borrow error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, copies, borrowed)
	assert.Equal(t, attempts-copies, rejected)

	reloaded, err := books.GetByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.CopiesAvailable)

	active, err := service.ListActiveForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, active, copies)
}
