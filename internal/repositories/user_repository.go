package repositories

import (
	"context"

	"elibrary/internal/models"
)

// UserRepository defines the interface for user data access.
// Lookups are case-insensitive.
type UserRepository interface {
	// CreatePending persists a new unverified user together with its first
	// verification row in one transaction.
	CreatePending(ctx context.Context, user *models.User, verification *models.EmailVerification) error
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByUsernameOrEmail(ctx context.Context, key string) (*models.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
}

// VerificationRepository defines the interface for email verification rows.
type VerificationRepository interface {
	Create(ctx context.Context, verification *models.EmailVerification) error
	// Latest returns the most recently created row for the user and purpose.
	Latest(ctx context.Context, userID, purpose string) (*models.EmailVerification, error)
	IncrementAttempts(ctx context.Context, id string) error
	// Consume marks the owning user verified and deletes the row atomically.
	Consume(ctx context.Context, verification *models.EmailVerification) error
}
