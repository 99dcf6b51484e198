package repositories

import (
	"context"
	"fmt"

	"elibrary/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMVerificationRepository is a GORM implementation of VerificationRepository.
type GORMVerificationRepository struct {
	db *gorm.DB
}

// NewGORMVerificationRepository creates a new instance of GORMVerificationRepository.
func NewGORMVerificationRepository(db *gorm.DB) *GORMVerificationRepository {
	return &GORMVerificationRepository{
		db: db,
	}
}

// Create appends a new verification row. Existing rows are left in place.
func (r *GORMVerificationRepository) Create(ctx context.Context, verification *models.EmailVerification) error {
	if verification.ID == "" {
		verification.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(verification).Error; err != nil {
		return fmt.Errorf("failed to create verification: %w", translate(err))
	}
	return nil
}

// Latest returns the newest verification row for the user and purpose.
func (r *GORMVerificationRepository) Latest(ctx context.Context, userID, purpose string) (*models.EmailVerification, error) {
	var verification models.EmailVerification
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND purpose = ?", userID, purpose).
		Order("created_at DESC").
		First(&verification).Error
	if err != nil {
		return nil, fmt.Errorf("verification for user %s: %w", userID, translate(err))
	}
	return &verification, nil
}

// IncrementAttempts records one failed code submission.
func (r *GORMVerificationRepository) IncrementAttempts(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&models.EmailVerification{}).
		Where("id = ?", id).
		UpdateColumn("attempts", gorm.Expr("attempts + 1"))
	if res.Error != nil {
		return fmt.Errorf("failed to increment attempts: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("verification with ID %s: %w", id, ErrNotFound)
	}
	return nil
}

// Consume flips the user's verified flag and deletes the verification row.
// Both writes commit together or not at all.
func (r *GORMVerificationRepository) Consume(ctx context.Context, verification *models.EmailVerification) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ? AND email_verified = ?", verification.UserID, false).
			UpdateColumn("email_verified", true)
		if res.Error != nil {
			return fmt.Errorf("failed to verify user %s: %w", verification.UserID, res.Error)
		}
		if res.RowsAffected == 0 {
			// Lost a race with a concurrent confirmation, or the user is gone.
			var count int64
			if err := tx.Model(&models.User{}).Where("id = ?", verification.UserID).Count(&count).Error; err != nil {
				return fmt.Errorf("failed to look up user %s: %w", verification.UserID, err)
			}
			if count == 0 {
				return fmt.Errorf("user with ID %s: %w", verification.UserID, ErrNotFound)
			}
			return ErrAlreadyVerified
		}

		res = tx.Delete(&models.EmailVerification{}, "id = ?", verification.ID)
		if res.Error != nil {
			return fmt.Errorf("failed to consume verification: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("verification with ID %s: %w", verification.ID, ErrNotFound)
		}
		return nil
	})
}
