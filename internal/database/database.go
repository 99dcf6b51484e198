package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"elibrary/internal/models"
	"elibrary/internal/repositories"
	"elibrary/pkg/security"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to the configured store. driver is "postgres" or "sqlite".
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite" {
		// SQLite allows a single writer.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Migrate creates or updates the schema for every entity.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.EmailVerification{},
		&models.Genre{},
		&models.Book{},
		&models.Loan{},
	); err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return nil
}

// SeedAdmin makes sure the "admin" account exists, is verified and has the
// Admin role. An existing admin keeps its password.
func SeedAdmin(ctx context.Context, users repositories.UserRepository, email, password string) error {
	admin, err := users.GetByUsername(ctx, "admin")
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		hash, err := security.HashPassword(password)
		if err != nil {
			return fmt.Errorf("failed to hash admin password: %w", err)
		}
		admin = &models.User{
			ID:            uuid.New().String(),
			Username:      "admin",
			Email:         email,
			PasswordHash:  hash,
			Role:          models.RoleAdmin,
			EmailVerified: true,
			CreatedAt:     time.Now().UTC(),
		}
		if err := users.Create(ctx, admin); err != nil {
			return fmt.Errorf("failed to seed admin: %w", err)
		}
		log.Info().Str("email", email).Msg("seeded admin user")
		return nil
	case err != nil:
		return fmt.Errorf("failed to look up admin: %w", err)
	}

	if admin.EmailVerified && admin.Role == models.RoleAdmin {
		return nil
	}
	admin.EmailVerified = true
	admin.Role = models.RoleAdmin
	if err := users.Update(ctx, admin); err != nil {
		return fmt.Errorf("failed to repair admin: %w", err)
	}
	log.Info().Msg("repaired admin user flags")
	return nil
}

// OpenMemory opens a private, migrated in-memory SQLite database.
func OpenMemory() (*gorm.DB, error) {
	db, err := Open("sqlite", "file:"+uuid.New().String()+"?mode=memory&cache=shared")
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
