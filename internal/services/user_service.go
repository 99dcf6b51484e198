package services

import (
	"context"
	"errors"

	"elibrary/internal/apperror"
	"elibrary/internal/models"
	"elibrary/internal/repositories"

	"github.com/rs/zerolog/log"
)

// Profile is the caller's own account view.
type Profile struct {
	ID       string      `json:"id"`
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Role     models.Role `json:"role"`
}

// UserService serves account profile lookups.
type UserService struct {
	users repositories.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(users repositories.UserRepository) *UserService {
	return &UserService{users: users}
}

// Me returns the profile of userID.
func (s *UserService) Me(ctx context.Context, userID string) (*Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperror.NotFound("user not found", err)
		}
		log.Error().Err(err).Str("user_id", userID).Msg("failed to load profile")
		return nil, apperror.Dependency("profile is temporarily unavailable", err)
	}
	return &Profile{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	}, nil
}
