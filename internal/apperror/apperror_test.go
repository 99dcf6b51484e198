package apperror_test

import (
	"errors"
	"fmt"
	"testing"

	"elibrary/internal/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		err  *apperror.AppError
		want int
	}{
		{apperror.Validation("bad"), fiber.StatusBadRequest},
		{apperror.State("not available", nil), fiber.StatusBadRequest},
		{apperror.Conflict("user exists", nil), fiber.StatusConflict},
		{apperror.Authentication("invalid credentials"), fiber.StatusUnauthorized},
		{apperror.EmailNotVerified("confirm first"), fiber.StatusForbidden},
		{apperror.Forbidden("admins only"), fiber.StatusForbidden},
		{apperror.NotFound("loan not found", nil), fiber.StatusNotFound},
		{apperror.Dependency("mail down", cause), fiber.StatusServiceUnavailable},
		{apperror.Internal("oops", cause), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.StatusCode(), tt.err.Message)
	}
}

func TestWrappingAndClassification(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("borrow: %w", apperror.Dependency("store unavailable", cause))

	assert.True(t, apperror.Is(err, apperror.DependencyError))
	assert.False(t, apperror.Is(err, apperror.NotFoundError))
	assert.Equal(t, apperror.DependencyError, apperror.TypeOf(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")

	assert.Equal(t, apperror.InternalError, apperror.TypeOf(errors.New("plain")))
}

func TestPublic(t *testing.T) {
	assert.True(t, apperror.Validation("x").Public())
	assert.False(t, apperror.Dependency("x", nil).Public())
	assert.False(t, apperror.Internal("x", nil).Public())
}
