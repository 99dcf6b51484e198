package middleware_test

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"elibrary/internal/middleware"
	"elibrary/internal/models"
	"elibrary/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupApp(tokens *services.TokenService) *fiber.App {
	app := fiber.New()
	app.Get("/me", middleware.AuthRequired(tokens), func(c *fiber.Ctx) error {
		return c.SendString(middleware.UserIDFrom(c) + "|" + string(middleware.RoleFrom(c)))
	})
	app.Post("/admin", middleware.AuthRequired(tokens), middleware.RequireCatalogManager(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestAuthRequired(t *testing.T) {
	tokens := services.NewTokenService("0123456789abcdef0123456789abcdef", "elibrary", "elibrary-clients", time.Minute)
	app := setupApp(tokens)
	token, _, err := tokens.Issue("user-1", "alice", models.RoleUser)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Basic abc", fiber.StatusUnauthorized},
		{"garbage token", "Bearer not-a-token", fiber.StatusUnauthorized},
		{"valid token", "Bearer " + token, fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.status == fiber.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				assert.Equal(t, "user-1|User", string(body))
			}
		})
	}
}

func TestRequireCatalogManager(t *testing.T) {
	tokens := services.NewTokenService("0123456789abcdef0123456789abcdef", "elibrary", "elibrary-clients", time.Minute)
	app := setupApp(tokens)

	for role, status := range map[models.Role]int{
		models.RoleUser:  fiber.StatusForbidden,
		models.RoleAdmin: fiber.StatusNoContent,
	} {
		token, _, err := tokens.Issue("user-1", "someone", role)
		require.NoError(t, err)
		req := httptest.NewRequest(fiber.MethodPost, "/admin", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, status, resp.StatusCode, string(role))
	}
}
