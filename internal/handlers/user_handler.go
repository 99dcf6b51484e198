package handlers

import (
	"elibrary/internal/middleware"
	"elibrary/internal/services"

	"github.com/gofiber/fiber/v2"
)

// UserHandler serves the caller's own profile.
type UserHandler struct {
	service *services.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// RegisterRoutes registers the user routes. router must already require
// authentication.
func (h *UserHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/users/me", h.HandleMe)
}

// HandleMe returns the authenticated user's profile.
func (h *UserHandler) HandleMe(c *fiber.Ctx) error {
	profile, err := h.service.Me(c.UserContext(), middleware.UserIDFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}
