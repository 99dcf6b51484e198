package handlers

import (
	"elibrary/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for registration and authentication.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/confirm-email", h.HandleConfirmEmail)
	authRoutes.Post("/resend-code", h.HandleResendCode)
	authRoutes.Post("/login", h.HandleLogin)
}

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required"`
}

// HandleRegister creates a pending account and emails a verification code.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}

	if _, err := h.authService.Register(c.UserContext(), req.Username, req.Email, req.Password); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": services.MsgVerificationSent,
	})
}

// ConfirmEmailRequest represents the request body for email confirmation.
type ConfirmEmailRequest struct {
	Email string `json:"email" validate:"required"`
	Code  string `json:"code" validate:"required"`
}

// HandleConfirmEmail consumes a verification code.
func (h *AuthHandler) HandleConfirmEmail(c *fiber.Ctx) error {
	var req ConfirmEmailRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}

	message, err := h.authService.ConfirmEmail(c.UserContext(), req.Email, req.Code)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": message,
	})
}

// ResendCodeRequest represents the request body for a new verification code.
type ResendCodeRequest struct {
	Email string `json:"email" validate:"required"`
}

// HandleResendCode issues a fresh verification code.
func (h *AuthHandler) HandleResendCode(c *fiber.Ctx) error {
	var req ResendCodeRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}

	message, err := h.authService.ResendVerification(c.UserContext(), req.Email)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": message,
	})
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	UsernameOrEmail string `json:"username_or_email" validate:"required"`
	Password        string `json:"password" validate:"required"`
}

// HandleLogin handles user login and issues a bearer token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}

	result, err := h.authService.Login(c.UserContext(), req.UsernameOrEmail, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}
