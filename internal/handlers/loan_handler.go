package handlers

import (
	"elibrary/internal/middleware"
	"elibrary/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// LoanHandler handles HTTP requests for borrowing and returning books.
type LoanHandler struct {
	service  *services.LoanService
	validate *validator.Validate
}

// NewLoanHandler creates a new LoanHandler.
func NewLoanHandler(service *services.LoanService) *LoanHandler {
	return &LoanHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the loan routes. router must already require
// authentication.
func (h *LoanHandler) RegisterRoutes(router fiber.Router) {
	loanRoutes := router.Group("/borrows")
	loanRoutes.Post("/", h.HandleBorrow)
	loanRoutes.Get("/my", h.HandleMyLoans)
	loanRoutes.Post("/:id/return", h.HandleReturn)
}

// BorrowRequest represents the request body for borrowing a book.
type BorrowRequest struct {
	BookID string `json:"book_id" validate:"required"`
}

// HandleBorrow borrows one copy for the authenticated user.
func (h *LoanHandler) HandleBorrow(c *fiber.Ctx) error {
	var req BorrowRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}

	loan, err := h.service.Borrow(c.UserContext(), middleware.UserIDFrom(c), req.BookID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "borrowed",
		"loan":    loan,
	})
}

// HandleReturn returns a loan owned by the authenticated user.
func (h *LoanHandler) HandleReturn(c *fiber.Ctx) error {
	if _, err := h.service.Return(c.UserContext(), c.Params("id"), middleware.UserIDFrom(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "returned",
	})
}

// HandleMyLoans lists the authenticated user's active loans.
func (h *LoanHandler) HandleMyLoans(c *fiber.Ctx) error {
	loans, err := h.service.ListActiveForUser(c.UserContext(), middleware.UserIDFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(loans)
}
