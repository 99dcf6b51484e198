package handlers

import (
	"elibrary/internal/middleware"
	"elibrary/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CatalogHandler handles HTTP requests for books and genres.
type CatalogHandler struct {
	service  *services.CatalogService
	validate *validator.Validate
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(service *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the catalog routes. router must already require
// authentication; writes additionally require the admin role.
func (h *CatalogHandler) RegisterRoutes(router fiber.Router) {
	bookRoutes := router.Group("/books")
	bookRoutes.Get("/", h.HandleGetBooks)
	bookRoutes.Get("/:id", h.HandleGetBookByID)
	bookRoutes.Post("/", middleware.RequireCatalogManager(), h.HandleCreateBook)

	genreRoutes := router.Group("/genres")
	genreRoutes.Get("/", h.HandleGetGenres)
	genreRoutes.Post("/", middleware.RequireCatalogManager(), h.HandleCreateGenre)
}

// HandleGetBooks lists books, filtered by ?q= and ?genreId=.
func (h *CatalogHandler) HandleGetBooks(c *fiber.Ctx) error {
	books, err := h.service.ListBooks(c.UserContext(), c.Query("q"), c.Query("genreId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(books)
}

// HandleGetBookByID retrieves a single book by its ID.
func (h *CatalogHandler) HandleGetBookByID(c *fiber.Ctx) error {
	book, err := h.service.GetBook(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(book)
}

// CreateBookRequest represents the request body for a new book.
type CreateBookRequest struct {
	Title           string   `json:"title" validate:"required,max=255"`
	Author          string   `json:"author" validate:"required,max=255"`
	CopiesTotal     int      `json:"copies_total" validate:"gte=0"`
	CopiesAvailable int      `json:"copies_available" validate:"gte=0,ltefield=CopiesTotal"`
	GenreIDs        []string `json:"genre_ids" validate:"unique"`
}

// HandleCreateBook adds a book to the catalog.
func (h *CatalogHandler) HandleCreateBook(c *fiber.Ctx) error {
	var req CreateBookRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}

	book, err := h.service.CreateBook(c.UserContext(), middleware.RoleFrom(c), services.NewBook{
		Title:           req.Title,
		Author:          req.Author,
		CopiesTotal:     req.CopiesTotal,
		CopiesAvailable: req.CopiesAvailable,
		GenreIDs:        req.GenreIDs,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(book)
}

// HandleGetGenres lists all genres.
func (h *CatalogHandler) HandleGetGenres(c *fiber.Ctx) error {
	genres, err := h.service.ListGenres(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(genres)
}

// CreateGenreRequest represents the request body for a new genre.
type CreateGenreRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// HandleCreateGenre adds a genre.
func (h *CatalogHandler) HandleCreateGenre(c *fiber.Ctx) error {
	var req CreateGenreRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}

	genre, err := h.service.CreateGenre(c.UserContext(), middleware.RoleFrom(c), req.Name)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(genre)
}
