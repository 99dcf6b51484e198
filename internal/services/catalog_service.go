package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"elibrary/internal/apperror"
	"elibrary/internal/models"
	"elibrary/internal/repositories"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// NewBook is the input for CreateBook.
type NewBook struct {
	Title           string
	Author          string
	CopiesTotal     int
	CopiesAvailable int
	GenreIDs        []string
}

// CatalogService handles business logic for books and genres.
type CatalogService struct {
	books  repositories.BookRepository
	genres repositories.GenreRepository
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(books repositories.BookRepository, genres repositories.GenreRepository) *CatalogService {
	return &CatalogService{
		books:  books,
		genres: genres,
	}
}

// ListBooks returns books matching query against title, author or genre
// name, optionally restricted to one genre.
func (s *CatalogService) ListBooks(ctx context.Context, query, genreID string) ([]models.Book, error) {
	books, err := s.books.GetAll(ctx, repositories.BookFilter{
		Query:   strings.TrimSpace(query),
		GenreID: strings.TrimSpace(genreID),
	})
	if err != nil {
		log.Error().Err(err).Str("query", query).Msg("failed to list books")
		return nil, apperror.Dependency("catalog is temporarily unavailable", err)
	}
	return books, nil
}

// GetBook retrieves a single book.
func (s *CatalogService) GetBook(ctx context.Context, id string) (*models.Book, error) {
	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperror.NotFound("book not found", err)
		}
		log.Error().Err(err).Str("book_id", id).Msg("failed to get book")
		return nil, apperror.Dependency("catalog is temporarily unavailable", err)
	}
	return book, nil
}

// CreateBook adds a title to the catalog. Only roles that can manage the
// catalog may call it.
func (s *CatalogService) CreateBook(ctx context.Context, role models.Role, in NewBook) (*models.Book, error) {
	if !role.CanManageCatalog() {
		return nil, apperror.Forbidden("admin role required")
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Author = strings.TrimSpace(in.Author)
	if in.Title == "" || in.Author == "" {
		return nil, apperror.Validation("title and author required")
	}
	if in.CopiesTotal < 0 || in.CopiesAvailable < 0 || in.CopiesAvailable > in.CopiesTotal {
		return nil, apperror.Validation("copies available must be between 0 and copies total")
	}

	book := &models.Book{
		ID:              uuid.New().String(),
		Title:           in.Title,
		Author:          in.Author,
		CopiesTotal:     in.CopiesTotal,
		CopiesAvailable: in.CopiesAvailable,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.books.Create(ctx, book, in.GenreIDs); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperror.Validation("unknown genre")
		}
		log.Error().Err(err).Str("title", in.Title).Msg("failed to create book")
		return nil, apperror.Dependency("catalog is temporarily unavailable", err)
	}
	log.Info().Str("book_id", book.ID).Str("title", book.Title).Msg("book created")
	return book, nil
}

// ListGenres returns all genres.
func (s *CatalogService) ListGenres(ctx context.Context) ([]models.Genre, error) {
	genres, err := s.genres.GetAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to list genres")
		return nil, apperror.Dependency("catalog is temporarily unavailable", err)
	}
	return genres, nil
}

// CreateGenre adds a genre. Names are unique.
func (s *CatalogService) CreateGenre(ctx context.Context, role models.Role, name string) (*models.Genre, error) {
	if !role.CanManageCatalog() {
		return nil, apperror.Forbidden("admin role required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.Validation("name required")
	}

	genre := &models.Genre{ID: uuid.New().String(), Name: name}
	if err := s.genres.Create(ctx, genre); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperror.Conflict("genre exists", err)
		}
		log.Error().Err(err).Str("name", name).Msg("failed to create genre")
		return nil, apperror.Dependency("catalog is temporarily unavailable", err)
	}
	return genre, nil
}
