package repositories

import (
	"context"
	"fmt"
	"strings"

	"elibrary/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMBookRepository is a GORM implementation of BookRepository.
type GORMBookRepository struct {
	db *gorm.DB
}

// NewGORMBookRepository creates a new instance of GORMBookRepository.
func NewGORMBookRepository(db *gorm.DB) *GORMBookRepository {
	return &GORMBookRepository{
		db: db,
	}
}

// GetAll retrieves books ordered by title, with their genres.
func (r *GORMBookRepository) GetAll(ctx context.Context, filter BookFilter) ([]models.Book, error) {
	query := r.db.WithContext(ctx).Model(&models.Book{}).Preload("Genres")

	if q := strings.ToLower(strings.TrimSpace(filter.Query)); q != "" {
		like := "%" + q + "%"
		query = query.Where(
			"LOWER(title) LIKE ? OR LOWER(author) LIKE ? OR id IN (?)",
			like, like,
			r.db.Table("book_genres").
				Select("book_genres.book_id").
				Joins("JOIN genres ON genres.id = book_genres.genre_id").
				Where("LOWER(genres.name) LIKE ?", like),
		)
	}
	if filter.GenreID != "" {
		query = query.Where("id IN (?)",
			r.db.Table("book_genres").Select("book_id").Where("genre_id = ?", filter.GenreID))
	}

	var books []models.Book
	if err := query.Order("title").Find(&books).Error; err != nil {
		return nil, fmt.Errorf("failed to get books: %w", err)
	}
	return books, nil
}

// GetByID retrieves a single book by its ID from the database.
func (r *GORMBookRepository) GetByID(ctx context.Context, id string) (*models.Book, error) {
	var book models.Book
	if err := r.db.WithContext(ctx).First(&book, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("book with ID %s: %w", id, translate(err))
	}
	return &book, nil
}

// Create inserts a book and links it to the given genres.
func (r *GORMBookRepository) Create(ctx context.Context, book *models.Book, genreIDs []string) error {
	if book.ID == "" {
		book.ID = uuid.New().String()
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(genreIDs) > 0 {
			var genres []models.Genre
			if err := tx.Where("id IN ?", genreIDs).Find(&genres).Error; err != nil {
				return err
			}
			if len(genres) != len(genreIDs) {
				return fmt.Errorf("unknown genre in %v: %w", genreIDs, ErrNotFound)
			}
			book.Genres = genres
		}
		return tx.Create(book).Error
	})
	if err != nil {
		return fmt.Errorf("failed to create book: %w", translate(err))
	}
	return nil
}

// GORMGenreRepository is a GORM implementation of GenreRepository.
type GORMGenreRepository struct {
	db *gorm.DB
}

// NewGORMGenreRepository creates a new instance of GORMGenreRepository.
func NewGORMGenreRepository(db *gorm.DB) *GORMGenreRepository {
	return &GORMGenreRepository{
		db: db,
	}
}

// GetAll retrieves all genres ordered by name.
func (r *GORMGenreRepository) GetAll(ctx context.Context) ([]models.Genre, error) {
	var genres []models.Genre
	if err := r.db.WithContext(ctx).Order("name").Find(&genres).Error; err != nil {
		return nil, fmt.Errorf("failed to get genres: %w", err)
	}
	return genres, nil
}

// Create inserts a genre.
func (r *GORMGenreRepository) Create(ctx context.Context, genre *models.Genre) error {
	if genre.ID == "" {
		genre.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(genre).Error; err != nil {
		return fmt.Errorf("failed to create genre: %w", translate(err))
	}
	return nil
}
