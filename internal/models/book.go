package models

import "time"

// Book is a catalog title with its copy counters.
// Invariant: 0 <= CopiesAvailable <= CopiesTotal.
type Book struct {
	ID              string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Title           string    `json:"title" gorm:"type:varchar(255);not null"`
	Author          string    `json:"author" gorm:"type:varchar(255);not null"`
	CopiesTotal     int       `json:"copies_total" gorm:"not null;check:copies_total >= 0"`
	CopiesAvailable int       `json:"copies_available" gorm:"not null;check:copies_available >= 0"`
	Genres          []Genre   `json:"genres" gorm:"many2many:book_genres;"`
	CreatedAt       time.Time `json:"created_at"`
}

// Genre tags books for filtering.
type Genre struct {
	ID   string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name string `json:"name" gorm:"uniqueIndex;type:varchar(100);not null"`
}
