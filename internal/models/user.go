package models

import "time"

// Role is the closed set of account roles.
type Role string

const (
	RoleUser  Role = "User"
	RoleAdmin Role = "Admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// CanManageCatalog reports whether the role may create books and genres.
func (r Role) CanManageCatalog() bool {
	return r == RoleAdmin
}

// User represents a library member or administrator.
// Username and Email are stored lowercase.
type User struct {
	ID            string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username      string    `json:"username" gorm:"uniqueIndex;type:varchar(100);not null"`
	Email         string    `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	PasswordHash  string    `json:"-" gorm:"type:varchar(255);not null"`
	Role          Role      `json:"role" gorm:"type:varchar(16);not null"`
	EmailVerified bool      `json:"email_verified" gorm:"not null"`
	CreatedAt     time.Time `json:"created_at"`
}
