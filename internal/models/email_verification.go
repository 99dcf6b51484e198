package models

import "time"

// PurposeConfirmEmail tags verification rows issued at registration or resend.
const PurposeConfirmEmail = "ConfirmEmail"

// EmailVerification is one outstanding one-time code challenge. Only the most
// recently created row for a (user, purpose) pair is authoritative.
type EmailVerification struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `gorm:"type:varchar(36);not null;index:idx_verification_user_purpose"`
	CodeHash  string    `gorm:"type:varchar(64);not null"`
	Purpose   string    `gorm:"type:varchar(32);not null;index:idx_verification_user_purpose"`
	ExpiresAt time.Time `gorm:"not null"`
	Attempts  int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;index"`
}

// IsExpired reports whether the code can no longer be used at now.
func (v *EmailVerification) IsExpired(now time.Time) bool {
	return now.After(v.ExpiresAt)
}
