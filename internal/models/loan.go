package models

import "time"

// Loan is one borrow-to-return lifecycle for a single copy of a book.
// A loan is active while ReturnedAt is nil.
type Loan struct {
	ID           string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID       string     `json:"user_id" gorm:"type:varchar(36);not null;index"`
	BookID       string     `json:"book_id" gorm:"type:varchar(36);not null;index"`
	BorrowedAt   time.Time  `json:"borrowed_at" gorm:"not null"`
	DueAt        time.Time  `json:"due_at" gorm:"not null;index"`
	ReturnedAt   *time.Time `json:"returned_at"`
	ReminderSent bool       `json:"reminder_sent" gorm:"not null"`
}

// Active reports whether the loan has not been returned yet.
func (l *Loan) Active() bool {
	return l.ReturnedAt == nil
}

// ActiveLoan is the read model listed to a borrower.
type ActiveLoan struct {
	LoanID     string    `json:"id"`
	BookID     string    `json:"book_id"`
	Title      string    `json:"book"`
	BorrowedAt time.Time `json:"borrowed_at"`
	DueAt      time.Time `json:"due_at"`
}

// ReminderCandidate is an overdue loan joined with what the reminder needs.
type ReminderCandidate struct {
	LoanID   string
	UserID   string
	Username string
	Email    string
	BookID   string
	Title    string
	DueAt    time.Time
}
