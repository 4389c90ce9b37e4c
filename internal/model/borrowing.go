package model

import (
	"time"

	"gorm.io/gorm"
)

// Borrowing statuses.
const (
	BorrowingStatusBorrowed = "borrowed"
	BorrowingStatusReturned = "returned"
	BorrowingStatusOverdue  = "overdue"
	BorrowingStatusLost     = "lost"
)

// Borrowing is a loan record linking one User and one Book.
type Borrowing struct {
	gorm.Model
	UserID     uint       `gorm:"index;index:idx_user_status;not null" json:"userId"`
	BookID     uint       `gorm:"index;not null" json:"bookId"`
	BorrowDate time.Time  `gorm:"not null" json:"borrowDate"`
	DueDate    time.Time  `gorm:"not null" json:"dueDate"`
	ReturnDate *time.Time `json:"returnDate"`
	Status     string     `gorm:"index:idx_user_status;default:'borrowed'" json:"status"`
	Fine       float64    `gorm:"default:0" json:"fine"`
	Notes      string     `json:"notes"`
}
