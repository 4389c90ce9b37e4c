package model

import "gorm.io/gorm"

// User roles. Casbin policies are keyed by these values.
const (
	RoleUser      = "user"
	RoleLibrarian = "librarian"
	RoleAdmin     = "admin"
)

// User represents a library member or staff account.
type User struct {
	gorm.Model
	Name           string `gorm:"not null" json:"name"`
	Email          string `gorm:"uniqueIndex;not null" json:"email"` // stored lowercase
	Password       string `gorm:"not null" json:"-"`                 // bcrypt hash, never serialized
	Role           string `gorm:"default:'user'" json:"role"`
	ProfilePicture string `json:"profilePicture"`
	MembershipID   string `gorm:"uniqueIndex;not null" json:"membershipId"`
	BorrowingLimit int    `gorm:"default:5" json:"borrowingLimit"`
	BorrowedBooks  int    `gorm:"default:0" json:"borrowedBooks"`
	IsActive       bool   `gorm:"default:true" json:"isActive"`
}
