package model

import (
	"time"

	"gorm.io/gorm"
)

// Book represents a catalog item in the library.
type Book struct {
	gorm.Model
	Title           string    `gorm:"index;not null" json:"title"`
	Author          string    `gorm:"index;not null" json:"author"`
	ISBN            string    `gorm:"uniqueIndex;not null" json:"isbn"`
	Genre           string    `gorm:"index" json:"genre"`
	Description     string    `json:"description"`
	PublishedDate   time.Time `json:"publishedDate"`
	CoverImage      string    `gorm:"default:'default-book-cover.jpg'" json:"coverImage"`
	TotalCopies     int       `gorm:"default:1" json:"totalCopies"`
	AvailableCopies int       `gorm:"default:1" json:"availableCopies"`
	Location        string    `json:"location"`

	// Derived: "Available" iff AvailableCopies > 0. Not stored.
	Status string `gorm:"-" json:"status"`
}

const (
	BookStatusAvailable   = "Available"
	BookStatusUnavailable = "Unavailable"
)

func (b *Book) computeStatus() {
	if b.AvailableCopies > 0 {
		b.Status = BookStatusAvailable
	} else {
		b.Status = BookStatusUnavailable
	}
}

func (b *Book) AfterFind(*gorm.DB) error {
	b.computeStatus()
	return nil
}

func (b *Book) AfterSave(*gorm.DB) error {
	b.computeStatus()
	return nil
}
