package model

import "gorm.io/gorm"

// Notification types.
const (
	NotificationDueDateReminder    = "due_date_reminder"
	NotificationOverdue            = "overdue"
	NotificationBookAvailable      = "book_available"
	NotificationReturnConfirmation = "return_confirmation"
	NotificationSystem             = "system"
)

// Notification is a persisted, user-owned message optionally linked to
// a Book and/or a Borrowing. Durability lives here; the websocket push
// is best-effort on top.
type Notification struct {
	gorm.Model
	UserID             uint   `gorm:"index;not null" json:"userId"`
	Type               string `gorm:"not null" json:"type"`
	Message            string `gorm:"not null" json:"message"`
	RelatedBookID      *uint  `json:"relatedBookId"`
	RelatedBorrowingID *uint  `json:"relatedBorrowingId"`
	IsRead             bool   `gorm:"default:false" json:"isRead"`
}
