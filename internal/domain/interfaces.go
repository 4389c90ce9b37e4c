package domain

import (
	"context"
	"time"

	"bookstack.io/internal/model"
)

// ===========================
// Borrowing service
// ===========================

// BorrowingFilter narrows borrowing list queries. Zero values mean "no filter".
type BorrowingFilter struct {
	UserID uint
	BookID uint
	Status string
	// OverdueOnly selects currently outstanding overdue loans:
	// dueDate < now AND status == borrowed. Historically late returns
	// (already flagged overdue on return) are excluded.
	OverdueOnly bool
}

// BorrowingService validates and executes loan transitions.
type BorrowingService interface {
	// Borrow a book for a user. A nil dueDate defaults to now + loan period.
	BorrowBook(ctx context.Context, bookID, userID uint, dueDate *time.Time) (*model.Borrowing, error)
	// Return a borrowed book, computing the fine if overdue.
	ReturnBook(ctx context.Context, borrowingID uint, condition string) (*model.Borrowing, error)
	// List borrowings matching the filter, newest borrow first.
	GetBorrowings(ctx context.Context, filter BorrowingFilter, page, pageSize int) ([]model.Borrowing, int64, error)
	// Fetch a single borrowing record.
	GetBorrowing(ctx context.Context, id uint) (*model.Borrowing, error)
}

// ===========================
// Notification service
// ===========================

// NotificationService creates and manages persisted user notifications.
type NotificationService interface {
	// Create persists an unread notification for a user. Sole creation path.
	Create(ctx context.Context, userID uint, ntype, message string, relatedBookID, relatedBorrowingID *uint) (*model.Notification, error)
	// ListForUser returns a user's notifications, newest first.
	ListForUser(ctx context.Context, userID uint, page, pageSize int, unreadOnly bool) ([]model.Notification, int64, error)
	// MarkRead sets isRead on one notification. Idempotent. Owner only.
	MarkRead(ctx context.Context, id, actorID uint) error
	// MarkAllRead sets isRead on every unread notification of a user. Owner only.
	MarkAllRead(ctx context.Context, userID, actorID uint) error
	// Delete removes a notification. Owner only.
	Delete(ctx context.Context, id, actorID uint) error
}

// ===========================
// Book catalog service
// ===========================

// BookFilter narrows catalog list queries.
type BookFilter struct {
	Title     string
	Author    string
	Genre     string
	Available *bool
	Sort      string // field name, "-" prefix for descending
}

// BookUpdate holds optional catalog mutations. Nil fields are untouched.
type BookUpdate struct {
	Title           *string
	Author          *string
	Genre           *string
	Description     *string
	PublishedDate   *time.Time
	CoverImage      *string
	TotalCopies     *int
	AvailableCopies *int
	Location        *string
}

// BookService manages the catalog.
type BookService interface {
	GetBooks(ctx context.Context, filter BookFilter, page, pageSize int) ([]model.Book, int64, error)
	GetBook(ctx context.Context, id uint) (*model.Book, error)
	// SearchBooks matches the query against title, author, genre and description.
	SearchBooks(ctx context.Context, query string, page, pageSize int) ([]model.Book, int64, error)
	CreateBook(ctx context.Context, book *model.Book) error
	UpdateBook(ctx context.Context, id uint, updates BookUpdate) (*model.Book, error)
	// DeleteBook removes a catalog entry. Fails while copies are on loan.
	DeleteBook(ctx context.Context, id uint) error
}

// ===========================
// User management service
// ===========================

// UserFilter narrows user list queries.
type UserFilter struct {
	Name     string
	Email    string
	Role     string
	IsActive *bool
}

// UserUpdate holds optional account mutations. Nil fields are untouched.
type UserUpdate struct {
	Name           *string
	Email          *string
	Role           *string
	BorrowingLimit *int
	IsActive       *bool
}

// UserService covers staff-facing account management.
type UserService interface {
	GetUsers(ctx context.Context, filter UserFilter, page, pageSize int) ([]model.User, int64, error)
	GetUser(ctx context.Context, id uint) (*model.User, error)
	CreateUser(ctx context.Context, user *model.User, plainPassword string) error
	// UpdateUser applies updates; role changes require an admin actor.
	UpdateUser(ctx context.Context, id uint, updates UserUpdate, actorRole string) (*model.User, error)
	// DeleteUser removes an account. Fails while the user holds borrowed books.
	DeleteUser(ctx context.Context, id uint) error
}

// ===========================
// Real-time push
// ===========================

// Notifier pushes messages over the real-time channel. Delivery is
// at-most-once: users with no active connection miss the push and rely
// on the persisted record.
type Notifier interface {
	// PushToUser delivers to every active connection of one user.
	PushToUser(userID uint, event string, data interface{})
	// Broadcast delivers to every active connection.
	Broadcast(event string, data interface{})
}
