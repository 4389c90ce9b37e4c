package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"gorm.io/gorm"

	"bookstack.io/internal/config"
	"bookstack.io/internal/domain"
	"bookstack.io/internal/model"
)

// BorrowingServiceImpl implements domain.BorrowingService.
type BorrowingServiceImpl struct {
	db            *gorm.DB
	notifications domain.NotificationService
	policy        config.LibraryConfig

	// now is swapped out in tests to pin the clock.
	now func() time.Time
}

func NewBorrowingService(
	db *gorm.DB,
	notifications domain.NotificationService,
	policy config.LibraryConfig,
) *BorrowingServiceImpl {
	if policy.LoanPeriodDays <= 0 {
		policy.LoanPeriodDays = 14
	}
	if policy.FinePerDay <= 0 {
		policy.FinePerDay = 0.25
	}
	return &BorrowingServiceImpl{
		db:            db,
		notifications: notifications,
		policy:        policy,
		now:           time.Now,
	}
}

// BorrowBook checks availability and the member's limit, then applies
// the copy/counter mutations and the new loan record in one database
// transaction. The due-date reminder notification is created after the
// transaction commits; a failure there is logged, not surfaced, since
// the loan itself already succeeded.
func (s *BorrowingServiceImpl) BorrowBook(ctx context.Context, bookID, userID uint, dueDate *time.Time) (*model.Borrowing, error) {
	now := s.now()

	due := now.AddDate(0, 0, s.policy.LoanPeriodDays)
	if dueDate != nil {
		due = *dueDate
	}

	var borrowing *model.Borrowing
	var book model.Book

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&book, bookID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NewNotFoundError("Book not found")
			}
			return domain.NewInternalError("failed to fetch book", err)
		}

		var user model.User
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NewNotFoundError("User not found")
			}
			return domain.NewInternalError("failed to fetch user", err)
		}

		if book.AvailableCopies <= 0 {
			return domain.NewConflictError("Book is not available for borrowing")
		}

		if user.BorrowedBooks >= user.BorrowingLimit {
			return domain.NewConflictError("User has reached their borrowing limit")
		}

		// One open loan per (user, book) pair.
		var open int64
		if err := tx.Model(&model.Borrowing{}).
			Where("user_id = ? AND book_id = ? AND return_date IS NULL", userID, bookID).
			Count(&open).Error; err != nil {
			return domain.NewInternalError("failed to check open borrowings", err)
		}
		if open > 0 {
			return domain.NewConflictError("User already has this book on loan")
		}

		borrowing = &model.Borrowing{
			UserID:     userID,
			BookID:     bookID,
			BorrowDate: now,
			DueDate:    due,
			Status:     model.BorrowingStatusBorrowed,
		}
		if err := tx.Create(borrowing).Error; err != nil {
			return domain.NewInternalError("failed to create borrowing", err)
		}

		if err := tx.Model(&book).Update("available_copies", gorm.Expr("available_copies - 1")).Error; err != nil {
			return domain.NewInternalError("failed to update book copies", err)
		}
		if err := tx.Model(&user).Update("borrowed_books", gorm.Expr("borrowed_books + 1")).Error; err != nil {
			return domain.NewInternalError("failed to update user counter", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	message := fmt.Sprintf("You have borrowed %q. It is due back by %s.", book.Title, due.Format("Jan 2, 2006"))
	if _, err := s.notifications.Create(ctx, userID, model.NotificationDueDateReminder, message, &book.ID, &borrowing.ID); err != nil {
		log.Printf("BorrowingService: Failed to create borrow notification: %v", err)
	}

	log.Printf("BorrowingService: User %d borrowed book %d (due %s)", userID, bookID, due.Format(time.RFC3339))
	return borrowing, nil
}

// ReturnBook closes a loan, computes the fine when past due, and
// restores the copy/counter state in one transaction.
func (s *BorrowingServiceImpl) ReturnBook(ctx context.Context, borrowingID uint, condition string) (*model.Borrowing, error) {
	now := s.now()

	var borrowing model.Borrowing
	var book model.Book

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&borrowing, borrowingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NewNotFoundError("Borrowing record not found")
			}
			return domain.NewInternalError("failed to fetch borrowing", err)
		}

		if borrowing.Status == model.BorrowingStatusReturned {
			return domain.NewConflictError("Book has already been returned")
		}

		var user model.User
		if err := tx.First(&book, borrowing.BookID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NewNotFoundError("Associated book or user not found")
			}
			return domain.NewInternalError("failed to fetch book", err)
		}
		if err := tx.First(&user, borrowing.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NewNotFoundError("Associated book or user not found")
			}
			return domain.NewInternalError("failed to fetch user", err)
		}

		borrowing.ReturnDate = &now
		if now.After(borrowing.DueDate) {
			borrowing.Fine = s.calculateFine(borrowing.DueDate, now)
			borrowing.Status = model.BorrowingStatusOverdue
		} else {
			borrowing.Status = model.BorrowingStatusReturned
		}

		if condition != "" {
			note := "Return condition: " + condition
			if borrowing.Notes != "" {
				borrowing.Notes += "\n" + note
			} else {
				borrowing.Notes = note
			}
		}

		if err := tx.Save(&borrowing).Error; err != nil {
			return domain.NewInternalError("failed to update borrowing", err)
		}

		if err := tx.Model(&book).Update("available_copies", gorm.Expr("available_copies + 1")).Error; err != nil {
			return domain.NewInternalError("failed to update book copies", err)
		}

		newCount := user.BorrowedBooks - 1
		if newCount < 0 {
			// Counter drift; clamp rather than go negative.
			log.Printf("BorrowingService: Warning - borrowed_books for user %d would go negative, clamping to 0", user.ID)
			newCount = 0
		}
		if err := tx.Model(&user).Update("borrowed_books", newCount).Error; err != nil {
			return domain.NewInternalError("failed to update user counter", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	message := fmt.Sprintf("You have returned %q. Thank you for returning it on time.", book.Title)
	if borrowing.Fine > 0 {
		message = fmt.Sprintf("You have returned %q. A fine of $%.2f has been applied.", book.Title, borrowing.Fine)
	}
	if _, err := s.notifications.Create(ctx, borrowing.UserID, model.NotificationReturnConfirmation, message, &book.ID, &borrowing.ID); err != nil {
		log.Printf("BorrowingService: Failed to create return notification: %v", err)
	}

	log.Printf("BorrowingService: Borrowing %d returned (fine %.2f)", borrowing.ID, borrowing.Fine)
	return &borrowing, nil
}

// calculateFine charges per started overdue day: the millisecond overrun
// is divided by one day and rounded up, so any partial day counts in
// full. A return exactly on the due date costs nothing.
func (s *BorrowingServiceImpl) calculateFine(due, returned time.Time) float64 {
	if !returned.After(due) {
		return 0
	}
	const dayMillis = 24 * 60 * 60 * 1000
	overdueDays := math.Ceil(float64(returned.Sub(due).Milliseconds()) / float64(dayMillis))
	return overdueDays * s.policy.FinePerDay
}

// GetBorrowings lists loans matching the filter, newest borrow first.
func (s *BorrowingServiceImpl) GetBorrowings(ctx context.Context, filter domain.BorrowingFilter, page, pageSize int) ([]model.Borrowing, int64, error) {
	page, pageSize = normalizePage(page, pageSize)

	query := s.db.WithContext(ctx).Model(&model.Borrowing{})

	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.BookID != 0 {
		query = query.Where("book_id = ?", filter.BookID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.OverdueOnly {
		// Only currently outstanding loans, not historically late returns.
		query = query.Where("due_date < ? AND status = ?", s.now(), model.BorrowingStatusBorrowed)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, domain.NewInternalError("failed to count borrowings", err)
	}

	var borrowings []model.Borrowing
	if err := query.
		Order("borrow_date DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&borrowings).Error; err != nil {
		return nil, 0, domain.NewInternalError("failed to fetch borrowings", err)
	}

	return borrowings, total, nil
}

// GetBorrowing fetches a single loan record.
func (s *BorrowingServiceImpl) GetBorrowing(ctx context.Context, id uint) (*model.Borrowing, error) {
	var borrowing model.Borrowing
	if err := s.db.WithContext(ctx).First(&borrowing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Borrowing record not found")
		}
		return nil, domain.NewInternalError("failed to fetch borrowing", err)
	}
	return &borrowing, nil
}

var _ domain.BorrowingService = (*BorrowingServiceImpl)(nil)
