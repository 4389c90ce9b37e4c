package workers

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"bookstack.io/internal/config"
	"bookstack.io/internal/domain"
	"bookstack.io/internal/model"
)

// ReminderWorker periodically scans open loans and files due-soon and
// overdue notifications. Reminders are de-duplicated per borrowing per
// day so a member is nudged at most once a day per book.
type ReminderWorker struct {
	db            *gorm.DB
	notifications domain.NotificationService
	policy        config.LibraryConfig
	interval      time.Duration

	now func() time.Time
}

func NewReminderWorker(db *gorm.DB, notifications domain.NotificationService, policy config.LibraryConfig) *ReminderWorker {
	if policy.FinePerDay <= 0 {
		policy.FinePerDay = 0.25
	}
	return &ReminderWorker{
		db:            db,
		notifications: notifications,
		policy:        policy,
		interval:      time.Hour,
		now:           time.Now,
	}
}

// Start runs an immediate check and then one per interval until the
// context is canceled.
func (w *ReminderWorker) Start(ctx context.Context) {
	go func() {
		w.Check(ctx)

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.Check(ctx)
			case <-ctx.Done():
				log.Println("ReminderWorker: stopped")
				return
			}
		}
	}()
}

// Check scans every open loan once.
func (w *ReminderWorker) Check(ctx context.Context) {
	now := w.now()

	var loans []model.Borrowing
	if err := w.db.WithContext(ctx).
		Where("return_date IS NULL AND status = ?", model.BorrowingStatusBorrowed).
		Find(&loans).Error; err != nil {
		log.Printf("ReminderWorker: failed to fetch open loans: %v", err)
		return
	}

	for _, loan := range loans {
		var book model.Book
		title := "your borrowed book"
		if err := w.db.WithContext(ctx).First(&book, loan.BookID).Error; err == nil {
			title = fmt.Sprintf("%q", book.Title)
		}

		switch {
		case now.After(loan.DueDate):
			daysLate := int(now.Sub(loan.DueDate).Hours() / 24)
			if daysLate < 1 {
				daysLate = 1
			}
			fine := float64(daysLate) * w.policy.FinePerDay
			message := fmt.Sprintf("%s is overdue by %d day(s). The accrued fine is $%.2f. Please return it as soon as possible.", title, daysLate, fine)
			w.notifyOnce(ctx, loan, model.NotificationOverdue, message, now)

		case loan.DueDate.Sub(now) < 24*time.Hour:
			message := fmt.Sprintf("%s is due back by %s.", title, loan.DueDate.Format("Jan 2, 2006"))
			w.notifyOnce(ctx, loan, model.NotificationDueDateReminder, message, now)
		}
	}
}

// notifyOnce creates the notification unless one of the same type was
// already filed for this borrowing today.
func (w *ReminderWorker) notifyOnce(ctx context.Context, loan model.Borrowing, ntype, message string, now time.Time) {
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var existing int64
	if err := w.db.WithContext(ctx).Model(&model.Notification{}).
		Where("related_borrowing_id = ? AND type = ? AND created_at >= ?", loan.ID, ntype, startOfDay).
		Count(&existing).Error; err != nil {
		log.Printf("ReminderWorker: de-dup check failed: %v", err)
		return
	}
	if existing > 0 {
		return
	}

	if _, err := w.notifications.Create(ctx, loan.UserID, ntype, message, &loan.BookID, &loan.ID); err != nil {
		log.Printf("ReminderWorker: failed to create %s notification for borrowing %d: %v", ntype, loan.ID, err)
	}
}
