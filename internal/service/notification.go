package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"bookstack.io/internal/constants"
	"bookstack.io/internal/domain"
	"bookstack.io/internal/event"
	"bookstack.io/internal/model"
)

// NotificationServiceImpl implements domain.NotificationService. Every
// created notification is announced on the event bus; the websocket
// bridge turns that into a best-effort push. Creation and delivery stay
// decoupled so the transport can change without touching this code.
type NotificationServiceImpl struct {
	db  *gorm.DB
	bus *event.Bus
}

func NewNotificationService(db *gorm.DB, bus *event.Bus) *NotificationServiceImpl {
	return &NotificationServiceImpl{db: db, bus: bus}
}

// Create persists an unread notification. Sole creation path, used both
// by the borrowing workflow and the staff broadcast endpoint.
func (s *NotificationServiceImpl) Create(ctx context.Context, userID uint, ntype, message string, relatedBookID, relatedBorrowingID *uint) (*model.Notification, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("User not found")
		}
		return nil, domain.NewInternalError("failed to fetch user", err)
	}

	notification := &model.Notification{
		UserID:             userID,
		Type:               ntype,
		Message:            message,
		RelatedBookID:      relatedBookID,
		RelatedBorrowingID: relatedBorrowingID,
		IsRead:             false,
	}

	if err := s.db.WithContext(ctx).Create(notification).Error; err != nil {
		return nil, domain.NewInternalError("failed to create notification", err)
	}

	if s.bus != nil {
		s.bus.Publish(event.Event{
			Type:   constants.EventNotificationCreated,
			Source: "notification-service",
			Data:   notification,
		})
	}

	return notification, nil
}

// ListForUser returns a user's notifications, newest first.
func (s *NotificationServiceImpl) ListForUser(ctx context.Context, userID uint, page, pageSize int, unreadOnly bool) ([]model.Notification, int64, error) {
	page, pageSize = normalizePage(page, pageSize)

	query := s.db.WithContext(ctx).Model(&model.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, domain.NewInternalError("failed to count notifications", err)
	}

	var notifications []model.Notification
	if err := query.
		Order("created_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&notifications).Error; err != nil {
		return nil, 0, domain.NewInternalError("failed to fetch notifications", err)
	}

	return notifications, total, nil
}

// MarkRead flags one notification as read. Marking an already-read
// notification succeeds silently.
func (s *NotificationServiceImpl) MarkRead(ctx context.Context, id, actorID uint) error {
	var notification model.Notification
	if err := s.db.WithContext(ctx).First(&notification, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NewNotFoundError("Notification not found")
		}
		return domain.NewInternalError("failed to fetch notification", err)
	}

	if notification.UserID != actorID {
		return domain.NewForbiddenError("Not authorized to access this notification")
	}

	if notification.IsRead {
		return nil
	}

	if err := s.db.WithContext(ctx).Model(&notification).Update("is_read", true).Error; err != nil {
		return domain.NewInternalError("failed to update notification", err)
	}
	return nil
}

// MarkAllRead flags every unread notification of a user as read.
func (s *NotificationServiceImpl) MarkAllRead(ctx context.Context, userID, actorID uint) error {
	if userID != actorID {
		return domain.NewForbiddenError("Not authorized to update these notifications")
	}

	if err := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error; err != nil {
		return domain.NewInternalError("failed to update notifications", err)
	}
	return nil
}

// Delete removes a notification owned by the acting user.
func (s *NotificationServiceImpl) Delete(ctx context.Context, id, actorID uint) error {
	var notification model.Notification
	if err := s.db.WithContext(ctx).First(&notification, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NewNotFoundError("Notification not found")
		}
		return domain.NewInternalError("failed to fetch notification", err)
	}

	if notification.UserID != actorID {
		return domain.NewForbiddenError("Not authorized to delete this notification")
	}

	if err := s.db.WithContext(ctx).Delete(&notification).Error; err != nil {
		return domain.NewInternalError("failed to delete notification", err)
	}
	return nil
}

var _ domain.NotificationService = (*NotificationServiceImpl)(nil)
