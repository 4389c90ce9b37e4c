package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstack.io/internal/constants"
	"bookstack.io/internal/domain"
	"bookstack.io/internal/event"
	"bookstack.io/internal/model"
)

func TestCreateNotification(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db, nil)
	user := createTestUser(t, db, 5, 0)

	n, err := svc.Create(context.Background(), user.ID, model.NotificationSystem, "Library closes early today", nil, nil)
	require.NoError(t, err)
	assert.NotZero(t, n.ID)
	assert.False(t, n.IsRead)
	assert.Equal(t, model.NotificationSystem, n.Type)
}

func TestCreateNotificationUnknownUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db, nil)

	_, err := svc.Create(context.Background(), 9999, model.NotificationSystem, "hello", nil, nil)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateNotificationPublishesEvent(t *testing.T) {
	db := newTestDB(t)
	bus := event.NewBus(16)
	defer bus.Shutdown()
	svc := NewNotificationService(db, bus)
	user := createTestUser(t, db, 5, 0)

	received := make(chan event.Event, 1)
	bus.Subscribe(constants.EventNotificationCreated, func(ctx context.Context, e event.Event) error {
		received <- e
		return nil
	})

	created, err := svc.Create(context.Background(), user.ID, model.NotificationSystem, "hello", nil, nil)
	require.NoError(t, err)

	select {
	case e := <-received:
		n, ok := e.Data.(*model.Notification)
		require.True(t, ok)
		assert.Equal(t, created.ID, n.ID)
		assert.Equal(t, user.ID, n.UserID)
	case <-time.After(2 * time.Second):
		t.Fatal("expected notification.created event on the bus")
	}
}

func TestListForUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db, nil)
	user := createTestUser(t, db, 5, 0)
	other := createTestUser(t, db, 5, 0)

	first, err := svc.Create(context.Background(), user.ID, model.NotificationSystem, "first", nil, nil)
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), user.ID, model.NotificationOverdue, "second", nil, nil)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), other.ID, model.NotificationSystem, "not yours", nil, nil)
	require.NoError(t, err)

	require.NoError(t, svc.MarkRead(context.Background(), first.ID, user.ID))

	all, total, err := svc.ListForUser(context.Background(), user.ID, 1, 10, false)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, all, 2)
	for _, n := range all {
		assert.Equal(t, user.ID, n.UserID)
	}

	unread, total, err := svc.ListForUser(context.Background(), user.ID, 1, 10, true)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, unread, 1)
	assert.Equal(t, second.ID, unread[0].ID)
}

func TestMarkReadOwnership(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db, nil)
	owner := createTestUser(t, db, 5, 0)
	stranger := createTestUser(t, db, 5, 0)

	n, err := svc.Create(context.Background(), owner.ID, model.NotificationSystem, "hello", nil, nil)
	require.NoError(t, err)

	err = svc.MarkRead(context.Background(), n.ID, stranger.ID)
	require.ErrorIs(t, err, domain.ErrForbidden)

	var reloaded model.Notification
	require.NoError(t, db.First(&reloaded, n.ID).Error)
	assert.False(t, reloaded.IsRead)

	require.NoError(t, svc.MarkRead(context.Background(), n.ID, owner.ID))
	// Marking again is a no-op, not an error.
	require.NoError(t, svc.MarkRead(context.Background(), n.ID, owner.ID))

	require.NoError(t, db.First(&reloaded, n.ID).Error)
	assert.True(t, reloaded.IsRead)
}

func TestMarkReadNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db, nil)

	err := svc.MarkRead(context.Background(), 9999, 1)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMarkAllRead(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db, nil)
	user := createTestUser(t, db, 5, 0)

	for i := 0; i < 3; i++ {
		_, err := svc.Create(context.Background(), user.ID, model.NotificationSystem, "hello", nil, nil)
		require.NoError(t, err)
	}

	err := svc.MarkAllRead(context.Background(), user.ID, user.ID+1)
	require.ErrorIs(t, err, domain.ErrForbidden)

	require.NoError(t, svc.MarkAllRead(context.Background(), user.ID, user.ID))

	var unread int64
	require.NoError(t, db.Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", user.ID, false).
		Count(&unread).Error)
	assert.Zero(t, unread)
}

func TestDeleteNotification(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db, nil)
	owner := createTestUser(t, db, 5, 0)
	stranger := createTestUser(t, db, 5, 0)

	n, err := svc.Create(context.Background(), owner.ID, model.NotificationSystem, "hello", nil, nil)
	require.NoError(t, err)

	err = svc.Delete(context.Background(), n.ID, stranger.ID)
	require.ErrorIs(t, err, domain.ErrForbidden)

	require.NoError(t, svc.Delete(context.Background(), n.ID, owner.ID))

	err = svc.Delete(context.Background(), n.ID, owner.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}
