package infra

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstack.io/internal/constants"
	"bookstack.io/internal/event"
	"bookstack.io/internal/model"
)

// fakeConn captures written messages for assertions.
type fakeConn struct {
	messages chan WsMessage
}

func newFakeConn() *fakeConn {
	return &fakeConn{messages: make(chan WsMessage, 16)}
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	if msg, ok := v.(WsMessage); ok {
		f.messages <- msg
	}
	return nil
}

func (f *fakeConn) Close() error { return nil }

func (f *fakeConn) next(t *testing.T) WsMessage {
	t.Helper()
	select {
	case msg := <-f.messages:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a websocket message")
		return WsMessage{}
	}
}

func (f *fakeConn) expectNone(t *testing.T) {
	t.Helper()
	select {
	case msg := <-f.messages:
		t.Fatalf("unexpected message: %+v", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func connect(h *Hub, userID uint) (*Client, *fakeConn) {
	conn := newFakeConn()
	client := NewClient(userID, conn)
	h.add(client)
	return client, conn
}

func TestPushToUserReachesAllConnections(t *testing.T) {
	h := NewHub()

	_, tab1 := connect(h, 1)
	_, tab2 := connect(h, 1)

	h.PushToUser(1, constants.WsEventNotificationReceive, "hello")

	for _, conn := range []*fakeConn{tab1, tab2} {
		msg := conn.next(t)
		assert.Equal(t, constants.WsEventNotificationReceive, msg.Event)
		assert.Equal(t, "hello", msg.Data)
	}
}

func TestPushToOfflineUserIsDropped(t *testing.T) {
	h := NewHub()
	_, conn := connect(h, 1)

	h.PushToUser(42, constants.WsEventNotificationReceive, "hello")
	conn.expectNone(t)
}

func TestPresenceAnnouncements(t *testing.T) {
	h := NewHub()
	_, watcher := connect(h, 1)

	// First connection of a user announces online to everyone else.
	first, _ := connect(h, 2)
	msg := watcher.next(t)
	assert.Equal(t, constants.WsEventUserOnline, msg.Event)
	assert.EqualValues(t, 2, msg.Data)

	// A second connection of the same user is silent.
	second, _ := connect(h, 2)
	watcher.expectNone(t)
	assert.Equal(t, 2, h.ConnectionCount(2))

	// Closing one of two connections keeps the user online.
	h.remove(first)
	watcher.expectNone(t)
	assert.True(t, h.IsOnline(2))

	// Closing the last one announces offline.
	h.remove(second)
	msg = watcher.next(t)
	assert.Equal(t, constants.WsEventUserOffline, msg.Event)
	assert.EqualValues(t, 2, msg.Data)
	assert.False(t, h.IsOnline(2))
}

func TestBroadcastReachesEveryone(t *testing.T) {
	h := NewHub()
	_, a := connect(h, 1)
	_, b := connect(h, 2)

	h.Broadcast(constants.WsEventBookUpdated, "catalog changed")

	for _, conn := range []*fakeConn{a, b} {
		msg := conn.next(t)
		assert.Equal(t, constants.WsEventBookUpdated, msg.Event)
	}
}

func TestJoinRoomAndPushToRoom(t *testing.T) {
	h := NewHub()
	member, memberConn := connect(h, 1)
	_, outsiderConn := connect(h, 2)

	h.JoinRoom(member, "book-club")
	h.PushToRoom("book-club", constants.WsEventMessageReceive, "meeting at 6")

	msg := memberConn.next(t)
	assert.Equal(t, constants.WsEventMessageReceive, msg.Event)
	outsiderConn.expectNone(t)
}

func TestRemoveUnknownClientIsNoop(t *testing.T) {
	h := NewHub()
	client := NewClient(1, newFakeConn())

	// Never registered; removing must not panic or close anything twice.
	h.remove(client)
	assert.False(t, h.IsOnline(1))
}

func TestEventBridgePushesNotifications(t *testing.T) {
	h := NewHub()
	bus := event.NewBus(16)
	defer bus.Shutdown()
	RegisterEventBridge(bus, h)

	_, owner := connect(h, 7)
	_, other := connect(h, 8)

	notification := &model.Notification{UserID: 7, Type: model.NotificationSystem, Message: "hello"}
	require.NoError(t, bus.PublishSync(context.Background(), event.Event{
		Type: constants.EventNotificationCreated,
		Data: notification,
	}))

	msg := owner.next(t)
	assert.Equal(t, constants.WsEventNotificationReceive, msg.Event)
	require.IsType(t, &model.Notification{}, msg.Data)
	assert.Equal(t, "hello", msg.Data.(*model.Notification).Message)

	other.expectNone(t)
}

func TestEventBridgeBroadcastsBookUpdates(t *testing.T) {
	h := NewHub()
	bus := event.NewBus(16)
	defer bus.Shutdown()
	RegisterEventBridge(bus, h)

	_, a := connect(h, 1)
	_, b := connect(h, 2)

	require.NoError(t, bus.PublishSync(context.Background(), event.Event{
		Type: constants.EventBookUpdated,
		Data: &model.Book{Title: "Dune"},
	}))

	for _, conn := range []*fakeConn{a, b} {
		msg := conn.next(t)
		assert.Equal(t, constants.WsEventBookUpdated, msg.Event)
	}
}
