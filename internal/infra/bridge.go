package infra

import (
	"context"

	"bookstack.io/internal/constants"
	"bookstack.io/internal/domain"
	"bookstack.io/internal/event"
	"bookstack.io/internal/model"
)

// RegisterEventBridge connects the event bus to the real-time channel.
// Every persisted notification is pushed to its owner's active
// connections; catalog updates are broadcast to everyone. This is the
// only place transport and creation meet.
func RegisterEventBridge(bus *event.Bus, hub domain.Notifier) {
	bus.Subscribe(constants.EventNotificationCreated, func(ctx context.Context, e event.Event) error {
		notification, ok := e.Data.(*model.Notification)
		if !ok {
			return nil
		}
		hub.PushToUser(notification.UserID, constants.WsEventNotificationReceive, notification)
		return nil
	})

	bus.Subscribe(constants.EventBookUpdated, func(ctx context.Context, e event.Event) error {
		book, ok := e.Data.(*model.Book)
		if !ok {
			return nil
		}
		hub.Broadcast(constants.WsEventBookUpdated, book)
		return nil
	})
}
