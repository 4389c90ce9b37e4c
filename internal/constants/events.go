package constants

// Event types carried on the internal event bus.
const (
	// Notification events
	EventNotificationCreated = "notification.created"

	// Catalog events
	EventBookUpdated = "book.updated"
)

// Websocket event names, shared with the frontend.
const (
	WsEventNotificationReceive = "notification:receive"
	WsEventBookUpdated         = "book:updated"
	WsEventUserOnline          = "user:online"
	WsEventUserOffline         = "user:offline"
	WsEventMessageReceive      = "message:receive"
)

// Inbound websocket actions.
const (
	WsActionJoinRoom         = "join:room"
	WsActionPrivateMessage   = "message:private"
	WsActionSendNotification = "notification:send"
	WsActionBookUpdate       = "book:update"
)
