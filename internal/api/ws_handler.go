package api

import (
	"context"
	"encoding/json"
	"log"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"bookstack.io/internal/auth"
	"bookstack.io/internal/constants"
	"bookstack.io/internal/infra"
	"bookstack.io/internal/model"
)

// WsRequest is one inbound client action on the socket.
type WsRequest struct {
	Action  string          `json:"action"`
	Room    string          `json:"room,omitempty"`
	To      []uint          `json:"to,omitempty"`
	Message json.RawMessage `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// InitWebsocket mounts the real-time channel at /ws. The handshake
// carries the bearer token as a query parameter; a connection that
// fails verification, or that resolves to a missing or deactivated
// account, is closed before it ever touches the presence registry.
func InitWebsocket(app *fiber.App, hub *infra.Hub, tokens *auth.TokenManager, db *gorm.DB) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		claims, err := tokens.Verify(context.Background(), c.Query("token"))
		if err != nil {
			c.WriteJSON(fiber.Map{"error": "Authentication error"})
			c.Close()
			return
		}

		var user model.User
		if err := db.First(&user, claims.UserID).Error; err != nil || !user.IsActive {
			c.WriteJSON(fiber.Map{"error": "User not found or inactive"})
			c.Close()
			return
		}

		client := infra.NewClient(user.ID, c)
		hub.Register <- client
		defer func() {
			hub.Unregister <- client
		}()

		var msg WsRequest
		for {
			if err := c.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Println("ws read error:", err)
				}
				break
			}

			switch msg.Action {
			case constants.WsActionJoinRoom:
				if msg.Room != "" {
					hub.JoinRoom(client, msg.Room)
				}

			case constants.WsActionPrivateMessage:
				payload := fiber.Map{"from": user.ID, "message": msg.Message}
				for _, to := range msg.To {
					hub.PushToUser(to, constants.WsEventMessageReceive, payload)
				}

			case constants.WsActionSendNotification:
				for _, to := range msg.To {
					hub.PushToUser(to, constants.WsEventNotificationReceive, msg.Data)
				}

			case constants.WsActionBookUpdate:
				hub.Broadcast(constants.WsEventBookUpdated, msg.Data)

			default:
				log.Println("ws: unexpected action:", msg.Action)
			}
		}
	}))
}
