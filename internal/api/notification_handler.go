package api

import (
	"github.com/gofiber/fiber/v2"

	"bookstack.io/internal/domain"
	"bookstack.io/internal/model"
)

type NotificationHandler struct {
	notifications domain.NotificationService
}

func NewNotificationHandler(notifications domain.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// GetUserNotifications lists a user's notifications, newest first.
// Members can only read their own; staff can inspect any mailbox.
func (h *NotificationHandler) GetUserNotifications(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("userId")
	if err != nil || userID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid user ID"})
	}

	if actorRole(c) == model.RoleUser && uint(userID) != actorID(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "Not authorized to view these notifications"})
	}

	page, limit := pageParams(c)
	unreadOnly := c.Query("unreadOnly") == "true"

	notifications, total, err := h.notifications.ListForUser(c.UserContext(), uint(userID), page, limit, unreadOnly)
	if err != nil {
		return SendError(c, err)
	}
	return SendPaginatedResponse(c, notifications, page, limit, total)
}

// MarkRead flags one notification as read.
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid notification ID"})
	}

	if err := h.notifications.MarkRead(c.UserContext(), uint(id), actorID(c)); err != nil {
		return SendError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Notification marked as read"})
}

// MarkAllRead flags every unread notification of a user as read.
func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("userId")
	if err != nil || userID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid user ID"})
	}

	if err := h.notifications.MarkAllRead(c.UserContext(), uint(userID), actorID(c)); err != nil {
		return SendError(c, err)
	}
	return c.JSON(fiber.Map{"message": "All notifications marked as read"})
}

type CreateNotificationRequest struct {
	UserID             uint   `json:"userId"`
	UserIDs            []uint `json:"userIds"`
	Type               string `json:"type"`
	Message            string `json:"message"`
	RelatedBookID      *uint  `json:"relatedBookId"`
	RelatedBorrowingID *uint  `json:"relatedBorrowingId"`
}

// Create files a system notification for one or more recipients. The
// broadcast form wraps the single-recipient primitive once per target.
func (h *NotificationHandler) Create(c *fiber.Ctx) error {
	var req CreateNotificationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request"})
	}
	if req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Message is required"})
	}

	recipients := req.UserIDs
	if len(recipients) == 0 {
		if req.UserID == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid user ID"})
		}
		recipients = []uint{req.UserID}
	}

	ntype := req.Type
	if ntype == "" {
		ntype = model.NotificationSystem
	}

	created := make([]*model.Notification, 0, len(recipients))
	for _, userID := range recipients {
		notification, err := h.notifications.Create(c.UserContext(), userID, ntype, req.Message, req.RelatedBookID, req.RelatedBorrowingID)
		if err != nil {
			return SendError(c, err)
		}
		created = append(created, notification)
	}

	if len(created) == 1 {
		return c.Status(fiber.StatusCreated).JSON(created[0])
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// Delete removes one of the acting user's notifications.
func (h *NotificationHandler) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid notification ID"})
	}

	if err := h.notifications.Delete(c.UserContext(), uint(id), actorID(c)); err != nil {
		return SendError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Notification deleted"})
}
