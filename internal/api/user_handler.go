package api

import (
	"github.com/gofiber/fiber/v2"

	"bookstack.io/internal/domain"
	"bookstack.io/internal/model"
)

type UserHandler struct {
	users domain.UserService
}

func NewUserHandler(users domain.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// GetUsers lists accounts with optional filters.
func (h *UserHandler) GetUsers(c *fiber.Ctx) error {
	page, limit := pageParams(c)

	filter := domain.UserFilter{
		Name:  c.Query("name"),
		Email: c.Query("email"),
		Role:  c.Query("role"),
	}
	switch c.Query("isActive") {
	case "true":
		v := true
		filter.IsActive = &v
	case "false":
		v := false
		filter.IsActive = &v
	}

	users, total, err := h.users.GetUsers(c.UserContext(), filter, page, limit)
	if err != nil {
		return SendError(c, err)
	}
	return SendPaginatedResponse(c, users, page, limit, total)
}

// GetUser returns one account.
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid user ID"})
	}

	user, err := h.users.GetUser(c.UserContext(), uint(id))
	if err != nil {
		return SendError(c, err)
	}
	return c.JSON(user)
}

type CreateUserRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	Role           string `json:"role"`
	BorrowingLimit int    `json:"borrowingLimit"`
}

// CreateUser lets an admin create an account with any role.
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var req CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request"})
	}

	user := model.User{
		Name:           req.Name,
		Email:          req.Email,
		Role:           req.Role,
		BorrowingLimit: req.BorrowingLimit,
	}
	if err := h.users.CreateUser(c.UserContext(), &user, req.Password); err != nil {
		return SendError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(&user)
}

type UpdateUserRequest struct {
	Name           *string `json:"name"`
	Email          *string `json:"email"`
	Role           *string `json:"role"`
	BorrowingLimit *int    `json:"borrowingLimit"`
	IsActive       *bool   `json:"isActive"`
}

// UpdateUser applies a partial account update.
func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid user ID"})
	}

	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request"})
	}

	user, err := h.users.UpdateUser(c.UserContext(), uint(id), domain.UserUpdate{
		Name:           req.Name,
		Email:          req.Email,
		Role:           req.Role,
		BorrowingLimit: req.BorrowingLimit,
		IsActive:       req.IsActive,
	}, actorRole(c))
	if err != nil {
		return SendError(c, err)
	}
	return c.JSON(user)
}

// DeleteUser removes an account with no books on loan.
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid user ID"})
	}

	if err := h.users.DeleteUser(c.UserContext(), uint(id)); err != nil {
		return SendError(c, err)
	}
	return c.JSON(fiber.Map{"message": "User deleted"})
}
