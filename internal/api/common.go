package api

import (
	"errors"
	"log"
	"math"

	"github.com/gofiber/fiber/v2"

	"bookstack.io/internal/domain"
)

// PaginatedResponse is the list envelope shared by every collection
// endpoint.
type PaginatedResponse struct {
	Items       interface{} `json:"items"`
	Page        int         `json:"page"`
	Limit       int         `json:"limit"`
	TotalItems  int64       `json:"totalItems"`
	TotalPages  int         `json:"totalPages"`
	HasNextPage bool        `json:"hasNextPage"`
	HasPrevPage bool        `json:"hasPrevPage"`
}

// SendPaginatedResponse writes the standard paged list body.
func SendPaginatedResponse(c *fiber.Ctx, items interface{}, page, limit int, total int64) error {
	totalPages := 0
	if limit > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(limit)))
	}

	return c.JSON(PaginatedResponse{
		Items:       items,
		Page:        page,
		Limit:       limit,
		TotalItems:  total,
		TotalPages:  totalPages,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	})
}

// SendError maps a service error to the HTTP response. Unexpected
// errors are logged and surfaced as a generic 500.
func SendError(c *fiber.Ctx, err error) error {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return c.Status(appErr.Code).JSON(fiber.Map{"message": appErr.Message})
	}

	log.Printf("API: unexpected error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "An unexpected error occurred",
	})
}

// pageParams reads the standard pagination query params (1-based page).
func pageParams(c *fiber.Ctx) (int, int) {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 10)
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	return page, limit
}

// actorID returns the authenticated user's id set by the auth middleware.
func actorID(c *fiber.Ctx) uint {
	id, _ := c.Locals("userID").(uint)
	return id
}

// actorRole returns the authenticated user's role.
func actorRole(c *fiber.Ctx) string {
	role, _ := c.Locals("role").(string)
	return role
}
