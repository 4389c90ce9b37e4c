package api

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"bookstack.io/internal/domain"
	"bookstack.io/internal/model"
)

type BorrowingHandler struct {
	borrowings domain.BorrowingService
}

func NewBorrowingHandler(borrowings domain.BorrowingService) *BorrowingHandler {
	return &BorrowingHandler{borrowings: borrowings}
}

type BorrowRequest struct {
	BookID  uint       `json:"bookId"`
	UserID  uint       `json:"userId"`
	DueDate *time.Time `json:"dueDate"`
}

// BorrowBook checks a book out to a member.
func (h *BorrowingHandler) BorrowBook(c *fiber.Ctx) error {
	var req BorrowRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request"})
	}
	if req.BookID == 0 || req.UserID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid book or user ID"})
	}

	borrowing, err := h.borrowings.BorrowBook(c.UserContext(), req.BookID, req.UserID, req.DueDate)
	if err != nil {
		return SendError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":   "Book borrowed successfully",
		"borrowing": borrowing,
	})
}

type ReturnRequest struct {
	Condition string `json:"condition"`
}

// ReturnBook checks a borrowed book back in.
func (h *BorrowingHandler) ReturnBook(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid borrowing ID"})
	}

	var req ReturnRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request"})
		}
	}

	borrowing, err := h.borrowings.ReturnBook(c.UserContext(), uint(id), req.Condition)
	if err != nil {
		return SendError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":   "Book returned successfully",
		"borrowing": borrowing,
	})
}

// GetBorrowings lists loans with optional filters.
func (h *BorrowingHandler) GetBorrowings(c *fiber.Ctx) error {
	page, limit := pageParams(c)

	filter := domain.BorrowingFilter{
		UserID:      uint(c.QueryInt("userId", 0)),
		BookID:      uint(c.QueryInt("bookId", 0)),
		Status:      c.Query("status"),
		OverdueOnly: c.Query("overdue") == "true",
	}

	borrowings, total, err := h.borrowings.GetBorrowings(c.UserContext(), filter, page, limit)
	if err != nil {
		return SendError(c, err)
	}
	return SendPaginatedResponse(c, borrowings, page, limit, total)
}

// GetBorrowing returns a single loan record.
func (h *BorrowingHandler) GetBorrowing(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid borrowing ID"})
	}

	borrowing, err := h.borrowings.GetBorrowing(c.UserContext(), uint(id))
	if err != nil {
		return SendError(c, err)
	}

	// Members see only their own loans; staff see all.
	if actorRole(c) == model.RoleUser && borrowing.UserID != actorID(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "Not authorized to view this borrowing"})
	}

	return c.JSON(borrowing)
}

// GetUserBorrowings returns a member's loan history.
func (h *BorrowingHandler) GetUserBorrowings(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("userId")
	if err != nil || userID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid user ID"})
	}

	if actorRole(c) == model.RoleUser && uint(userID) != actorID(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "Not authorized to view these borrowings"})
	}

	page, limit := pageParams(c)
	borrowings, total, err := h.borrowings.GetBorrowings(c.UserContext(), domain.BorrowingFilter{UserID: uint(userID)}, page, limit)
	if err != nil {
		return SendError(c, err)
	}
	return SendPaginatedResponse(c, borrowings, page, limit, total)
}
