package api

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"bookstack.io/internal/domain"
	"bookstack.io/internal/model"
)

type BookHandler struct {
	books domain.BookService
}

func NewBookHandler(books domain.BookService) *BookHandler {
	return &BookHandler{books: books}
}

// GetBooks lists the catalog with optional filters and sorting.
func (h *BookHandler) GetBooks(c *fiber.Ctx) error {
	page, limit := pageParams(c)

	filter := domain.BookFilter{
		Title:  c.Query("title"),
		Author: c.Query("author"),
		Genre:  c.Query("genre"),
		Sort:   c.Query("sort"),
	}
	switch c.Query("available") {
	case "true":
		v := true
		filter.Available = &v
	case "false":
		v := false
		filter.Available = &v
	}

	books, total, err := h.books.GetBooks(c.UserContext(), filter, page, limit)
	if err != nil {
		return SendError(c, err)
	}
	return SendPaginatedResponse(c, books, page, limit, total)
}

// SearchBooks runs a free-text catalog search.
func (h *BookHandler) SearchBooks(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Search query is required"})
	}

	page, limit := pageParams(c)
	books, total, err := h.books.SearchBooks(c.UserContext(), query, page, limit)
	if err != nil {
		return SendError(c, err)
	}
	return SendPaginatedResponse(c, books, page, limit, total)
}

// GetBook returns one catalog entry.
func (h *BookHandler) GetBook(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid book ID"})
	}

	book, err := h.books.GetBook(c.UserContext(), uint(id))
	if err != nil {
		return SendError(c, err)
	}
	return c.JSON(book)
}

type CreateBookRequest struct {
	Title         string     `json:"title"`
	Author        string     `json:"author"`
	ISBN          string     `json:"isbn"`
	Genre         string     `json:"genre"`
	Description   string     `json:"description"`
	PublishedDate *time.Time `json:"publishedDate"`
	CoverImage    string     `json:"coverImage"`
	TotalCopies   int        `json:"totalCopies"`
	Location      string     `json:"location"`
}

// CreateBook adds a catalog entry.
func (h *BookHandler) CreateBook(c *fiber.Ctx) error {
	var req CreateBookRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request"})
	}
	if req.Title == "" || req.Author == "" || req.ISBN == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Title, author and ISBN are required"})
	}

	book := model.Book{
		Title:       req.Title,
		Author:      req.Author,
		ISBN:        req.ISBN,
		Genre:       req.Genre,
		Description: req.Description,
		CoverImage:  req.CoverImage,
		TotalCopies: req.TotalCopies,
		Location:    req.Location,
	}
	if req.PublishedDate != nil {
		book.PublishedDate = *req.PublishedDate
	}

	if err := h.books.CreateBook(c.UserContext(), &book); err != nil {
		return SendError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(&book)
}

type UpdateBookRequest struct {
	Title           *string    `json:"title"`
	Author          *string    `json:"author"`
	Genre           *string    `json:"genre"`
	Description     *string    `json:"description"`
	PublishedDate   *time.Time `json:"publishedDate"`
	CoverImage      *string    `json:"coverImage"`
	TotalCopies     *int       `json:"totalCopies"`
	AvailableCopies *int       `json:"availableCopies"`
	Location        *string    `json:"location"`
}

// UpdateBook applies a partial catalog update.
func (h *BookHandler) UpdateBook(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid book ID"})
	}

	var req UpdateBookRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request"})
	}

	book, err := h.books.UpdateBook(c.UserContext(), uint(id), domain.BookUpdate{
		Title:           req.Title,
		Author:          req.Author,
		Genre:           req.Genre,
		Description:     req.Description,
		PublishedDate:   req.PublishedDate,
		CoverImage:      req.CoverImage,
		TotalCopies:     req.TotalCopies,
		AvailableCopies: req.AvailableCopies,
		Location:        req.Location,
	})
	if err != nil {
		return SendError(c, err)
	}
	return c.JSON(book)
}

// DeleteBook removes a catalog entry.
func (h *BookHandler) DeleteBook(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid book ID"})
	}

	if err := h.books.DeleteBook(c.UserContext(), uint(id)); err != nil {
		return SendError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Book deleted"})
}
