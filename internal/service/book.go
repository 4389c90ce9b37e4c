package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"bookstack.io/internal/constants"
	"bookstack.io/internal/domain"
	"bookstack.io/internal/event"
	"bookstack.io/internal/model"
)

// BookServiceImpl implements domain.BookService. Catalog mutations are
// announced on the event bus so connected clients see availability
// changes without polling.
type BookServiceImpl struct {
	db  *gorm.DB
	bus *event.Bus
}

func NewBookService(db *gorm.DB, bus *event.Bus) *BookServiceImpl {
	return &BookServiceImpl{db: db, bus: bus}
}

// sortableBookFields whitelists sort keys accepted from the query string.
var sortableBookFields = map[string]string{
	"title":         "title",
	"author":        "author",
	"genre":         "genre",
	"publishedDate": "published_date",
	"createdAt":     "created_at",
}

func (s *BookServiceImpl) GetBooks(ctx context.Context, filter domain.BookFilter, page, pageSize int) ([]model.Book, int64, error) {
	page, pageSize = normalizePage(page, pageSize)

	query := s.db.WithContext(ctx).Model(&model.Book{})

	if filter.Title != "" {
		query = query.Where("lower(title) LIKE ?", "%"+strings.ToLower(filter.Title)+"%")
	}
	if filter.Author != "" {
		query = query.Where("lower(author) LIKE ?", "%"+strings.ToLower(filter.Author)+"%")
	}
	if filter.Genre != "" {
		query = query.Where("lower(genre) LIKE ?", "%"+strings.ToLower(filter.Genre)+"%")
	}
	if filter.Available != nil {
		if *filter.Available {
			query = query.Where("available_copies > 0")
		} else {
			query = query.Where("available_copies = 0")
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, domain.NewInternalError("failed to count books", err)
	}

	order := "title ASC"
	if filter.Sort != "" {
		field := strings.TrimPrefix(filter.Sort, "-")
		if column, ok := sortableBookFields[field]; ok {
			order = column + " ASC"
			if strings.HasPrefix(filter.Sort, "-") {
				order = column + " DESC"
			}
		}
	}

	var books []model.Book
	if err := query.
		Order(order).
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&books).Error; err != nil {
		return nil, 0, domain.NewInternalError("failed to fetch books", err)
	}

	return books, total, nil
}

func (s *BookServiceImpl) GetBook(ctx context.Context, id uint) (*model.Book, error) {
	var book model.Book
	if err := s.db.WithContext(ctx).First(&book, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Book not found")
		}
		return nil, domain.NewInternalError("failed to fetch book", err)
	}
	return &book, nil
}

// SearchBooks matches each whitespace token against title, author,
// genre and description.
func (s *BookServiceImpl) SearchBooks(ctx context.Context, query string, page, pageSize int) ([]model.Book, int64, error) {
	page, pageSize = normalizePage(page, pageSize)

	q := s.db.WithContext(ctx).Model(&model.Book{})
	for _, token := range strings.Fields(strings.ToLower(query)) {
		pattern := "%" + token + "%"
		q = q.Where(
			"lower(title) LIKE ? OR lower(author) LIKE ? OR lower(genre) LIKE ? OR lower(description) LIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, domain.NewInternalError("failed to count search results", err)
	}

	var books []model.Book
	if err := q.
		Order("title ASC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&books).Error; err != nil {
		return nil, 0, domain.NewInternalError("failed to search books", err)
	}

	return books, total, nil
}

func (s *BookServiceImpl) CreateBook(ctx context.Context, book *model.Book) error {
	var existing model.Book
	err := s.db.WithContext(ctx).Where("isbn = ?", book.ISBN).First(&existing).Error
	if err == nil {
		return domain.NewConflictError("Book with this ISBN already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NewInternalError("failed to check ISBN", err)
	}

	if book.TotalCopies <= 0 {
		book.TotalCopies = 1
	}
	book.AvailableCopies = book.TotalCopies
	if book.CoverImage == "" {
		book.CoverImage = "default-book-cover.jpg"
	}

	if err := s.db.WithContext(ctx).Create(book).Error; err != nil {
		return domain.NewInternalError("failed to create book", err)
	}
	return nil
}

// UpdateBook applies a partial update. Growing the total copy count
// grows availability by the same amount; shrinking it reduces
// availability but never below zero.
func (s *BookServiceImpl) UpdateBook(ctx context.Context, id uint, updates domain.BookUpdate) (*model.Book, error) {
	var book model.Book
	if err := s.db.WithContext(ctx).First(&book, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Book not found")
		}
		return nil, domain.NewInternalError("failed to fetch book", err)
	}

	if updates.Title != nil {
		book.Title = *updates.Title
	}
	if updates.Author != nil {
		book.Author = *updates.Author
	}
	if updates.Genre != nil {
		book.Genre = *updates.Genre
	}
	if updates.Description != nil {
		book.Description = *updates.Description
	}
	if updates.PublishedDate != nil {
		book.PublishedDate = *updates.PublishedDate
	}
	if updates.CoverImage != nil {
		book.CoverImage = *updates.CoverImage
	}
	if updates.Location != nil {
		book.Location = *updates.Location
	}

	if updates.TotalCopies != nil {
		diff := *updates.TotalCopies - book.TotalCopies
		book.TotalCopies = *updates.TotalCopies
		book.AvailableCopies += diff
		if book.AvailableCopies < 0 {
			book.AvailableCopies = 0
		}
	}

	if updates.AvailableCopies != nil {
		if *updates.AvailableCopies > book.TotalCopies {
			return nil, domain.NewBadRequestError("Available copies cannot exceed total copies")
		}
		book.AvailableCopies = *updates.AvailableCopies
	}

	if err := s.db.WithContext(ctx).Save(&book).Error; err != nil {
		return nil, domain.NewInternalError("failed to update book", err)
	}

	if s.bus != nil {
		s.bus.Publish(event.Event{
			Type:   constants.EventBookUpdated,
			Source: "book-service",
			Data:   &book,
		})
	}

	return &book, nil
}

// DeleteBook removes a catalog entry that has no copies on loan.
func (s *BookServiceImpl) DeleteBook(ctx context.Context, id uint) error {
	var book model.Book
	if err := s.db.WithContext(ctx).First(&book, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NewNotFoundError("Book not found")
		}
		return domain.NewInternalError("failed to fetch book", err)
	}

	if book.AvailableCopies < book.TotalCopies {
		return domain.NewConflictError("Cannot delete book with copies on loan")
	}

	if err := s.db.WithContext(ctx).Delete(&book).Error; err != nil {
		return domain.NewInternalError("failed to delete book", err)
	}
	return nil
}

var _ domain.BookService = (*BookServiceImpl)(nil)
