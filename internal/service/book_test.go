package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstack.io/internal/domain"
	"bookstack.io/internal/model"
)

func TestCreateBookDefaults(t *testing.T) {
	db := newTestDB(t)
	svc := NewBookService(db, nil)

	book := &model.Book{
		Title:       "The Go Programming Language",
		Author:      "Donovan & Kernighan",
		ISBN:        "978-0-13-419044-0",
		TotalCopies: 4,
	}
	require.NoError(t, svc.CreateBook(context.Background(), book))

	assert.Equal(t, 4, book.AvailableCopies)
	assert.Equal(t, "default-book-cover.jpg", book.CoverImage)
	assert.Equal(t, model.BookStatusAvailable, book.Status)
}

func TestCreateBookDuplicateISBN(t *testing.T) {
	db := newTestDB(t)
	svc := NewBookService(db, nil)

	book := &model.Book{Title: "First", Author: "A", ISBN: "978-1-0000-0001-0"}
	require.NoError(t, svc.CreateBook(context.Background(), book))

	dup := &model.Book{Title: "Second", Author: "B", ISBN: "978-1-0000-0001-0"}
	err := svc.CreateBook(context.Background(), dup)
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Contains(t, err.Error(), "ISBN already exists")
}

func TestUpdateBookCopyReconciliation(t *testing.T) {
	db := newTestDB(t)
	svc := NewBookService(db, nil)
	book := createTestBook(t, db, 3, 1) // two copies out on loan

	// Growing the total grows availability by the same amount.
	five := 5
	updated, err := svc.UpdateBook(context.Background(), book.ID, domain.BookUpdate{TotalCopies: &five})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.TotalCopies)
	assert.Equal(t, 3, updated.AvailableCopies)

	// Shrinking below the loaned-out count floors availability at zero.
	one := 1
	updated, err = svc.UpdateBook(context.Background(), book.ID, domain.BookUpdate{TotalCopies: &one})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.TotalCopies)
	assert.Equal(t, 0, updated.AvailableCopies)
	assert.Equal(t, model.BookStatusUnavailable, updated.Status)
}

func TestUpdateBookAvailableCannotExceedTotal(t *testing.T) {
	db := newTestDB(t)
	svc := NewBookService(db, nil)
	book := createTestBook(t, db, 2, 1)

	three := 3
	_, err := svc.UpdateBook(context.Background(), book.ID, domain.BookUpdate{AvailableCopies: &three})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "cannot exceed total")
}

func TestDeleteBookWithCopiesOnLoan(t *testing.T) {
	db := newTestDB(t)
	svc := NewBookService(db, nil)
	onLoan := createTestBook(t, db, 2, 1)
	idle := createTestBook(t, db, 2, 2)

	err := svc.DeleteBook(context.Background(), onLoan.ID)
	require.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, svc.DeleteBook(context.Background(), idle.ID))
	_, err = svc.GetBook(context.Background(), idle.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetBooksFilters(t *testing.T) {
	db := newTestDB(t)
	svc := NewBookService(db, nil)

	require.NoError(t, svc.CreateBook(context.Background(), &model.Book{
		Title: "Dune", Author: "Frank Herbert", ISBN: "978-2-0000-0001-0", Genre: "Science Fiction",
	}))
	require.NoError(t, svc.CreateBook(context.Background(), &model.Book{
		Title: "Hyperion", Author: "Dan Simmons", ISBN: "978-2-0000-0002-0", Genre: "Science Fiction",
	}))
	gone := &model.Book{Title: "Neuromancer", Author: "William Gibson", ISBN: "978-2-0000-0003-0", Genre: "Science Fiction"}
	require.NoError(t, svc.CreateBook(context.Background(), gone))
	require.NoError(t, db.Model(gone).Update("available_copies", 0).Error)

	books, total, err := svc.GetBooks(context.Background(), domain.BookFilter{Author: "herbert"}, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Title)

	available := true
	books, total, err = svc.GetBooks(context.Background(), domain.BookFilter{Available: &available}, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	for _, b := range books {
		assert.Greater(t, b.AvailableCopies, 0)
	}

	// Default ordering is by title.
	books, _, err = svc.GetBooks(context.Background(), domain.BookFilter{}, 1, 10)
	require.NoError(t, err)
	require.Len(t, books, 3)
	assert.Equal(t, "Dune", books[0].Title)
	assert.Equal(t, "Hyperion", books[1].Title)
	assert.Equal(t, "Neuromancer", books[2].Title)
}

func TestSearchBooks(t *testing.T) {
	db := newTestDB(t)
	svc := NewBookService(db, nil)

	require.NoError(t, svc.CreateBook(context.Background(), &model.Book{
		Title: "The Left Hand of Darkness", Author: "Ursula K. Le Guin", ISBN: "978-3-0000-0001-0",
		Description: "An envoy on a winter planet",
	}))
	require.NoError(t, svc.CreateBook(context.Background(), &model.Book{
		Title: "A Wizard of Earthsea", Author: "Ursula K. Le Guin", ISBN: "978-3-0000-0002-0",
	}))

	// Every token must match, across any of the text fields.
	books, total, err := svc.SearchBooks(context.Background(), "le guin winter", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, books, 1)
	assert.Equal(t, "The Left Hand of Darkness", books[0].Title)

	_, total, err = svc.SearchBooks(context.Background(), "le guin", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}
