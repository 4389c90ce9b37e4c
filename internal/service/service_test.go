package service

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bookstack.io/internal/infra"
	"bookstack.io/internal/model"
)

// newTestDB opens an isolated in-memory database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// The in-memory database exists per connection.
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, infra.AutoMigrate(db))
	return db
}

var testUserSeq int

func createTestUser(t *testing.T, db *gorm.DB, limit, borrowed int) *model.User {
	t.Helper()

	testUserSeq++
	user := &model.User{
		Name:           fmt.Sprintf("Member %d", testUserSeq),
		Email:          fmt.Sprintf("member%d@example.com", testUserSeq),
		Password:       "not-a-real-hash",
		Role:           model.RoleUser,
		MembershipID:   fmt.Sprintf("LIB2026%05d", testUserSeq),
		BorrowingLimit: limit,
		IsActive:       true,
	}
	require.NoError(t, db.Create(user).Error)
	if borrowed != 0 {
		require.NoError(t, db.Model(user).Update("borrowed_books", borrowed).Error)
		user.BorrowedBooks = borrowed
	}
	return user
}

var testBookSeq int

func createTestBook(t *testing.T, db *gorm.DB, total, available int) *model.Book {
	t.Helper()

	testBookSeq++
	book := &model.Book{
		Title:           fmt.Sprintf("Test Book %d", testBookSeq),
		Author:          "Test Author",
		ISBN:            fmt.Sprintf("978-0-0000-%04d-0", testBookSeq),
		Genre:           "Fiction",
		TotalCopies:     total,
		AvailableCopies: available,
	}
	require.NoError(t, db.Create(book).Error)
	// Zero values would be replaced by the column defaults on insert.
	require.NoError(t, db.Model(book).Update("available_copies", available).Error)
	book.AvailableCopies = available
	return book
}

func reloadUser(t *testing.T, db *gorm.DB, id uint) *model.User {
	t.Helper()
	var user model.User
	require.NoError(t, db.First(&user, id).Error)
	return &user
}

func reloadBook(t *testing.T, db *gorm.DB, id uint) *model.Book {
	t.Helper()
	var book model.Book
	require.NoError(t, db.First(&book, id).Error)
	return &book
}
