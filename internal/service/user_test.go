package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"bookstack.io/internal/domain"
	"bookstack.io/internal/model"
)

func TestCreateUserDefaults(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, 5)

	user := &model.User{Name: "Alice", Email: "  Alice@Example.COM "}
	require.NoError(t, svc.CreateUser(context.Background(), user, "secret123"))

	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, model.RoleUser, user.Role)
	assert.Equal(t, 5, user.BorrowingLimit)
	assert.True(t, user.IsActive)
	assert.True(t, strings.HasPrefix(user.MembershipID, "LIB"))

	// Password is stored hashed, never in the clear.
	assert.NotEqual(t, "secret123", user.Password)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("secret123")))
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, 5)

	require.NoError(t, svc.CreateUser(context.Background(), &model.User{Name: "Alice", Email: "alice@example.com"}, "pw123456"))

	// Emails are unique case-insensitively.
	err := svc.CreateUser(context.Background(), &model.User{Name: "Imposter", Email: "ALICE@example.com"}, "pw123456")
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Contains(t, err.Error(), "User already exists")
}

func TestCreateUserRequiresEmailAndPassword(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, 5)

	err := svc.CreateUser(context.Background(), &model.User{Name: "No Email"}, "pw123456")
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	err = svc.CreateUser(context.Background(), &model.User{Name: "No Password", Email: "x@example.com"}, "")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpdateUserRoleChangeRequiresAdmin(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, 5)
	user := createTestUser(t, db, 5, 0)

	librarian := model.RoleLibrarian

	// A non-admin actor's role field is ignored.
	updated, err := svc.UpdateUser(context.Background(), user.ID, domain.UserUpdate{Role: &librarian}, model.RoleLibrarian)
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, updated.Role)

	updated, err = svc.UpdateUser(context.Background(), user.ID, domain.UserUpdate{Role: &librarian}, model.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, model.RoleLibrarian, updated.Role)
}

func TestDeleteUserWithBorrowedBooks(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, 5)
	holding := createTestUser(t, db, 5, 1)
	settled := createTestUser(t, db, 5, 0)

	err := svc.DeleteUser(context.Background(), holding.ID)
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Contains(t, err.Error(), "borrowed books")

	require.NoError(t, svc.DeleteUser(context.Background(), settled.ID))
	_, err = svc.GetUser(context.Background(), settled.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetUsersFilters(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, 5)

	member := createTestUser(t, db, 5, 0)
	staff := createTestUser(t, db, 5, 0)
	require.NoError(t, db.Model(staff).Update("role", model.RoleLibrarian).Error)
	inactive := createTestUser(t, db, 5, 0)
	require.NoError(t, db.Model(inactive).Update("is_active", false).Error)

	users, total, err := svc.GetUsers(context.Background(), domain.UserFilter{Role: model.RoleLibrarian}, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, users, 1)
	assert.Equal(t, staff.ID, users[0].ID)

	active := true
	users, total, err = svc.GetUsers(context.Background(), domain.UserFilter{IsActive: &active}, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	for _, u := range users {
		assert.NotEqual(t, inactive.ID, u.ID)
	}

	_, total, err = svc.GetUsers(context.Background(), domain.UserFilter{Name: member.Name}, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestGenerateMembershipIDFormat(t *testing.T) {
	id := GenerateMembershipID()
	assert.True(t, strings.HasPrefix(id, "LIB"))
	assert.Len(t, id, 12) // LIB + year + five digits
}
