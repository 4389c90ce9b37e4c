package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"bookstack.io/internal/domain"
	"bookstack.io/internal/model"
)

// UserServiceImpl implements domain.UserService.
type UserServiceImpl struct {
	db                    *gorm.DB
	defaultBorrowingLimit int
}

func NewUserService(db *gorm.DB, defaultBorrowingLimit int) *UserServiceImpl {
	if defaultBorrowingLimit <= 0 {
		defaultBorrowingLimit = 5
	}
	return &UserServiceImpl{db: db, defaultBorrowingLimit: defaultBorrowingLimit}
}

// GenerateMembershipID produces ids like LIB202634127.
func GenerateMembershipID() string {
	return fmt.Sprintf("LIB%d%05d", time.Now().Year(), 10000+rand.Intn(90000))
}

func (s *UserServiceImpl) GetUsers(ctx context.Context, filter domain.UserFilter, page, pageSize int) ([]model.User, int64, error) {
	page, pageSize = normalizePage(page, pageSize)

	query := s.db.WithContext(ctx).Model(&model.User{})

	if filter.Name != "" {
		query = query.Where("lower(name) LIKE ?", "%"+strings.ToLower(filter.Name)+"%")
	}
	if filter.Email != "" {
		query = query.Where("lower(email) LIKE ?", "%"+strings.ToLower(filter.Email)+"%")
	}
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, domain.NewInternalError("failed to count users", err)
	}

	var users []model.User
	if err := query.
		Order("created_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&users).Error; err != nil {
		return nil, 0, domain.NewInternalError("failed to fetch users", err)
	}

	return users, total, nil
}

func (s *UserServiceImpl) GetUser(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("User not found")
		}
		return nil, domain.NewInternalError("failed to fetch user", err)
	}
	return &user, nil
}

// CreateUser registers an account. Emails are unique case-insensitively;
// they are normalized to lowercase before storage.
func (s *UserServiceImpl) CreateUser(ctx context.Context, user *model.User, plainPassword string) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Email == "" || plainPassword == "" {
		return domain.NewBadRequestError("Email and password are required")
	}

	var existing model.User
	err := s.db.WithContext(ctx).Where("email = ?", user.Email).First(&existing).Error
	if err == nil {
		return domain.NewConflictError("User already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NewInternalError("failed to check email", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plainPassword), bcrypt.DefaultCost)
	if err != nil {
		return domain.NewInternalError("failed to hash password", err)
	}
	user.Password = string(hashed)

	if user.Role == "" {
		user.Role = model.RoleUser
	}
	if user.MembershipID == "" {
		user.MembershipID = GenerateMembershipID()
	}
	if user.BorrowingLimit <= 0 {
		user.BorrowingLimit = s.defaultBorrowingLimit
	}
	user.IsActive = true

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return domain.NewInternalError("failed to create user", err)
	}
	return nil
}

// UpdateUser applies a partial update. Role changes are honored only
// when the actor is an admin; other actors' role fields are ignored.
func (s *UserServiceImpl) UpdateUser(ctx context.Context, id uint, updates domain.UserUpdate, actorRole string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("User not found")
		}
		return nil, domain.NewInternalError("failed to fetch user", err)
	}

	if updates.Name != nil {
		user.Name = *updates.Name
	}
	if updates.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*updates.Email))
	}
	if updates.Role != nil && actorRole == model.RoleAdmin {
		user.Role = *updates.Role
	}
	if updates.BorrowingLimit != nil {
		user.BorrowingLimit = *updates.BorrowingLimit
	}
	if updates.IsActive != nil {
		user.IsActive = *updates.IsActive
	}

	if err := s.db.WithContext(ctx).Save(&user).Error; err != nil {
		return nil, domain.NewInternalError("failed to update user", err)
	}
	return &user, nil
}

// DeleteUser removes an account that holds no borrowed books.
func (s *UserServiceImpl) DeleteUser(ctx context.Context, id uint) error {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NewNotFoundError("User not found")
		}
		return domain.NewInternalError("failed to fetch user", err)
	}

	if user.BorrowedBooks > 0 {
		return domain.NewConflictError("Cannot delete user with borrowed books")
	}

	if err := s.db.WithContext(ctx).Delete(&user).Error; err != nil {
		return domain.NewInternalError("failed to delete user", err)
	}
	return nil
}

var _ domain.UserService = (*UserServiceImpl)(nil)
