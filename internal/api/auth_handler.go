package api

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"bookstack.io/internal/auth"
	"bookstack.io/internal/domain"
	"bookstack.io/internal/model"
)

type AuthHandler struct {
	db     *gorm.DB
	users  domain.UserService
	tokens *auth.TokenManager
}

func NewAuthHandler(db *gorm.DB, users domain.UserService, tokens *auth.TokenManager) *AuthHandler {
	return &AuthHandler{db: db, users: users, tokens: tokens}
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	MembershipID string `json:"membershipId"`
	Token        string `json:"token"`
}

// Register creates a member account and returns a token. Staff accounts
// are created by admins through the user management API, never here.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request"})
	}

	user := model.User{
		Name:  req.Name,
		Email: req.Email,
		Role:  model.RoleUser,
	}
	if err := h.users.CreateUser(c.UserContext(), &user, req.Password); err != nil {
		return SendError(c, err)
	}

	token, err := h.tokens.Issue(&user)
	if err != nil {
		return SendError(c, domain.NewInternalError("failed to sign token", err))
	}

	return c.Status(fiber.StatusCreated).JSON(AuthResponse{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		Role:         user.Role,
		MembershipID: user.MembershipID,
		Token:        token,
	})
}

// Login authenticates by email and password.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request"})
	}

	var user model.User
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := h.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid email or password"})
		}
		return SendError(c, domain.NewInternalError("failed to fetch user", err))
	}

	if !user.IsActive {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Account is inactive"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid email or password"})
	}

	token, err := h.tokens.Issue(&user)
	if err != nil {
		return SendError(c, domain.NewInternalError("failed to sign token", err))
	}

	return c.JSON(AuthResponse{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		Role:         user.Role,
		MembershipID: user.MembershipID,
		Token:        token,
	})
}

// GetProfile returns the authenticated user's own account.
func (h *AuthHandler) GetProfile(c *fiber.Ctx) error {
	user, err := h.users.GetUser(c.UserContext(), actorID(c))
	if err != nil {
		return SendError(c, err)
	}
	return c.JSON(user)
}

type UpdateProfileRequest struct {
	Name           *string `json:"name"`
	Email          *string `json:"email"`
	ProfilePicture *string `json:"profilePicture"`
}

// UpdateProfile lets a user edit their own name, email and picture.
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request"})
	}

	var user model.User
	if err := h.db.First(&user, actorID(c)).Error; err != nil {
		return SendError(c, domain.NewNotFoundError("User not found"))
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.ProfilePicture != nil {
		user.ProfilePicture = *req.ProfilePicture
	}

	if err := h.db.Save(&user).Error; err != nil {
		return SendError(c, domain.NewInternalError("failed to update profile", err))
	}
	return c.JSON(&user)
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ChangePassword verifies the current password before replacing it.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request"})
	}

	var user model.User
	if err := h.db.First(&user, actorID(c)).Error; err != nil {
		return SendError(c, domain.NewNotFoundError("User not found"))
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Current password is incorrect"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return SendError(c, domain.NewInternalError("failed to hash password", err))
	}

	if err := h.db.Model(&user).Update("password", string(hashed)).Error; err != nil {
		return SendError(c, domain.NewInternalError("failed to update password", err))
	}
	return c.JSON(fiber.Map{"message": "Password updated successfully"})
}

// EnsureAdminUser creates a default admin account when the user table
// is empty, so a fresh deployment can be administered at all.
func (h *AuthHandler) EnsureAdminUser() {
	var count int64
	h.db.Model(&model.User{}).Count(&count)
	if count > 0 {
		return
	}

	log.Println("Auth: No users found. Creating default 'admin' user...")
	admin := model.User{
		Name:  "Administrator",
		Email: "admin@bookstack.local",
		Role:  model.RoleAdmin,
	}
	if err := h.users.CreateUser(context.Background(), &admin, "admin123"); err != nil {
		log.Printf("Failed to create admin user: %v", err)
		return
	}
	log.Println("Auth: Created default user: admin@bookstack.local / admin123")
}

// Logout revokes the current token until its natural expiry.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	token, _ := c.Locals("token").(string)
	if token != "" {
		if err := h.tokens.Revoke(c.UserContext(), token); err != nil {
			return SendError(c, domain.NewInternalError("failed to revoke token", err))
		}
	}
	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}
