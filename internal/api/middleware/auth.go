package middleware

import (
	"errors"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"bookstack.io/internal/auth"
	"bookstack.io/internal/model"
)

// AuthMiddleware verifies the bearer token, loads the account, and runs
// the Casbin policy check (role, path, method). The account lookup also
// catches tokens for deactivated or deleted users.
func AuthMiddleware(enforcer *casbin.Enforcer, tokens *auth.TokenManager, db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Authentication required"})
		}

		tokenString := strings.Replace(authHeader, "Bearer ", "", 1)

		claims, err := tokens.Verify(c.UserContext(), tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid token"})
		}

		var user model.User
		if err := db.First(&user, claims.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "User not found or inactive"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "An unexpected error occurred"})
		}
		if !user.IsActive {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "User not found or inactive"})
		}

		// The DB is the source of truth for the role; a stale token
		// cannot keep privileges after a demotion.
		c.Locals("userID", user.ID)
		c.Locals("email", user.Email)
		c.Locals("role", user.Role)
		c.Locals("token", tokenString)

		permit, err := enforcer.Enforce(user.Role, c.Path(), c.Method())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Permission check failed"})
		}
		if !permit {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "Access denied: Insufficient permissions"})
		}

		return c.Next()
	}
}
