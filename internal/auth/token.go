package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"bookstack.io/internal/config"
	"bookstack.io/internal/constants"
	"bookstack.io/internal/model"
)

var ErrTokenRevoked = errors.New("token has been revoked")

// Claims is the identity carried by a bearer token.
type Claims struct {
	UserID uint
	Email  string
	Role   string
}

// TokenManager issues and verifies bearer tokens. When a redis client is
// provided, logged-out tokens are denylisted until their natural expiry;
// with a nil client logout degrades to client-side token disposal.
type TokenManager struct {
	secret []byte
	expiry time.Duration
	rdb    *redis.Client
}

func NewTokenManager(cfg config.JWTConfig, rdb *redis.Client) *TokenManager {
	expiry := time.Duration(cfg.ExpiryHours) * time.Hour
	if cfg.ExpiryHours <= 0 {
		expiry = 72 * time.Hour
	}
	return &TokenManager{
		secret: []byte(cfg.Secret),
		expiry: expiry,
		rdb:    rdb,
	}
}

// Issue signs a token for the user.
func (m *TokenManager) Issue(user *model.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":    user.ID,
		"email": user.Email,
		"role":  user.Role,
		"exp":   time.Now().Add(m.expiry).Unix(),
	})
	return token.SignedString(m.secret)
}

// Verify parses and validates a token, rejecting revoked ones.
func (m *TokenManager) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	if m.rdb != nil {
		exists, err := m.rdb.Exists(ctx, denylistKey(tokenString)).Result()
		if err == nil && exists > 0 {
			return nil, ErrTokenRevoked
		}
	}

	id, _ := claims["id"].(float64)
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)

	return &Claims{
		UserID: uint(id),
		Email:  email,
		Role:   role,
	}, nil
}

// Revoke denylists a token until it would have expired anyway.
func (m *TokenManager) Revoke(ctx context.Context, tokenString string) error {
	if m.rdb == nil {
		return nil
	}

	ttl := m.expiry
	if token, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{}); err == nil {
		if exp, err := token.Claims.GetExpirationTime(); err == nil && exp != nil {
			if remaining := time.Until(exp.Time); remaining > 0 {
				ttl = remaining
			}
		}
	}

	return m.rdb.Set(ctx, denylistKey(tokenString), "1", ttl).Err()
}

// denylistKey keys on the signature segment to keep redis keys short.
func denylistKey(tokenString string) string {
	parts := strings.Split(tokenString, ".")
	sig := parts[len(parts)-1]
	return constants.RedisTokenDenylistPrefix + sig
}
