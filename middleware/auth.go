// middleware/auth.go
package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"mediahub/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	LocalUserID = "userId"
	LocalEmail  = "email"
)

type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for user valid for ttl.
func IssueToken(secret string, ttl time.Duration, user *models.User) (string, time.Time, error) {
	if secret == "" {
		return "", time.Time{}, errors.New("jwt secret not configured")
	}
	now := time.Now()
	expires := now.Add(ttl)
	claims := Claims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	if user.Email != nil {
		claims.Email = *user.Email
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

func ParseToken(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == "" {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// tokenFrom looks in the Authorization header, then the token cookie, then
// the token query parameter (browsers cannot set headers on websocket upgrades).
func tokenFrom(c *fiber.Ctx) (string, error) {
	if authHeader := c.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return "", errors.New("invalid authorization header format")
		}
		return parts[1], nil
	}
	if t := c.Cookies("token"); t != "" {
		return t, nil
	}
	return c.Query("token"), nil
}

// RequireAuth rejects requests without a valid token.
func RequireAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := tokenFrom(c)
		if err != nil {
			return unauthorized(c, "Invalid authorization header format")
		}
		if tokenString == "" {
			return unauthorized(c, "Missing authorization header")
		}
		claims, err := ParseToken(secret, tokenString)
		if err != nil {
			return unauthorized(c, "Invalid or expired token")
		}
		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalEmail, claims.Email)
		return c.Next()
	}
}

// OptionalAuth records the caller when a valid token is present and lets
// anonymous requests through.
func OptionalAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := tokenFrom(c)
		if err != nil || tokenString == "" {
			return c.Next()
		}
		if claims, err := ParseToken(secret, tokenString); err == nil {
			c.Locals(LocalUserID, claims.UserID)
			c.Locals(LocalEmail, claims.Email)
		}
		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": msg})
}

func GetUserID(c *fiber.Ctx) (string, error) {
	if id, ok := c.Locals(LocalUserID).(string); ok && id != "" {
		return id, nil
	}
	return "", fiber.NewError(fiber.StatusUnauthorized, "User not authenticated")
}

// GetEmail returns the email claim of the authenticated user, or "" when the token had none.
func GetEmail(c *fiber.Ctx) string {
	email, _ := c.Locals(LocalEmail).(string)
	return email
}
