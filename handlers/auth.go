// handlers/auth.go - email/password accounts and JWT sessions
package handlers

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"mediahub/middleware"
	"mediahub/models"
	"mediahub/services"
	"mediahub/utils"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Success   bool         `json:"success"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

// Register creates an account and signs the caller in
// POST /api/auth/register
func Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.JSONError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return utils.JSONError(c, fiber.StatusBadRequest, "A valid email is required")
	}
	if email == models.DemoUserEmail {
		return utils.JSONError(c, fiber.StatusConflict, "Email already registered")
	}
	if len(req.Password) < minPasswordLen {
		return utils.JSONError(c, fiber.StatusBadRequest, "Password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("hash password failed", "error", err)
		return utils.JSONError(c, fiber.StatusInternalServerError, "Failed to create account")
	}

	user := &models.User{
		Email:        &email,
		FirstName:    optionalString(&req.FirstName),
		LastName:     optionalString(&req.LastName),
		PasswordHash: string(hash),
	}
	if err := store.CreateUser(c.UserContext(), user); err != nil {
		if errors.Is(err, services.ErrConflict) {
			return utils.JSONError(c, fiber.StatusConflict, "Email already registered")
		}
		return respondError(c, err, "User not found", "Failed to create account")
	}

	return issueSession(c, fiber.StatusCreated, user)
}

// Login exchanges credentials for a token
// POST /api/auth/login
func Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil || req.Email == "" || req.Password == "" {
		return utils.JSONError(c, fiber.StatusBadRequest, "Email and password are required")
	}

	user, err := store.GetUserByEmail(c.UserContext(), req.Email)
	if err != nil && !errors.Is(err, services.ErrNotFound) {
		return respondError(c, err, "User not found", "Failed to sign in")
	}
	if user == nil || user.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return utils.JSONError(c, fiber.StatusUnauthorized, "Invalid email or password")
	}

	return issueSession(c, fiber.StatusOK, user)
}

// GetCurrentUser returns the signed-in user
// GET /api/auth/me
func GetCurrentUser(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return utils.JSONError(c, fiber.StatusUnauthorized, "User not authenticated")
	}
	user, err := store.GetUser(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err, "User not found", "Failed to fetch user")
	}
	// A token minted before the account's email changed no longer identifies it.
	if claimed := middleware.GetEmail(c); claimed != "" && (user.Email == nil || !strings.EqualFold(*user.Email, claimed)) {
		return utils.JSONError(c, fiber.StatusUnauthorized, "Session expired, please sign in again")
	}
	return c.JSON(user)
}

func issueSession(c *fiber.Ctx, status int, user *models.User) error {
	token, expires, err := middleware.IssueToken(cfg.JWTSecret, cfg.JWTTTL, user)
	if err != nil {
		log.Error("issue token failed", "userId", user.ID, "error", err)
		return utils.JSONError(c, fiber.StatusInternalServerError, "Failed to create session")
	}
	return c.Status(status).JSON(AuthResponse{
		Success:   true,
		Token:     token,
		ExpiresAt: expires,
		User:      user,
	})
}
