package handlers

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"pointflow/internal/models"
	"pointflow/internal/services"
	"pointflow/pkg/auth"
)

// AuthHandler handles signup and login.
type AuthHandler struct {
	jwtAuth *auth.JWTAuth
	users   *services.UserStore
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(jwtAuth *auth.JWTAuth, users *services.UserStore) *AuthHandler {
	return &AuthHandler{jwtAuth: jwtAuth, users: users}
}

// SignupRequest is the request body for signup
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the request body for login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is the payload for successful authentication
type AuthResponse struct {
	AccessToken  string              `json:"accessToken"`
	RefreshToken string              `json:"refreshToken"`
	User         models.UserResponse `json:"user"`
	ExpiresIn    int                 `json:"expiresIn"` // seconds
}

// Signup creates a new user account
// POST /api/auth/signup
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return respondErr(c, fiber.StatusBadRequest, "Invalid request body")
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return respondErr(c, fiber.StatusBadRequest, "Valid email address is required")
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		return respondErr(c, fiber.StatusBadRequest, err.Error())
	}

	ctx := c.Context()

	if existing, err := h.users.GetByEmail(ctx, req.Email); err == nil && existing != nil {
		return respondErr(c, fiber.StatusConflict, "User with this email already exists")
	} else if err != nil && !errors.Is(err, services.ErrNotFound) {
		log.Printf("❌ Failed to look up user: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Failed to create account")
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Printf("❌ Failed to hash password: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Failed to create account")
	}

	user, err := h.users.Create(ctx, req.Email, passwordHash, models.TierFree)
	if err != nil {
		log.Printf("❌ Failed to create user: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Failed to create account")
	}

	accessToken, refreshToken, err := h.jwtAuth.GenerateTokens(user.ID, user.Email, user.Tier)
	if err != nil {
		log.Printf("❌ Failed to generate tokens: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Failed to generate authentication tokens")
	}

	log.Printf("✅ User registered: %s (%s)", user.Email, user.ID)

	return respondOK(c, fiber.StatusCreated, AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user.ToResponse(),
		ExpiresIn:    int((15 * time.Minute).Seconds()),
	})
}

// Login authenticates a user
// POST /api/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return respondErr(c, fiber.StatusBadRequest, "Invalid request body")
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		return respondErr(c, fiber.StatusBadRequest, "Email and password are required")
	}

	ctx := c.Context()

	user, err := h.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			// Same message as a wrong password so emails cannot be probed.
			return respondErr(c, fiber.StatusUnauthorized, "Invalid email or password")
		}
		log.Printf("❌ Failed to look up user: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Login failed")
	}

	ok, err := auth.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil || !ok {
		return respondErr(c, fiber.StatusUnauthorized, "Invalid email or password")
	}

	accessToken, refreshToken, err := h.jwtAuth.GenerateTokens(user.ID, user.Email, user.Tier)
	if err != nil {
		log.Printf("❌ Failed to generate tokens: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Failed to generate authentication tokens")
	}

	if err := h.users.TouchLogin(ctx, user.ID); err != nil {
		log.Printf("⚠️  Failed to record login time: %v", err)
	}

	log.Printf("✅ User logged in: %s (%s)", user.Email, user.ID)

	return respondOK(c, fiber.StatusOK, AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user.ToResponse(),
		ExpiresIn:    int((15 * time.Minute).Seconds()),
	})
}
