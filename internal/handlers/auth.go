package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"supportboard/pkg/auth"
)

// AuthHandler issues dashboard session tokens against the configured
// admin password. The Discord OAuth exchange happens upstream; this is
// only the local session bookkeeping behind it.
type AuthHandler struct {
	sessionAuth       *auth.SessionAuth
	adminPasswordHash string
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(sessionAuth *auth.SessionAuth, adminPasswordHash string) *AuthHandler {
	return &AuthHandler{sessionAuth: sessionAuth, adminPasswordHash: adminPasswordHash}
}

type loginRequest struct {
	Password string `json:"password"`
}

// Login verifies the admin password and returns a session token.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	if h.sessionAuth == nil || h.adminPasswordHash == "" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Login is not configured",
		})
	}

	var req loginRequest
	if err := c.BodyParser(&req); err != nil || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Request must carry a password",
		})
	}

	ok, err := auth.VerifyPassword(h.adminPasswordHash, req.Password)
	if err != nil {
		log.Printf("❌ [AUTH] Password hash is malformed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Login is misconfigured",
		})
	}
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid password",
		})
	}

	token, err := h.sessionAuth.GenerateToken("admin", "admin")
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to issue session",
		})
	}

	return c.JSON(fiber.Map{"token": token})
}
