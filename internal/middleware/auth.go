package middleware

import (
	"crypto/subtle"
	"log"

	"github.com/gofiber/fiber/v2"

	"supportboard/pkg/auth"
)

// RequireSession validates the dashboard session token on mutating
// routes. The verified session lands in c.Locals("session").
func RequireSession(sessionAuth *auth.SessionAuth) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := auth.ExtractToken(c.Get("Authorization"))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing or malformed Authorization header",
			})
		}

		session, err := sessionAuth.VerifyToken(token)
		if err != nil {
			log.Printf("❌ [AUTH] Invalid session token: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired session",
			})
		}

		c.Locals("session", session)
		return c.Next()
	}
}

// BotKey authenticates the bot process via a static X-API-Key header.
// With no key configured the routes it guards are disabled outright
// rather than left open.
func BotKey(expectedKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if expectedKey == "" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Bot API access is not configured",
			})
		}

		provided := c.Get("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(expectedKey)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid API key",
			})
		}

		c.Locals("auth_type", "bot_key")
		return c.Next()
	}
}
