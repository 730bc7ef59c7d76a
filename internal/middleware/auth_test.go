package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"supportboard/pkg/auth"
)

func okHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"ok": true})
}

func TestRequireSession(t *testing.T) {
	sessionAuth, err := auth.NewSessionAuth("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewSessionAuth failed: %v", err)
	}

	app := fiber.New()
	app.Get("/protected", RequireSession(sessionAuth), okHandler)

	resp, _ := app.Test(httptest.NewRequest("GET", "/protected", nil))
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("Missing header should yield 401, got %d", resp.StatusCode)
	}

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, _ = app.Test(req)
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("Garbage token should yield 401, got %d", resp.StatusCode)
	}

	token, err := sessionAuth.GenerateToken("admin", "admin")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	req = httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, _ = app.Test(req)
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("Valid token should pass, got %d", resp.StatusCode)
	}
}

func TestBotKey(t *testing.T) {
	app := fiber.New()
	app.Get("/bot", BotKey("expected-key"), okHandler)
	app.Get("/disabled", BotKey(""), okHandler)

	resp, _ := app.Test(httptest.NewRequest("GET", "/bot", nil))
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("Missing key should yield 401, got %d", resp.StatusCode)
	}

	req := httptest.NewRequest("GET", "/bot", nil)
	req.Header.Set("X-API-Key", "wrong")
	resp, _ = app.Test(req)
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("Wrong key should yield 401, got %d", resp.StatusCode)
	}

	req = httptest.NewRequest("GET", "/bot", nil)
	req.Header.Set("X-API-Key", "expected-key")
	resp, _ = app.Test(req)
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("Correct key should pass, got %d", resp.StatusCode)
	}

	req = httptest.NewRequest("GET", "/disabled", nil)
	req.Header.Set("X-API-Key", "expected-key")
	resp, _ = app.Test(req)
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Errorf("Unconfigured key should yield 503, got %d", resp.StatusCode)
	}
}
