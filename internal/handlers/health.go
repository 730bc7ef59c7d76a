package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"supportboard/internal/services"
	"supportboard/internal/store"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	store       *store.Store
	broadcaster *services.Broadcaster
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(st *store.Store, broadcaster *services.Broadcaster) *HealthHandler {
	return &HealthHandler{store: st, broadcaster: broadcaster}
}

// Handle responds with server health status
func (h *HealthHandler) Handle(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":      "healthy",
		"durable":     h.store.Durable(c.Context()),
		"subscribers": h.broadcaster.Count(),
		"timestamp":   time.Now().Format(time.RFC3339),
	})
}
