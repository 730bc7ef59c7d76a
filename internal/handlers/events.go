package handlers

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"supportboard/internal/services"
)

// EventsHandler upgrades dashboard clients to a websocket that streams
// snapshot change events.
type EventsHandler struct {
	broadcaster *services.Broadcaster
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(broadcaster *services.Broadcaster) *EventsHandler {
	return &EventsHandler{broadcaster: broadcaster}
}

// Upgrade rejects plain HTTP requests on the websocket route.
func (h *EventsHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Handle runs one subscriber connection until it drops.
func (h *EventsHandler) Handle() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		connID := uuid.New().String()

		// Read pump: clients send nothing meaningful, but reading is
		// how we notice the connection closing.
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					h.broadcaster.Remove(connID)
					return
				}
			}
		}()

		// Blocks until the connection is removed.
		h.broadcaster.Add(connID, conn)
	})
}
