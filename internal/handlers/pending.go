package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"

	"supportboard/internal/models"
	"supportboard/internal/services"
	"supportboard/internal/store"
)

// PendingHandler moderates the pending-entry queue: approval promotes
// a candidate into the knowledge base, discard drops it.
type PendingHandler struct {
	store       *store.Store
	broadcaster *services.Broadcaster
	metrics     *services.Metrics
}

// NewPendingHandler creates a new pending handler
func NewPendingHandler(st *store.Store, broadcaster *services.Broadcaster, metrics *services.Metrics) *PendingHandler {
	return &PendingHandler{store: st, broadcaster: broadcaster, metrics: metrics}
}

// Approve promotes a pending entry to a knowledge entry.
func (h *PendingHandler) Approve(c *fiber.Ctx) error {
	id := c.Params("id")

	result, err := h.store.Load(c.Context())
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to load data from backend",
		})
	}

	snapshot := result.Snapshot
	idx := -1
	for i, pending := range snapshot.PendingEntries {
		if pending.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No pending entry with that id",
		})
	}

	promoted := snapshot.PendingEntries[idx].Promote()
	entries := append(snapshot.KnowledgeEntries, promoted)
	remaining := append(snapshot.PendingEntries[:idx:idx], snapshot.PendingEntries[idx+1:]...)

	saveResult, err := h.savePatch(c.Context(), entries, remaining)
	if err != nil {
		return saveFailure(c, h.metrics, err)
	}

	log.Printf("✅ [PENDING] Approved entry %s (%q)", id, promoted.Title)
	return c.JSON(fiber.Map{
		"entry":   promoted,
		"etag":    saveResult.Fingerprint,
		"durable": saveResult.Durable,
		"warning": saveResult.Warning,
	})
}

// Discard removes a pending entry without promoting it.
func (h *PendingHandler) Discard(c *fiber.Ctx) error {
	id := c.Params("id")

	result, err := h.store.Load(c.Context())
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to load data from backend",
		})
	}

	snapshot := result.Snapshot
	remaining := make([]models.PendingKnowledgeEntry, 0, len(snapshot.PendingEntries))
	found := false
	for _, pending := range snapshot.PendingEntries {
		if pending.ID == id {
			found = true
			continue
		}
		remaining = append(remaining, pending)
	}
	if !found {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No pending entry with that id",
		})
	}

	saveResult, err := h.savePatch(c.Context(), nil, remaining)
	if err != nil {
		return saveFailure(c, h.metrics, err)
	}

	log.Printf("🗑️  [PENDING] Discarded entry %s", id)
	return c.JSON(fiber.Map{
		"etag":    saveResult.Fingerprint,
		"durable": saveResult.Durable,
		"warning": saveResult.Warning,
	})
}

// savePatch persists the updated collections and broadcasts the new
// fingerprint. A nil entries slice means "leave knowledgeEntries as is".
// Save errors come back unmapped so callers can route them through
// saveFailure.
func (h *PendingHandler) savePatch(ctx context.Context, entries []models.KnowledgeEntry, pending []models.PendingKnowledgeEntry) (*store.SaveResult, error) {
	patch := models.SnapshotPatch{}

	if entries != nil {
		raw, err := json.Marshal(entries)
		if err != nil {
			return nil, fmt.Errorf("encode entries: %w", err)
		}
		patch.KnowledgeEntries = raw
	}
	raw, err := json.Marshal(pending)
	if err != nil {
		return nil, fmt.Errorf("encode pending entries: %w", err)
	}
	patch.PendingEntries = raw

	saveResult, err := h.store.Save(ctx, patch)
	if err != nil {
		return nil, err
	}

	h.broadcaster.Broadcast(services.ChangeEvent{
		Type:        "snapshot_changed",
		Fingerprint: saveResult.Fingerprint,
		Durable:     saveResult.Durable,
	})
	return saveResult, nil
}
