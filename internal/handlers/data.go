package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"supportboard/internal/models"
	"supportboard/internal/services"
	"supportboard/internal/store"
)

// DataHandler serves the snapshot read/write endpoint consumed by the
// dashboard and the bot process.
type DataHandler struct {
	store       *store.Store
	broadcaster *services.Broadcaster
	metrics     *services.Metrics
}

// NewDataHandler creates a new data handler
func NewDataHandler(st *store.Store, broadcaster *services.Broadcaster, metrics *services.Metrics) *DataHandler {
	return &DataHandler{store: st, broadcaster: broadcaster, metrics: metrics}
}

// Get returns the current snapshot, or 304 when the caller's
// If-None-Match fingerprint still matches.
func (h *DataHandler) Get(c *fiber.Ctx) error {
	result, err := h.store.Load(c.Context())
	if err != nil {
		log.Printf("❌ [DATA] Load failed: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to load data from backend",
		})
	}

	c.Set(fiber.HeaderETag, result.Fingerprint)

	if match := c.Get(fiber.HeaderIfNoneMatch); match != "" && match == result.Fingerprint {
		h.metrics.SnapshotLoads.WithLabelValues("not_modified").Inc()
		return c.SendStatus(fiber.StatusNotModified)
	}

	h.metrics.SnapshotLoads.WithLabelValues("full").Inc()
	return c.JSON(fiber.Map{
		"snapshot": result.Snapshot,
		"etag":     result.Fingerprint,
		"durable":  result.Durable,
	})
}

// Post merges a partial snapshot and persists it. Write failures and
// verification failures surface as distinct structured errors.
func (h *DataHandler) Post(c *fiber.Ctx) error {
	var patch models.SnapshotPatch
	if err := c.BodyParser(&patch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Request body must be a JSON object",
		})
	}
	if patch.IsEmpty() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Request carries no recognized snapshot fields",
		})
	}

	result, err := h.store.Save(c.Context(), patch)
	if err != nil {
		return saveFailure(c, h.metrics, err)
	}

	if result.Durable {
		h.metrics.SnapshotSaves.Inc()
	} else {
		h.metrics.DegradedSaves.Inc()
	}

	h.broadcaster.Broadcast(services.ChangeEvent{
		Type:        "snapshot_changed",
		Fingerprint: result.Fingerprint,
		Durable:     result.Durable,
	})

	c.Set(fiber.HeaderETag, result.Fingerprint)
	response := fiber.Map{
		"snapshot": result.Snapshot,
		"etag":     result.Fingerprint,
		"durable":  result.Durable,
	}
	if result.Warning != "" {
		response["warning"] = result.Warning
	}
	if len(result.IgnoredFields) > 0 {
		response["ignoredFields"] = result.IgnoredFields
	}
	return c.JSON(response)
}

// saveFailure maps a failed store save onto the response, shared by
// every handler that writes the snapshot. Rejected writes and
// unverified writes surface distinctly; anything else is a plain 500.
func saveFailure(c *fiber.Ctx, metrics *services.Metrics, err error) error {
	var writeErr *store.WriteError
	if errors.As(err, &writeErr) {
		log.Printf("❌ [DATA] Write failed: %v", writeErr)
		metrics.SaveFailures.WithLabelValues("write_failure").Inc()
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":  "write_failure",
			"detail": "The backend rejected the write; nothing was committed for key " + writeErr.Key,
		})
	}

	var verifyErr *store.VerificationError
	if errors.As(err, &verifyErr) {
		log.Printf("❌ [DATA] %v", verifyErr)
		metrics.SaveFailures.WithLabelValues("verification_failure").Inc()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":      "verification_failure",
			"detail":     "The write was accepted but the read-back disagrees; durability is uncertain",
			"mismatches": verifyErr.Mismatches,
		})
	}

	log.Printf("❌ [DATA] Save failed: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Failed to save data",
	})
}
