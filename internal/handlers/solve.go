package handlers

import (
	"encoding/json"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"supportboard/internal/models"
	"supportboard/internal/services"
	"supportboard/internal/store"
)

// SolveHandler drives the solve-and-summarize flow: a solved thread's
// conversation becomes a pending knowledge entry awaiting review.
type SolveHandler struct {
	store       *store.Store
	summarizer  *services.Summarizer
	tracker     *services.ForumTrackerService
	broadcaster *services.Broadcaster
	metrics     *services.Metrics
}

// NewSolveHandler creates a new solve handler
func NewSolveHandler(st *store.Store, summarizer *services.Summarizer, tracker *services.ForumTrackerService, broadcaster *services.Broadcaster, metrics *services.Metrics) *SolveHandler {
	return &SolveHandler{
		store:       st,
		summarizer:  summarizer,
		tracker:     tracker,
		broadcaster: broadcaster,
		metrics:     metrics,
	}
}

type solveRequest struct {
	Conversation []services.ConversationMessage `json:"conversation"`
}

// Solve summarizes the thread and queues the result for moderation.
func (h *SolveHandler) Solve(c *fiber.Ctx) error {
	threadID := c.Params("id")

	var req solveRequest
	if err := c.BodyParser(&req); err != nil || len(req.Conversation) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Request must carry a non-empty conversation",
		})
	}

	if !h.summarizer.Enabled() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Summarization is not configured",
		})
	}

	entry, err := h.summarizer.Summarize(c.Context(), threadID, req.Conversation)
	if err != nil {
		h.metrics.SummaryFailures.Inc()
		log.Printf("❌ [SOLVE] Summarization failed for thread %s: %v", threadID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Summarization failed",
		})
	}
	h.metrics.SummariesProduced.Inc()

	result, err := h.store.Load(c.Context())
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to load data from backend",
		})
	}

	pending := append(result.Snapshot.PendingEntries, *entry)
	raw, err := json.Marshal(pending)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to encode pending entries",
		})
	}

	saveResult, err := h.store.Save(c.Context(), models.SnapshotPatch{PendingEntries: raw})
	if err != nil {
		log.Printf("❌ [SOLVE] Save failed for thread %s: %v", threadID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to queue the summary",
		})
	}

	// Mark the thread answered if it is being tracked; an untracked
	// thread is not an error.
	if _, err := h.tracker.UpdateStatus(c.Context(), threadID, models.ForumPostAnswered, true); err != nil && !errors.Is(err, services.ErrPostNotFound) {
		log.Printf("⚠️  [SOLVE] Could not update tracked post %s: %v", threadID, err)
	}

	h.broadcaster.Broadcast(services.ChangeEvent{
		Type:        "snapshot_changed",
		Fingerprint: saveResult.Fingerprint,
		Durable:     saveResult.Durable,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"entry":   entry,
		"etag":    saveResult.Fingerprint,
		"durable": saveResult.Durable,
		"warning": saveResult.Warning,
	})
}
