package handlers

import (
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"supportboard/internal/retrieval"
	"supportboard/internal/services"
	"supportboard/internal/store"
)

// RetrievalHandler answers free-text queries against the current
// snapshot: auto-response short-circuit first, scored knowledge
// retrieval second.
type RetrievalHandler struct {
	store    *store.Store
	weights  retrieval.Weights
	classify retrieval.Classifier
	metrics  *services.Metrics
}

// NewRetrievalHandler creates a new retrieval handler
func NewRetrievalHandler(st *store.Store, weights retrieval.Weights, metrics *services.Metrics) *RetrievalHandler {
	return &RetrievalHandler{
		store:    st,
		weights:  weights,
		classify: retrieval.ClassifyIssue,
		metrics:  metrics,
	}
}

type retrievalRequest struct {
	Query string `json:"query"`
}

// Query runs the retrieval pipeline for one query string.
func (h *RetrievalHandler) Query(c *fiber.Ctx) error {
	var req retrievalRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Request body must be a JSON object with a query field",
		})
	}
	if strings.TrimSpace(req.Query) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Query must not be empty",
		})
	}

	result, err := h.store.Load(c.Context())
	if err != nil {
		log.Printf("❌ [RETRIEVAL] Load failed: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to load data from backend",
		})
	}

	h.metrics.RetrievalQueries.Inc()
	started := time.Now()
	defer func() {
		h.metrics.RetrievalLatency.Observe(time.Since(started).Seconds())
	}()

	classification := h.classify(req.Query)

	if match := retrieval.MatchAutoResponse(req.Query, result.Snapshot.AutoResponses); match != nil {
		h.metrics.AutoResponseHits.Inc()
		return c.JSON(fiber.Map{
			"type":           "auto_response",
			"autoResponse":   match,
			"classification": classification,
		})
	}

	scored := h.weights.Rank(req.Query, result.Snapshot.KnowledgeEntries)
	return c.JSON(fiber.Map{
		"type":           "knowledge",
		"results":        scored,
		"classification": classification,
	})
}
