package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"supportboard/internal/models"
	"supportboard/internal/services"
)

// ForumHandler exposes forum-post tracking to the bot process.
type ForumHandler struct {
	tracker *services.ForumTrackerService
}

// NewForumHandler creates a new forum handler
func NewForumHandler(tracker *services.ForumTrackerService) *ForumHandler {
	return &ForumHandler{tracker: tracker}
}

// Track registers a thread for tracking.
func (h *ForumHandler) Track(c *fiber.Ctx) error {
	var post models.TrackedPost
	if err := c.BodyParser(&post); err != nil || post.ThreadID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Request must carry a threadId",
		})
	}

	tracked, err := h.tracker.Track(c.Context(), post)
	if err != nil {
		log.Printf("❌ [FORUM] Track failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to track post",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(tracked)
}

type forumUpdateRequest struct {
	Status string `json:"status"`
	Solved bool   `json:"solved"`
}

// Update transitions a tracked thread's status.
func (h *ForumHandler) Update(c *fiber.Ctx) error {
	var req forumUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Request body must be a JSON object",
		})
	}

	switch req.Status {
	case models.ForumPostOpen, models.ForumPostAnswered, models.ForumPostClosed:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown status",
		})
	}

	post, err := h.tracker.UpdateStatus(c.Context(), c.Params("id"), req.Status, req.Solved)
	if errors.Is(err, services.ErrPostNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No tracked post with that thread id",
		})
	}
	if err != nil {
		log.Printf("❌ [FORUM] Update failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update post",
		})
	}
	return c.JSON(post)
}

// List returns tracked threads, optionally filtered by ?status=.
func (h *ForumHandler) List(c *fiber.Ctx) error {
	posts, err := h.tracker.List(c.Context(), c.Query("status"))
	if err != nil {
		log.Printf("❌ [FORUM] List failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list posts",
		})
	}
	return c.JSON(fiber.Map{"posts": posts})
}
