package handlers

import (
	"github.com/gofiber/fiber/v2"

	"liuyao/internal/services"
)

// HistoryHandler serves stored casts
type HistoryHandler struct {
	service *services.DivinationService
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(service *services.DivinationService) *HistoryHandler {
	return &HistoryHandler{service: service}
}

// List returns a user's recent casts, newest first. The optional limit query
// parameter caps the count.
func (h *HistoryHandler) List(c *fiber.Ctx) error {
	userID := c.Params("user")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user is required",
		})
	}

	limit := c.QueryInt("limit", 0)
	records, err := h.service.History(userID, limit)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"user_id": userID,
		"count":   len(records),
		"records": records,
	})
}

// Clear drops a user's whole history.
func (h *HistoryHandler) Clear(c *fiber.Ctx) error {
	userID := c.Params("user")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user is required",
		})
	}

	if err := h.service.ClearHistory(userID); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"status": "cleared", "user_id": userID})
}
