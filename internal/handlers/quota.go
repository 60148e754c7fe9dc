package handlers

import (
	"github.com/gofiber/fiber/v2"

	"liuyao/internal/services"
)

// QuotaHandler serves quota standing, admin resets and usage statistics
type QuotaHandler struct {
	service *services.DivinationService
}

// NewQuotaHandler creates a new quota handler
func NewQuotaHandler(service *services.DivinationService) *QuotaHandler {
	return &QuotaHandler{service: service}
}

// Status reports how many casts a user has left today.
func (h *QuotaHandler) Status(c *fiber.Ctx) error {
	userID := c.Params("user")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user is required",
		})
	}

	status, err := h.service.QuotaStatus(userID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(status)
}

// Reset clears a user's usage for today. Routed behind the admin middleware.
func (h *QuotaHandler) Reset(c *fiber.Ctx) error {
	userID := c.Params("user")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user is required",
		})
	}

	if err := h.service.ResetQuota(userID); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"status": "reset", "user_id": userID})
}

// Stats aggregates today's usage across all users.
func (h *QuotaHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.service.Statistics()
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(stats)
}
