// Package handlers exposes the HTTP surface. Handlers stay thin: decode,
// delegate to the service, map the typed error to a status code.
package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"liuyao/internal/models"
	"liuyao/internal/services"
)

// DivinationHandler handles cast requests
type DivinationHandler struct {
	service *services.DivinationService
}

// NewDivinationHandler creates a new divination handler
func NewDivinationHandler(service *services.DivinationService) *DivinationHandler {
	return &DivinationHandler{service: service}
}

// Divine runs one cast. The quota middleware has already parsed the body and
// verified the caller's quota.
func (h *DivinationHandler) Divine(c *fiber.Ctx) error {
	req, ok := c.Locals("divine_request").(*models.DivineRequest)
	if !ok {
		// Direct invocation without the middleware (tests, internal use).
		req = &models.DivineRequest{}
		if err := c.BodyParser(req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}
	}

	result, err := h.service.Divine(c.UserContext(), req)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(result)
}

// errorResponse maps the typed error taxonomy onto HTTP status codes.
func errorResponse(c *fiber.Ctx, err error) error {
	var vErr *models.ValidationError
	if errors.As(err, &vErr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": vErr.Error(),
			"field": vErr.Field,
		})
	}

	var sErr *models.StorageError
	if errors.As(err, &sErr) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Storage temporarily unavailable",
		})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": err.Error(),
	})
}
