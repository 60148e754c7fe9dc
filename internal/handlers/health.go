package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"liuyao/internal/reference"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	refs    *reference.Store
	started time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(refs *reference.Store) *HealthHandler {
	return &HealthHandler{refs: refs, started: time.Now()}
}

// Handle responds with server health status
func (h *HealthHandler) Handle(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"hexagrams": h.refs.Count(),
		"uptime":    time.Since(h.started).Round(time.Second).String(),
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
