package middleware

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"liuyao/internal/models"
	"liuyao/internal/quota"
	"liuyao/internal/services"
)

// QuotaLimiter rejects casts from users who exhausted their daily quota
// before any computation happens. The successful cast is charged inside the
// service, not here, so a failed cast never burns a use.
type QuotaLimiter struct {
	quota *quota.Store
}

// NewQuotaLimiter creates the quota middleware.
func NewQuotaLimiter(quotaStore *quota.Store) *QuotaLimiter {
	return &QuotaLimiter{quota: quotaStore}
}

// CheckLimit parses the divine request body, verifies the caller still has
// quota for today, and stashes the parsed request for the handler.
func (ql *QuotaLimiter) CheckLimit(c *fiber.Ctx) error {
	var req models.DivineRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.UserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user_id is required",
		})
	}

	allowed, err := ql.quota.CheckAllowed(req.UserID)
	if err != nil {
		log.Printf("⚠️  [QUOTA] Check failed for %s: %v", req.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Quota check failed",
		})
	}
	if !allowed {
		if m := services.GetMetrics(); m != nil {
			m.QuotaDenials.Inc()
		}
		used := ql.quota.DailyMax()
		if remaining, err := ql.quota.Remaining(req.UserID); err == nil {
			used = ql.quota.DailyMax() - remaining
		}
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error":    "Daily divination limit exceeded",
			"limit":    ql.quota.DailyMax(),
			"used":     used,
			"reset_at": ql.quota.NextResetTime().Format(time.RFC3339),
		})
	}

	// Hand the parsed body to the handler so it is not parsed twice.
	c.Locals("divine_request", &req)
	return c.Next()
}
