package middleware

import (
	"github.com/gofiber/fiber/v2"

	"liuyao/internal/config"
)

// AdminMiddleware restricts a route to user IDs on the settings admin list.
// The caller identifies itself with the X-Admin-User header; there is no
// separate credential, matching the trusted-frontend deployment model.
func AdminMiddleware(settings *config.Settings) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get("X-Admin-User")
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Admin identification required",
			})
		}

		if !settings.IsAdmin(userID) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Admin access required",
			})
		}

		c.Locals("admin_user", userID)
		return c.Next()
	}
}
