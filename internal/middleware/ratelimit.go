package middleware

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// RateLimitConfig holds per-IP rate limiting settings. These sit in front of
// the per-user daily quota and only guard against request floods.
type RateLimitConfig struct {
	GlobalAPIMax        int
	GlobalAPIExpiration time.Duration

	DivineMax        int
	DivineExpiration time.Duration
}

// DefaultRateLimitConfig returns production-safe defaults
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		// Global: 120/min = 2 req/sec - generous for normal use
		GlobalAPIMax:        120,
		GlobalAPIExpiration: 1 * time.Minute,

		// Casts: 20/min per IP; legitimate users are bounded by the daily
		// quota long before this
		DivineMax:        20,
		DivineExpiration: 1 * time.Minute,
	}
}

// LoadRateLimitConfig loads config from environment variables with defaults
func LoadRateLimitConfig() *RateLimitConfig {
	config := DefaultRateLimitConfig()

	if v := os.Getenv("RATE_LIMIT_GLOBAL_API"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.GlobalAPIMax = n
		}
	}
	if v := os.Getenv("RATE_LIMIT_DIVINE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.DivineMax = n
		}
	}

	if os.Getenv("ENVIRONMENT") == "development" {
		config.GlobalAPIMax = 1000
		config.DivineMax = 200
		log.Println("⚠️  [RATE-LIMIT] Development mode: using relaxed rate limits")
	}

	return config
}

// GlobalAPIRateLimiter creates a rate limiter for all API requests
func GlobalAPIRateLimiter(config *RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        config.GlobalAPIMax,
		Expiration: config.GlobalAPIExpiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "global:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			log.Printf("🚫 [RATE-LIMIT] Global limit reached for IP: %s", c.IP())
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Too many requests. Please slow down.",
				"retry_after": int(config.GlobalAPIExpiration.Seconds()),
			})
		},
	})
}

// DivineRateLimiter guards the cast endpoint specifically.
func DivineRateLimiter(config *RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        config.DivineMax,
		Expiration: config.DivineExpiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "divine:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			log.Printf("⚠️  [RATE-LIMIT] Divine endpoint limit reached for IP: %s", c.IP())
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Too many requests to this endpoint.",
				"retry_after": int(config.DivineExpiration.Seconds()),
			})
		},
	})
}
