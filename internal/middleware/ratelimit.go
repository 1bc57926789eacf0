package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/quietcut/api/pkg/response"
)

// UploadLimit caps uploads per client IP per hour. The limiter keeps its
// counters in process memory, matching the service's no-persistence model.
func UploadLimit(perHour int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        perHour,
		Expiration: time.Hour,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return response.RateLimited(c)
		},
	})
}
