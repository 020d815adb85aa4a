package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/rdmlabs/agent-api/pkg/response"
)

type RateLimiter struct {
	redis *redis.Client
}

func NewRateLimiter(redisClient *redis.Client) *RateLimiter {
	return &RateLimiter{redis: redisClient}
}

// Limit creates a rate limiting middleware keyed by the purchaser identifier
// when the request carries one, falling back to the client IP.
func (rl *RateLimiter) Limit(keyPrefix string, maxRequests int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller := purchaserKey(c)
		if caller == "" {
			caller = c.IP()
		}

		key := fmt.Sprintf("ratelimit:%s:%s", keyPrefix, caller)
		ctx := context.Background()

		// Increment counter
		count, err := rl.redis.Incr(ctx, key).Result()
		if err != nil {
			// If Redis fails, allow the request but log the error
			return c.Next()
		}

		// Set expiration on first request
		if count == 1 {
			rl.redis.Expire(ctx, key, window)
		}

		if count > int64(maxRequests) {
			// Get TTL for retry-after header
			ttl, _ := rl.redis.TTL(ctx, key).Result()
			c.Set("Retry-After", fmt.Sprintf("%d", int(ttl.Seconds())))
			return response.RateLimited(c)
		}

		// Add rate limit headers
		c.Set("X-RateLimit-Limit", fmt.Sprintf("%d", maxRequests))
		c.Set("X-RateLimit-Remaining", fmt.Sprintf("%d", maxRequests-int(count)))

		return c.Next()
	}
}

// purchaserKey pulls the purchaser identifier out of the request body without
// consuming it. Returns "" when the body has none.
func purchaserKey(c *fiber.Ctx) string {
	var body struct {
		IdentifierFromPurchaser string `json:"identifier_from_purchaser"`
	}
	if err := c.BodyParser(&body); err != nil {
		return ""
	}
	return body.IdentifierFromPurchaser
}

// StartJobLimit returns a rate limiter for job creation (default 20 req/hour)
func (rl *RateLimiter) StartJobLimit(maxPerHour int) fiber.Handler {
	return rl.Limit("start_job", maxPerHour, time.Hour)
}

// ReflectionLimit returns a rate limiter for reflection check-ins (default 30 req/min)
func (rl *RateLimiter) ReflectionLimit(maxPerMin int) fiber.Handler {
	return rl.Limit("reflection", maxPerMin, time.Minute)
}

// CompletionLimit returns a rate limiter for goal completion (default 10 req/hour)
func (rl *RateLimiter) CompletionLimit(maxPerHour int) fiber.Handler {
	return rl.Limit("completion", maxPerHour, time.Hour)
}
