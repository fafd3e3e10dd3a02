package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/iommarket/marketplace/app/repository"
	"github.com/iommarket/marketplace/internal/pkg/payments"
	"github.com/iommarket/marketplace/internal/pkg/ratelimit"
	"github.com/iommarket/marketplace/internal/pkg/sitesettings"
)

// Shared collaborators, wired once during router setup.
var (
	limiter      *ratelimit.Limiter
	settings     *sitesettings.Cache
	stripeClient *payments.Client
	processor    *payments.Processor
)

// Setup wires the controllers' collaborators. Must run before routes are
// registered.
func Setup(repos *repository.Repositories) {
	limiter = ratelimit.NewLimiter()
	settings = sitesettings.NewCache(repos.Setting, sitesettings.DefaultTTL)
	stripeClient = payments.NewClientFromEnv()
	processor = payments.NewProcessor(payments.NewRepository(repos))
}

// checkRateLimit enforces a limit and writes the 429 response on denial.
// Returns true when the request may proceed.
func checkRateLimit(c *fiber.Ctx, scope, identity string, cfg ratelimit.Config) bool {
	res := limiter.Check(ratelimit.Key(scope, identity), cfg)
	if res.Allowed {
		return true
	}
	c.Set("Retry-After", res.RetryAfterHeader())
	_ = c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
		"error":       "rate_limited",
		"message":     "Too many requests, slow down",
		"retry_after": res.RetryAfter.Seconds(),
	})
	return false
}

// GetClientIP determines the actual client IP address considering proxies.
func GetClientIP(c *fiber.Ctx) string {
	if cfIP := strings.TrimSpace(c.Get("CF-Connecting-IP")); cfIP != "" {
		return cfIP
	}
	if xff := c.Get("X-Forwarded-For"); xff != "" {
		// The first entry is the original client.
		parts := strings.Split(xff, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	return c.IP()
}
