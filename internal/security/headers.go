package security

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/care-scheduling-service/internal/config"
)

const cspPolicy = "default-src 'self'; script-src 'self'; style-src 'self'; " +
	"img-src 'self' data:; font-src 'self' data:; connect-src 'self'; " +
	"object-src 'none'; base-uri 'self'; form-action 'self'; frame-ancestors 'none'"

const permissionsPolicy = "geolocation=(), microphone=(), camera=(), payment=(), usb=()"

// Headers attaches the fixed security header set to every outbound response,
// regardless of how the request was resolved.
func Headers(app config.AppConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		c.Set("Content-Security-Policy", cspPolicy)
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("Permissions-Policy", permissionsPolicy)
		c.Set("Cache-Control", "no-cache, no-store, must-revalidate, private")
		c.Set("X-API-Version", app.Version)

		if app.IsProduction() {
			c.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		return err
	}
}

// CORS validates the Origin header against the configured allow list and
// emits CORS headers only for allowed origins.
func CORS(sec config.SecurityConfig) fiber.Handler {
	allowed := make(map[string]struct{}, len(sec.AllowedOrigins))
	for _, origin := range sec.AllowedOrigins {
		allowed[origin] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		origin := c.Get("Origin")
		if origin != "" {
			if _, ok := allowed[origin]; ok {
				c.Set("Access-Control-Allow-Origin", origin)
				c.Set("Access-Control-Allow-Credentials", "true")
				c.Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
				c.Set("Access-Control-Allow-Headers", "Authorization,Content-Type")
				c.Set("Access-Control-Max-Age", strconv.Itoa(86400))
				c.Set("Access-Control-Expose-Headers", "X-API-Version, X-RateLimit-Limit, X-RateLimit-Remaining, Retry-After")

				// Preflights only get the short-circuit when the origin passed
				// the allow list; everything else falls through to routing.
				if c.Method() == fiber.MethodOptions {
					return c.SendStatus(fiber.StatusNoContent)
				}
			}
		}
		return c.Next()
	}
}
