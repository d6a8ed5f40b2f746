package security

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/care-scheduling-service/internal/auth"
	"github.com/spec-kit/care-scheduling-service/internal/observability"
	apperrors "github.com/spec-kit/care-scheduling-service/pkg/util"
)

// Decision is the outcome of a limiter check for one request.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// LimiterStore tracks request counts per key. Implementations must make the
// increment-and-check atomic so concurrent requests from the same identity
// cannot undercount.
type LimiterStore interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// RateLimit throttles requests per identity, falling back to the source
// address for unauthenticated callers. Store failures fail open: a broken
// counter backend must not take the API down.
func RateLimit(store LimiterStore, threshold int, metrics *observability.Metrics, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := "ip:" + c.IP()
		if principal, ok := auth.PrincipalFromContext(c); ok {
			key = "user:" + principal.User.ID
		}

		decision, err := store.Allow(c.UserContext(), key)
		if err != nil {
			logger.Warn("rate limit store unavailable", zap.Error(err))
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(threshold))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))

		if !decision.Allowed {
			retrySec := int(decision.RetryAfter.Seconds())
			if retrySec < 1 {
				retrySec = 1
			}
			c.Set("Retry-After", strconv.Itoa(retrySec))
			if metrics != nil {
				metrics.RecordRateLimitDenial(key)
			}
			return apperrors.NewRateLimited(retrySec)
		}

		return c.Next()
	}
}
