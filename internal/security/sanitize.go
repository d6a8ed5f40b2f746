package security

import (
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/care-scheduling-service/pkg/util"
)

// injection markers checked against query strings and JSON bodies. Rejected
// content is never parsed, interpolated or persisted.
var (
	scriptPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)<\s*script`),
		regexp.MustCompile(`(?i)<\s*iframe`),
		regexp.MustCompile(`(?i)javascript\s*:`),
		regexp.MustCompile(`(?i)\bon(error|load|click|focus|mouseover)\s*=`),
	}
	sqlPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bunion\s+(all\s+)?select\b`),
		regexp.MustCompile(`(?i)\b(drop|truncate|alter)\s+table\b`),
		regexp.MustCompile(`(?i)\b(or|and)\s+\d+\s*=\s*\d+`),
		regexp.MustCompile(`(?i)'\s*(or|and)\s*'`),
		regexp.MustCompile(`;\s*--`),
	}
)

func suspicious(val string) bool {
	for _, re := range scriptPatterns {
		if re.MatchString(val) {
			return true
		}
	}
	for _, re := range sqlPatterns {
		if re.MatchString(val) {
			return true
		}
	}
	return false
}

// Sanitize rejects requests whose query string or body carries injection
// markers, before any handler parses the payload. Mutating verbs must also
// declare a JSON content type.
func Sanitize(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if raw := string(c.Request().URI().QueryString()); raw != "" && suspicious(raw) {
			logger.Warn("rejected suspicious query string",
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()))
			return apperrors.NewInvalidInput("request contains disallowed content")
		}

		switch c.Method() {
		case fiber.MethodPost, fiber.MethodPut, fiber.MethodPatch:
			if len(c.Body()) > 0 {
				contentType := c.Get(fiber.HeaderContentType)
				if !strings.Contains(contentType, fiber.MIMEApplicationJSON) {
					return apperrors.NewInvalidInput("content type must be application/json")
				}
				if suspicious(string(c.Body())) {
					logger.Warn("rejected suspicious payload",
						zap.String("path", c.Path()),
						zap.String("ip", c.IP()))
					return apperrors.NewInvalidInput("request contains disallowed content")
				}
			}
		}

		return c.Next()
	}
}
