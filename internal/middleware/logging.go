package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/newsflow/backend/pkg/logger"
)

func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		requestID := logger.GenerateRequestID()
		c.Locals("requestID", requestID)

		err := c.Next()

		details := map[string]interface{}{
			"method":      c.Method(),
			"path":        c.Path(),
			"status_code": c.Response().StatusCode(),
			"latency_ms":  time.Since(start).Milliseconds(),
			"ip":          c.IP(),
			"request_id":  requestID,
		}

		if user := GetCurrentUser(c); user != nil {
			if c.Response().StatusCode() >= 400 {
				logger.ErrorWithUser(user.ID.String(), "http_request", err, details)
			} else {
				logger.InfoWithUser(user.ID.String(), "http_request", details)
			}
		} else {
			if c.Response().StatusCode() >= 400 {
				logger.Error("http_request", err, details)
			} else {
				logger.Info("http_request", details)
			}
		}

		return err
	}
}

// SecurityLogger records declined-authorization responses separately so
// repeated probing stands out in the logs.
func SecurityLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Response().StatusCode() != fiber.StatusForbidden {
			return err
		}

		details := map[string]interface{}{
			"method": c.Method(),
			"path":   c.Path(),
			"ip":     c.IP(),
			"reason": "access_denied",
		}

		if user := GetCurrentUser(c); user != nil {
			logger.WarnWithUser(user.ID.String(), "access_denied", details)
		} else {
			logger.Warn("access_denied", details)
		}

		return err
	}
}
