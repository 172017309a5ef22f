package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
)

// RequestLogger logs one line per request after the handler chain returns.
func RequestLogger(log *zap.SugaredLogger, skipPaths ...string) fiber.Handler {
	skip := make(map[string]bool, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = true
	}

	return func(c *fiber.Ctx) error {
		if skip[c.Path()] {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()
		if err != nil {
			// let the app's error handler set the status before we read it
			if handlerErr := c.App().ErrorHandler(c, err); handlerErr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		fields := []interface{}{
			"method", utils.CopyString(c.Method()),
			"path", utils.CopyString(c.Path()),
			"status", c.Response().StatusCode(),
			"latency", time.Since(start),
			"ip", utils.CopyString(c.IP()),
		}
		if rid, ok := c.Locals("requestid").(string); ok {
			fields = append(fields, "request_id", rid)
		}
		if p, ok := PrincipalFrom(c); ok {
			fields = append(fields, "user", p.ID)
		}

		status := c.Response().StatusCode()
		switch {
		case status >= fiber.StatusInternalServerError:
			log.Errorw("request", fields...)
		case status >= fiber.StatusBadRequest:
			log.Warnw("request", fields...)
		default:
			log.Infow("request", fields...)
		}
		return nil
	}
}
