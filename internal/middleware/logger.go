package middleware

import (
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"taskflow/pkg/logger"
)

const requestIDKey = "requestID"

// AssignRequestID reuses an incoming X-Request-ID or generates one, and
// echoes it on the response.
func AssignRequestID() fiber.Handler {
	return requestid.New(requestid.Config{
		Header:     fiber.HeaderXRequestID,
		Generator:  uuid.NewString,
		ContextKey: requestIDKey,
	})
}

// Recover turns a panic further down the chain into an error. It must sit
// after RequestLogger so the error is rendered and logged there.
func Recover() fiber.Handler {
	return recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			logger.ErrorLogger.Error("Recovered from panic",
				zap.Any("panic", e),
				zap.String("stack", string(debug.Stack())),
				zap.String("request_id", RequestID(c)),
			)
		},
	})
}

// RequestLogger logs the final status of every request. Errors are rendered
// here through the app's error handler so the logged status is the one the
// client sees.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if err := c.Next(); err != nil {
			if handlerErr := c.App().ErrorHandler(c, err); handlerErr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		fields := []zap.Field{
			zap.String("request_id", RequestID(c)),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.IP()),
		}
		if caller, ok := callerFrom(c); ok {
			fields = append(fields, zap.Int("user_id", caller.ID))
		}
		logger.RequestLogger.Info("Request handled", fields...)
		return nil
	}
}

// RequestID returns the id assigned by AssignRequestID.
func RequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(requestIDKey).(string)
	return id
}
