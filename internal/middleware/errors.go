package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"taskflow/internal/apperror"
	"taskflow/pkg/logger"
)

// ErrorHandler is the single place where errors become HTTP responses.
// Bodies are always {"error": message}; internal causes are only logged.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		msg := fe.Message
		if fe.Code == fiber.StatusNotFound {
			msg = "Route not found"
		}
		return c.Status(fe.Code).JSON(fiber.Map{"error": msg})
	}

	kind := apperror.KindOf(err)
	switch kind {
	case apperror.KindInternal:
		logger.ErrorLogger.Error("Request failed",
			zap.Error(err),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("request_id", RequestID(c)),
		)
	case apperror.KindUnauthenticated, apperror.KindForbidden:
		logger.SecurityLogger.Warn("Request rejected",
			zap.String("reason", kind.String()),
			zap.String("path", c.Path()),
			zap.String("ip", c.IP()),
			zap.String("request_id", RequestID(c)),
		)
	}
	return c.Status(kind.HTTPStatus()).JSON(fiber.Map{"error": apperror.PublicMessage(err)})
}
