package handlers

import (
	"github.com/gofiber/fiber/v2"

	"taskflow/internal/apperror"
)

// paramID reads a positive integer route parameter.
func paramID(c *fiber.Ctx, name, label string) (int, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, apperror.InvalidInput("Invalid " + label + " id")
	}
	return id, nil
}

// parseBody decodes the request body into out. An empty body leaves out
// untouched so that missing fields are reported by validation instead.
func parseBody(c *fiber.Ctx, out interface{}) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(out); err != nil {
		return apperror.InvalidInput("Invalid request body")
	}
	return nil
}
