package v1

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"taskflow/internal/middleware"
)

type AppOptions struct {
	CORSOrigins  string
	RateLimitMax int
}

// NewApp builds the Fiber application with the middleware stack and every
// route registered.
func NewApp(opts AppOptions, s Services) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "taskflow",
		ErrorHandler: middleware.ErrorHandler,
	})

	app.Use(middleware.AssignRequestID())
	app.Use(middleware.RequestLogger())
	app.Use(middleware.Recover())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  opts.CORSOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		AllowMethods:  "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		ExposeHeaders: fiber.HeaderXRequestID,
	}))
	if opts.RateLimitMax > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        opts.RateLimitMax,
			Expiration: time.Minute,
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many requests"})
			},
		}))
	}

	RegisterRoutes(app, s)
	return app
}
