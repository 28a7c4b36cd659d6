package v1

import (
	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"

	"taskflow/internal/api/v1/handlers"
	"taskflow/internal/middleware"
	"taskflow/internal/repository"
	"taskflow/internal/service"
	"taskflow/internal/websocket"
)

// Services bundles everything the HTTP layer calls into.
type Services struct {
	Store    repository.Store
	Redis    *redis.Client
	Tasks    *service.TaskService
	Comments *service.CommentService
	Users    *service.UserService
	Auth     *service.AuthService
	Hub      *websocket.Hub
}

func RegisterRoutes(app *fiber.App, s Services) {
	authenticated := middleware.Authenticate(s.Auth)

	tasks := handlers.NewTaskHandler(s.Tasks)
	comments := handlers.NewCommentHandler(s.Comments)
	users := handlers.NewUserHandler(s.Users)
	auth := handlers.NewAuthHandler(s.Auth)
	health := handlers.NewHealthHandler(s.Store, s.Redis)

	api := app.Group("/api/v1")
	api.Get("/health", health.Check)

	// Auth
	authRoutes := api.Group("/auth")
	authRoutes.Post("/login", auth.Login)
	authRoutes.Post("/register", authenticated, users.Register)
	authRoutes.Get("/me", authenticated, auth.Me)
	authRoutes.Post("/logout", authenticated, auth.Logout)

	// User
	userRoutes := api.Group("/users", authenticated)
	userRoutes.Get("/", users.List)
	userRoutes.Get("/:id", users.Get)

	// Task
	taskRoutes := api.Group("/tasks", authenticated)
	taskRoutes.Get("/", tasks.List)
	taskRoutes.Post("/", tasks.Create)
	taskRoutes.Get("/:id", tasks.Get)
	taskRoutes.Put("/:id", tasks.Update)
	taskRoutes.Delete("/:id", tasks.Delete)
	taskRoutes.Patch("/:id/status", tasks.UpdateStatus)
	taskRoutes.Patch("/:id/priority", tasks.UpdatePriority)

	// Comment
	commentRoutes := api.Group("/comments", authenticated)
	commentRoutes.Get("/task/:taskId", comments.List)
	commentRoutes.Post("/task/:taskId", comments.Create)
	commentRoutes.Put("/:id", comments.Update)
	commentRoutes.Delete("/:id", comments.Delete)

	if s.Hub != nil {
		app.Get("/ws", websocket.Upgrade(s.Auth), s.Hub.Handler())
	}

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Route not found"})
	})
}
