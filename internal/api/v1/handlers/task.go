package handlers

import (
	"github.com/gofiber/fiber/v2"

	"taskflow/internal/middleware"
	"taskflow/internal/models"
	"taskflow/internal/service"
)

type TaskHandler struct {
	tasks *service.TaskService
}

func NewTaskHandler(tasks *service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// List handles GET /tasks?status=&priority=&search=
func (h *TaskHandler) List(c *fiber.Ctx) error {
	caller, err := middleware.Caller(c)
	if err != nil {
		return err
	}
	tasks, err := h.tasks.List(c.UserContext(), caller, service.TaskQuery{
		Status:   models.Status(c.Query("status")),
		Priority: models.Priority(c.Query("priority")),
		Search:   c.Query("search"),
	})
	if err != nil {
		return err
	}
	return c.JSON(tasks)
}

func (h *TaskHandler) Get(c *fiber.Ctx) error {
	caller, err := middleware.Caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", "task")
	if err != nil {
		return err
	}
	task, err := h.tasks.Get(c.UserContext(), caller, id)
	if err != nil {
		return err
	}
	return c.JSON(task)
}

func (h *TaskHandler) Create(c *fiber.Ctx) error {
	caller, err := middleware.Caller(c)
	if err != nil {
		return err
	}
	var req service.CreateTaskInput
	if err := parseBody(c, &req); err != nil {
		return err
	}
	task, err := h.tasks.Create(c.UserContext(), caller, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(task)
}

func (h *TaskHandler) Update(c *fiber.Ctx) error {
	caller, err := middleware.Caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", "task")
	if err != nil {
		return err
	}
	var body models.TaskPatchBody
	if err := parseBody(c, &body); err != nil {
		return err
	}
	task, err := h.tasks.UpdateBody(c.UserContext(), caller, id, body)
	if err != nil {
		return err
	}
	return c.JSON(task)
}

func (h *TaskHandler) Delete(c *fiber.Ctx) error {
	caller, err := middleware.Caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", "task")
	if err != nil {
		return err
	}
	if err := h.tasks.Delete(c.UserContext(), caller, id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Task deleted successfully"})
}

// UpdateStatus handles PATCH /tasks/:id/status {status}
func (h *TaskHandler) UpdateStatus(c *fiber.Ctx) error {
	caller, err := middleware.Caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", "task")
	if err != nil {
		return err
	}
	var req struct {
		Status models.Status `json:"status"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}
	task, err := h.tasks.UpdateStatus(c.UserContext(), caller, id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(task)
}

// UpdatePriority handles PATCH /tasks/:id/priority {priority}
func (h *TaskHandler) UpdatePriority(c *fiber.Ctx) error {
	caller, err := middleware.Caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", "task")
	if err != nil {
		return err
	}
	var req struct {
		Priority models.Priority `json:"priority"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}
	task, err := h.tasks.UpdatePriority(c.UserContext(), caller, id, req.Priority)
	if err != nil {
		return err
	}
	return c.JSON(task)
}
