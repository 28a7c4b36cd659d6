package handlers

import (
	"github.com/gofiber/fiber/v2"

	"taskflow/internal/middleware"
	"taskflow/internal/service"
)

type commentRequest struct {
	Content string `json:"content"`
}

type CommentHandler struct {
	comments *service.CommentService
}

func NewCommentHandler(comments *service.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

func (h *CommentHandler) List(c *fiber.Ctx) error {
	caller, err := middleware.Caller(c)
	if err != nil {
		return err
	}
	taskID, err := paramID(c, "taskId", "task")
	if err != nil {
		return err
	}
	comments, err := h.comments.List(c.UserContext(), caller, taskID)
	if err != nil {
		return err
	}
	return c.JSON(comments)
}

func (h *CommentHandler) Create(c *fiber.Ctx) error {
	caller, err := middleware.Caller(c)
	if err != nil {
		return err
	}
	taskID, err := paramID(c, "taskId", "task")
	if err != nil {
		return err
	}
	var req commentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	comment, err := h.comments.Create(c.UserContext(), caller, taskID, req.Content)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

func (h *CommentHandler) Update(c *fiber.Ctx) error {
	caller, err := middleware.Caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", "comment")
	if err != nil {
		return err
	}
	var req commentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	comment, err := h.comments.Update(c.UserContext(), caller, id, req.Content)
	if err != nil {
		return err
	}
	return c.JSON(comment)
}

func (h *CommentHandler) Delete(c *fiber.Ctx) error {
	caller, err := middleware.Caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", "comment")
	if err != nil {
		return err
	}
	if err := h.comments.Delete(c.UserContext(), caller, id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Comment deleted successfully"})
}
