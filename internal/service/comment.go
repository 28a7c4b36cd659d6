package service

import (
	"context"

	"go.uber.org/zap"

	"taskflow/internal/models"
	"taskflow/internal/policy"
	"taskflow/internal/repository"
	"taskflow/pkg/logger"
)

const commentNotFound = "Comment not found"

type commentInput struct {
	Content string `json:"content" validate:"notblank"`
}

type CommentService struct {
	store  repository.Store
	events Publisher
}

func NewCommentService(store repository.Store, events Publisher) *CommentService {
	return &CommentService{store: store, events: publisherOrNop(events)}
}

// List returns the comments of a task the caller can read, newest first.
func (s *CommentService) List(ctx context.Context, caller policy.Caller, taskID int) ([]models.Comment, error) {
	d := policy.Evaluate(caller, policy.ReadComments)
	if !d.Allowed {
		return nil, errAccessDenied
	}

	var comments []models.Comment
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		if _, err := q.TaskVisible(ctx, taskID, d.Scope); err != nil {
			return err
		}
		var err error
		comments, err = q.ListComments(ctx, taskID)
		return err
	})
	if err != nil {
		return nil, storeError(err, taskNotFound)
	}
	return comments, nil
}

func (s *CommentService) Create(ctx context.Context, caller policy.Caller, taskID int, content string) (*models.Comment, error) {
	d := policy.Evaluate(caller, policy.CreateComment)
	if !d.Allowed {
		return nil, errAccessDenied
	}
	if err := check(commentInput{Content: content}); err != nil {
		return nil, err
	}

	var (
		task    models.TaskRef
		comment *models.Comment
	)
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		var err error
		task, err = q.LockTask(ctx, taskID, d.Scope)
		if err != nil {
			return err
		}
		id, err := q.CreateComment(ctx, models.NewComment{Content: content, TaskID: taskID, AuthorID: caller.ID})
		if err != nil {
			return err
		}
		comment, err = q.FindComment(ctx, id)
		return err
	})
	if err != nil {
		return nil, storeError(err, taskNotFound)
	}

	logger.AuditLogger.Info("Comment created", zap.Int("comment_id", comment.ID), zap.Int("task_id", taskID), zap.Int("actor_id", caller.ID))
	s.events.Publish(models.Event{Type: models.EventCommentCreated, TaskID: taskID, CommentID: comment.ID, AssignedToID: task.AssignedToID})
	return comment, nil
}

func (s *CommentService) Update(ctx context.Context, caller policy.Caller, id int, content string) (*models.Comment, error) {
	d := policy.Evaluate(caller, policy.UpdateComment)
	if !d.Allowed {
		logger.SecurityLogger.Warn("Comment update denied", zap.Int("user_id", caller.ID), zap.Int("comment_id", id))
		return nil, errAdminOnly
	}
	if err := check(commentInput{Content: content}); err != nil {
		return nil, err
	}

	var (
		task    models.TaskRef
		comment *models.Comment
	)
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		existing, err := q.LockComment(ctx, id)
		if err != nil {
			return err
		}
		if task, err = q.TaskVisible(ctx, existing.TaskID, d.Scope); err != nil {
			return err
		}
		if err := q.UpdateComment(ctx, id, content); err != nil {
			return err
		}
		comment, err = q.FindComment(ctx, id)
		return err
	})
	if err != nil {
		return nil, storeError(err, commentNotFound)
	}

	logger.AuditLogger.Info("Comment updated", zap.Int("comment_id", id), zap.Int("actor_id", caller.ID))
	s.events.Publish(models.Event{Type: models.EventCommentUpdated, TaskID: comment.TaskID, CommentID: id, AssignedToID: task.AssignedToID})
	return comment, nil
}

func (s *CommentService) Delete(ctx context.Context, caller policy.Caller, id int) error {
	d := policy.Evaluate(caller, policy.DeleteComment)
	if !d.Allowed {
		logger.SecurityLogger.Warn("Comment deletion denied", zap.Int("user_id", caller.ID), zap.Int("comment_id", id))
		return errAdminOnly
	}

	var (
		task     models.TaskRef
		existing *models.Comment
	)
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		var err error
		existing, err = q.LockComment(ctx, id)
		if err != nil {
			return err
		}
		if task, err = q.TaskVisible(ctx, existing.TaskID, d.Scope); err != nil {
			return err
		}
		return q.DeleteComment(ctx, id)
	})
	if err != nil {
		return storeError(err, commentNotFound)
	}

	logger.AuditLogger.Info("Comment deleted", zap.Int("comment_id", id), zap.Int("actor_id", caller.ID))
	s.events.Publish(models.Event{Type: models.EventCommentDeleted, TaskID: existing.TaskID, CommentID: id, AssignedToID: task.AssignedToID})
	return nil
}
