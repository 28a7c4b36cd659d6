package service

import (
	"context"

	"go.uber.org/zap"

	"taskflow/internal/apperror"
	"taskflow/internal/models"
	"taskflow/internal/policy"
	"taskflow/internal/repository"
	"taskflow/pkg/logger"
)

const taskNotFound = "Task not found"

// TaskQuery holds the optional list filters.
type TaskQuery struct {
	Status   models.Status   `json:"status" validate:"omitempty,oneof=TODO IN_PROGRESS COMPLETED"`
	Priority models.Priority `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	Search   string          `json:"search"`
}

type CreateTaskInput struct {
	Title        string            `json:"title" validate:"notblank"`
	Description  *string           `json:"description"`
	Priority     models.Priority   `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	AssignedToID models.NullableID `json:"assignedToId"`
}

type statusInput struct {
	Status models.Status `json:"status" validate:"required,oneof=TODO IN_PROGRESS COMPLETED"`
}

type priorityInput struct {
	Priority models.Priority `json:"priority" validate:"required,oneof=LOW MEDIUM HIGH URGENT"`
}

type TaskService struct {
	store  repository.Store
	events Publisher
}

func NewTaskService(store repository.Store, events Publisher) *TaskService {
	return &TaskService{store: store, events: publisherOrNop(events)}
}

// List returns the caller's visible tasks, newest first.
func (s *TaskService) List(ctx context.Context, caller policy.Caller, q TaskQuery) ([]models.Task, error) {
	d := policy.Evaluate(caller, policy.ListTasks)
	if !d.Allowed {
		return nil, errAccessDenied
	}
	if err := check(q); err != nil {
		return nil, err
	}

	tasks, err := s.store.ListTasks(ctx, models.TaskFilter{
		Scope:    d.Scope,
		Status:   q.Status,
		Priority: q.Priority,
		Search:   q.Search,
	})
	if err != nil {
		return nil, storeError(err, taskNotFound)
	}
	return tasks, nil
}

func (s *TaskService) Get(ctx context.Context, caller policy.Caller, id int) (*models.Task, error) {
	d := policy.Evaluate(caller, policy.ReadTask)
	if !d.Allowed {
		return nil, errAccessDenied
	}
	task, err := s.store.FindTask(ctx, id, d.Scope)
	if err != nil {
		return nil, storeError(err, taskNotFound)
	}
	return task, nil
}

// Create inserts a new task owned by the caller. Status always starts at
// TODO and priority defaults to MEDIUM.
func (s *TaskService) Create(ctx context.Context, caller policy.Caller, in CreateTaskInput) (*models.Task, error) {
	if !policy.Evaluate(caller, policy.CreateTask).Allowed {
		logger.SecurityLogger.Warn("Task creation denied", zap.Int("user_id", caller.ID), zap.String("role", string(caller.Role)))
		return nil, errAdminOnly
	}
	if err := check(in); err != nil {
		return nil, err
	}
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	var task *models.Task
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		id, err := q.CreateTask(ctx, models.NewTask{
			Title:        in.Title,
			Description:  in.Description,
			Status:       models.StatusTodo,
			Priority:     priority,
			AssignedToID: in.AssignedToID.Ptr(),
			CreatedByID:  caller.ID,
		})
		if err != nil {
			return err
		}
		task, err = q.FindTask(ctx, id, models.Scope{})
		return err
	})
	if err != nil {
		return nil, storeError(err, taskNotFound)
	}

	logger.AuditLogger.Info("Task created", zap.Int("task_id", task.ID), zap.Int("actor_id", caller.ID))
	s.events.Publish(models.Event{Type: models.EventTaskCreated, TaskID: task.ID, AssignedToID: task.AssignedToID})
	return task, nil
}

// Update applies the subset of patch the caller is allowed to change.
// Fields outside that subset are dropped, not rejected.
func (s *TaskService) Update(ctx context.Context, caller policy.Caller, id int, patch models.TaskPatch) (*models.Task, error) {
	d := policy.Evaluate(caller, policy.UpdateTask)
	if !d.Allowed {
		return nil, errAdminOnly
	}
	return s.update(ctx, caller, id, d, patch)
}

// UpdateBody is Update for a request body that is still undecoded. Only
// the fields the caller may change are decoded, so a bad value in a field
// that would be dropped anyway cannot fail the request.
func (s *TaskService) UpdateBody(ctx context.Context, caller policy.Caller, id int, body models.TaskPatchBody) (*models.Task, error) {
	d := policy.Evaluate(caller, policy.UpdateTask)
	if !d.Allowed {
		return nil, errAdminOnly
	}
	patch, err := body.Decode(d.Fields)
	if err != nil {
		return nil, apperror.InvalidInput("Invalid request body")
	}
	return s.update(ctx, caller, id, d, patch)
}

func (s *TaskService) update(ctx context.Context, caller policy.Caller, id int, d policy.Decision, patch models.TaskPatch) (*models.Task, error) {
	patch = patch.Restrict(d.Fields)
	if err := check(patch); err != nil {
		return nil, err
	}
	return s.apply(ctx, caller, id, d.Scope, patch, "Task updated")
}

// UpdateStatus changes the status of a task assigned to the caller. The
// scope is the caller's own assignments whatever their role.
func (s *TaskService) UpdateStatus(ctx context.Context, caller policy.Caller, id int, status models.Status) (*models.Task, error) {
	d := policy.Evaluate(caller, policy.UpdateStatus)
	if !d.Allowed {
		return nil, errAccessDenied
	}
	if err := check(statusInput{Status: status}); err != nil {
		return nil, err
	}
	patch := models.TaskPatch{Status: &status}.Restrict(d.Fields)
	return s.apply(ctx, caller, id, d.Scope, patch, "Task status changed")
}

func (s *TaskService) UpdatePriority(ctx context.Context, caller policy.Caller, id int, priority models.Priority) (*models.Task, error) {
	d := policy.Evaluate(caller, policy.UpdatePriority)
	if !d.Allowed {
		logger.SecurityLogger.Warn("Priority change denied", zap.Int("user_id", caller.ID), zap.Int("task_id", id))
		return nil, errAdminOnly
	}
	if err := check(priorityInput{Priority: priority}); err != nil {
		return nil, err
	}
	patch := models.TaskPatch{Priority: &priority}.Restrict(d.Fields)
	return s.apply(ctx, caller, id, d.Scope, patch, "Task priority changed")
}

// apply locks the task inside scope, writes patch and reloads it, all in
// one transaction.
func (s *TaskService) apply(ctx context.Context, caller policy.Caller, id int, scope models.Scope, patch models.TaskPatch, action string) (*models.Task, error) {
	var (
		before models.TaskRef
		task   *models.Task
	)
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		var err error
		before, err = q.LockTask(ctx, id, scope)
		if err != nil {
			return err
		}
		if !patch.Empty() {
			if err := q.UpdateTask(ctx, id, patch); err != nil {
				return err
			}
		}
		task, err = q.FindTask(ctx, id, models.Scope{})
		return err
	})
	if err != nil {
		return nil, storeError(err, taskNotFound)
	}
	if patch.Empty() {
		return task, nil
	}

	logger.AuditLogger.Info(action,
		zap.Int("task_id", id),
		zap.Int("actor_id", caller.ID),
		zap.Uint8("fields", uint8(patch.Fields())),
	)
	s.events.Publish(models.Event{
		Type:             models.EventTaskUpdated,
		TaskID:           id,
		AssignedToID:     task.AssignedToID,
		PreviousAssignee: before.AssignedToID,
	})
	return task, nil
}

// Delete removes a task together with its comments.
func (s *TaskService) Delete(ctx context.Context, caller policy.Caller, id int) error {
	d := policy.Evaluate(caller, policy.DeleteTask)
	if !d.Allowed {
		logger.SecurityLogger.Warn("Task deletion denied", zap.Int("user_id", caller.ID), zap.Int("task_id", id))
		return errAdminOnly
	}

	var before models.TaskRef
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		var err error
		before, err = q.LockTask(ctx, id, d.Scope)
		if err != nil {
			return err
		}
		return q.DeleteTask(ctx, id)
	})
	if err != nil {
		return storeError(err, taskNotFound)
	}

	logger.AuditLogger.Info("Task deleted", zap.Int("task_id", id), zap.Int("actor_id", caller.ID))
	s.events.Publish(models.Event{Type: models.EventTaskDeleted, TaskID: id, AssignedToID: before.AssignedToID})
	return nil
}
