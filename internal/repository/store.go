package repository

import (
	"context"
	"errors"

	"taskflow/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrConflict reports a unique constraint violation.
	ErrConflict = errors.New("record already exists")
	// ErrInvalidReference reports a foreign key pointing at a missing row.
	ErrInvalidReference = errors.New("referenced record does not exist")
)

// Queries is the data access surface used by the services. Every method is
// usable both directly on a Store and inside a transaction.
type Queries interface {
	// ListTasks returns tasks newest first, joined with assignee, creator
	// and comments.
	ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	FindTask(ctx context.Context, id int, scope models.Scope) (*models.Task, error)
	// TaskVisible resolves a task inside scope without locking it.
	TaskVisible(ctx context.Context, id int, scope models.Scope) (models.TaskRef, error)
	// LockTask resolves a task inside scope and holds a row lock on it until
	// the surrounding transaction ends.
	LockTask(ctx context.Context, id int, scope models.Scope) (models.TaskRef, error)
	CreateTask(ctx context.Context, task models.NewTask) (int, error)
	UpdateTask(ctx context.Context, id int, patch models.TaskPatch) error
	// DeleteTask removes a task together with its comments.
	DeleteTask(ctx context.Context, id int) error

	ListComments(ctx context.Context, taskID int) ([]models.Comment, error)
	FindComment(ctx context.Context, id int) (*models.Comment, error)
	LockComment(ctx context.Context, id int) (*models.Comment, error)
	CreateComment(ctx context.Context, comment models.NewComment) (int, error)
	UpdateComment(ctx context.Context, id int, content string) error
	DeleteComment(ctx context.Context, id int) error

	ListUsers(ctx context.Context) ([]models.User, error)
	FindUserByID(ctx context.Context, id int) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user models.NewUser) (int, error)
}

type Store interface {
	Queries
	// InTx runs fn inside one transaction. The transaction commits when fn
	// returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(q Queries) error) error
	Ping(ctx context.Context) error
	Close() error
}
