package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"taskflow/internal/apperror"
	"taskflow/internal/models"
	"taskflow/internal/policy"
	"taskflow/internal/repository/memory"
)

type recorder struct {
	mu     sync.Mutex
	events []models.Event
}

func (r *recorder) Publish(e models.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) last() models.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return models.Event{}
	}
	return r.events[len(r.events)-1]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

type fixture struct {
	store    *memory.Store
	events   *recorder
	tasks    *TaskService
	comments *CommentService
	admin    policy.Caller
	john     policy.Caller
	jane     policy.Caller
}

func tickingClock() func() time.Time {
	t := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New().WithClock(tickingClock())
	events := &recorder{}
	f := &fixture{
		store:    store,
		events:   events,
		tasks:    NewTaskService(store, events),
		comments: NewCommentService(store, events),
	}
	f.admin = f.addUser(t, "Admin User", "admin@example.com", "admin123", models.RoleAdmin)
	f.john = f.addUser(t, "John Doe", "john@example.com", "employee123", models.RoleEmployee)
	f.jane = f.addUser(t, "Jane Smith", "jane@example.com", "employee123", models.RoleEmployee)
	return f
}

func (f *fixture) addUser(t *testing.T, name, email, password string, role models.Role) policy.Caller {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	id, err := f.store.CreateUser(context.Background(), models.NewUser{Name: name, Email: email, PasswordHash: string(hash), Role: role})
	require.NoError(t, err)
	return policy.Caller{ID: id, Role: role}
}

func (f *fixture) createTask(t *testing.T, title string, assignee *policy.Caller) *models.Task {
	t.Helper()
	in := CreateTaskInput{Title: title}
	if assignee != nil {
		in.AssignedToID = models.NewNullableID(assignee.ID)
	}
	task, err := f.tasks.Create(context.Background(), f.admin, in)
	require.NoError(t, err)
	return task
}

func assertKind(t *testing.T, want apperror.Kind, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, want, apperror.KindOf(err), "error: %v", err)
}

func str(s string) *string { return &s }
