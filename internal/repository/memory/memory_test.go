package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/internal/models"
	"taskflow/internal/repository"
)

// tickingClock advances one second per call so creation order is stable.
func tickingClock() func() time.Time {
	t := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newUser(t *testing.T, s *Store, name string, role models.Role) int {
	t.Helper()
	id, err := s.CreateUser(context.Background(), models.NewUser{
		Name: name, Email: name + "@example.com", PasswordHash: "x", Role: role,
	})
	require.NoError(t, err)
	return id
}

func TestInTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New().WithClock(tickingClock())
	admin := newUser(t, s, "admin", models.RoleAdmin)

	boom := errors.New("boom")
	err := s.InTx(ctx, func(q repository.Queries) error {
		_, err := q.CreateTask(ctx, models.NewTask{Title: "lost", Status: models.StatusTodo, Priority: models.PriorityLow, CreatedByID: admin})
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	tasks, err := s.ListTasks(ctx, models.TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestInTxCommits(t *testing.T) {
	ctx := context.Background()
	s := New().WithClock(tickingClock())
	admin := newUser(t, s, "admin", models.RoleAdmin)

	var id int
	require.NoError(t, s.InTx(ctx, func(q repository.Queries) error {
		var err error
		id, err = q.CreateTask(ctx, models.NewTask{Title: "kept", Status: models.StatusTodo, Priority: models.PriorityLow, CreatedByID: admin})
		return err
	}))

	task, err := s.FindTask(ctx, id, models.Scope{})
	require.NoError(t, err)
	assert.Equal(t, "kept", task.Title)
	assert.Equal(t, "admin", task.CreatedBy.Name)
	assert.Nil(t, task.AssignedTo)
	assert.NotNil(t, task.Comments)
}

func TestListTasksFiltersAndOrder(t *testing.T) {
	ctx := context.Background()
	s := New().WithClock(tickingClock())
	admin := newUser(t, s, "admin", models.RoleAdmin)
	emp := newUser(t, s, "emp", models.RoleEmployee)

	desc := "Users cannot LOGIN with SSO"
	first, err := s.CreateTask(ctx, models.NewTask{Title: "Docs", Description: &desc, Status: models.StatusTodo, Priority: models.PriorityLow, AssignedToID: &emp, CreatedByID: admin})
	require.NoError(t, err)
	second, err := s.CreateTask(ctx, models.NewTask{Title: "Release", Status: models.StatusCompleted, Priority: models.PriorityHigh, CreatedByID: admin})
	require.NoError(t, err)

	all, err := s.ListTasks(ctx, models.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second, all[0].ID, "newest first")
	assert.Equal(t, first, all[1].ID)
	assert.Equal(t, "emp@example.com", all[1].AssignedTo.Email)

	own, err := s.ListTasks(ctx, models.TaskFilter{Scope: models.AssignedTo(emp)})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, first, own[0].ID)

	found, err := s.ListTasks(ctx, models.TaskFilter{Search: "login"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, first, found[0].ID)

	done, err := s.ListTasks(ctx, models.TaskFilter{Status: models.StatusCompleted, Priority: models.PriorityHigh})
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, second, done[0].ID)

	_, err = s.FindTask(ctx, second, models.AssignedTo(emp))
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeleteTaskRemovesComments(t *testing.T) {
	ctx := context.Background()
	s := New().WithClock(tickingClock())
	admin := newUser(t, s, "admin", models.RoleAdmin)

	id, err := s.CreateTask(ctx, models.NewTask{Title: "t", Status: models.StatusTodo, Priority: models.PriorityMedium, CreatedByID: admin})
	require.NoError(t, err)
	cid, err := s.CreateComment(ctx, models.NewComment{Content: "hi", TaskID: id, AuthorID: admin})
	require.NoError(t, err)

	require.NoError(t, s.DeleteTask(ctx, id))
	_, err = s.FindComment(ctx, cid)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, s.DeleteTask(ctx, id), repository.ErrNotFound)
}

func TestReferentialChecks(t *testing.T) {
	ctx := context.Background()
	s := New()
	admin := newUser(t, s, "admin", models.RoleAdmin)
	ghost := 999

	_, err := s.CreateTask(ctx, models.NewTask{Title: "t", AssignedToID: &ghost, CreatedByID: admin})
	assert.ErrorIs(t, err, repository.ErrInvalidReference)

	_, err = s.CreateComment(ctx, models.NewComment{Content: "c", TaskID: 12345, AuthorID: admin})
	assert.ErrorIs(t, err, repository.ErrInvalidReference)

	_, err = s.CreateUser(ctx, models.NewUser{Name: "dup", Email: "ADMIN@example.com", Role: models.RoleEmployee})
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestSeedDemoDataIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, repository.SeedDemoData(ctx, s))
	require.NoError(t, repository.SeedDemoData(ctx, s))

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 3)

	tasks, err := s.ListTasks(ctx, models.TaskFilter{})
	require.NoError(t, err)
	assert.Len(t, tasks, 3)

	admin, err := s.FindUserByEmail(ctx, "Admin@DQuant.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
}
