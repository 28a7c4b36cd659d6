package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "taskflow/internal/api/v1"
	"taskflow/internal/auth"
	"taskflow/internal/cache"
	"taskflow/internal/repository"
	"taskflow/internal/repository/memory"
	"taskflow/internal/service"
)

type harness struct {
	t       *testing.T
	baseURL string
	session string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memory.New()
	require.NoError(t, repository.SeedDemoData(context.Background(), store))

	tokens := auth.NewTokenManager([]byte("taskctl-test"), time.Hour, nil)
	app := v1.NewApp(v1.AppOptions{}, v1.Services{
		Store:    store,
		Tasks:    service.NewTaskService(store, nil),
		Comments: service.NewCommentService(store, nil),
		Users:    service.NewUserService(store, cache.NewUsers(nil, time.Minute)),
		Auth:     service.NewAuthService(store, tokens),
	})
	srv := httptest.NewServer(adaptor.FiberApp(app))
	t.Cleanup(srv.Close)

	return &harness{
		t:       t,
		baseURL: srv.URL + "/api/v1",
		session: filepath.Join(t.TempDir(), "session"),
	}
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	var out bytes.Buffer
	full := append([]string{"--api", h.baseURL, "--session", h.session, "--passphrase", "test"}, args...)
	err := run(context.Background(), full, &out)
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, out)
	return out
}

func TestEmployeeWorkflow(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("login", "--email", "jane@dquant.com", "--password", "employee123")
	assert.Contains(t, out, "Signed in as Jane Smith (EMPLOYEE)")

	out = h.mustRun("whoami")
	assert.Contains(t, out, "jane@dquant.com")

	out = h.mustRun("tasks")
	assert.Contains(t, out, "Fix login bug")
	assert.NotContains(t, out, "Design new landing page")

	id := strings.Fields(strings.Split(out, "\n")[1])[0]
	out = h.mustRun("status", id, "completed")
	assert.Contains(t, out, "is now COMPLETED")

	out = h.mustRun("comment", id, "Shipped", "the", "fix")
	assert.Contains(t, out, "Added comment")

	out = h.mustRun("show", id)
	assert.Contains(t, out, "status:   COMPLETED")
	assert.Contains(t, out, "Jane Smith: Shipped the fix")

	_, err := h.run("create", "--title", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Access denied. Admin only.")

	h.mustRun("logout")
	_, err = h.run("tasks")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No token provided")
}

func TestAdminWorkflow(t *testing.T) {
	h := newHarness(t)
	h.mustRun("login", "--email", "admin@dquant.com", "--password", "admin123")

	out := h.mustRun("create", "--title", "Plan sprint", "--priority", "high", "--assign", "2")
	assert.Contains(t, out, "Created task")
	id := strings.TrimSpace(strings.TrimPrefix(out, "Created task"))

	out = h.mustRun("update", id, "--unassign", "--description", "Next two weeks")
	assert.Contains(t, out, "assignee: -")
	assert.Contains(t, out, "Next two weeks")

	out = h.mustRun("priority", id, "LOW")
	assert.Contains(t, out, "priority is now LOW")

	out = h.mustRun("tasks", "--priority", "low")
	assert.Contains(t, out, "Plan sprint")

	out = h.mustRun("users")
	assert.Contains(t, out, "admin@dquant.com")

	out = h.mustRun("register", "--name", "Kim", "--email", "kim@dquant.com", "--password", "secret1")
	assert.Contains(t, out, "Registered kim@dquant.com")

	out = h.mustRun("delete", id)
	assert.Contains(t, out, "Task deleted successfully")

	_, err := h.run("show", id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Task not found")
}

func TestUsageErrors(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("frobnicate")
	assert.EqualError(t, err, `unknown command "frobnicate"`)

	_, err = h.run("status", "1")
	assert.EqualError(t, err, "status expects <task-id> <status>")

	_, err = h.run("show", "abc")
	assert.EqualError(t, err, `invalid id "abc"`)

	_, err = h.run("create", "--title", strings.Repeat("x", 51))
	assert.EqualError(t, err, "Title must be at most 50 characters")

	_, err = h.run("update", "1", "--assign", "2", "--unassign")
	assert.EqualError(t, err, "--assign and --unassign are exclusive")
}
