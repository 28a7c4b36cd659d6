package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/internal/models"
	"taskflow/internal/policy"
)

type fakeConn struct {
	mu     sync.Mutex
	msgs   [][]byte
	fail   bool
	closed bool
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("broken pipe")
	}
	c.msgs = append(c.msgs, data)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) received() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.msgs)
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub()
	go h.Run(ctx)
	t.Cleanup(cancel)
	return h
}

func id(v int) *int { return &v }

func TestEventsReachOnlyVisibleClients(t *testing.T) {
	h := startHub(t)
	admin, john, jane := &fakeConn{}, &fakeConn{}, &fakeConn{}
	h.Register(NewClient(admin, policy.Caller{ID: 1, Role: models.RoleAdmin}))
	h.Register(NewClient(john, policy.Caller{ID: 2, Role: models.RoleEmployee}))
	h.Register(NewClient(jane, policy.Caller{ID: 3, Role: models.RoleEmployee}))
	require.Eventually(t, func() bool { return h.ClientCount() == 3 }, time.Second, 5*time.Millisecond)

	h.Publish(models.Event{Type: models.EventTaskCreated, TaskID: 10, AssignedToID: id(2)})
	h.Publish(models.Event{Type: models.EventTaskUpdated, TaskID: 11, AssignedToID: id(3)})

	require.Eventually(t, func() bool { return jane.received() == 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return admin.received() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, john.received())

	var got map[string]interface{}
	john.mu.Lock()
	require.NoError(t, json.Unmarshal(john.msgs[0], &got))
	john.mu.Unlock()
	assert.Equal(t, "task.created", got["type"])
	assert.Equal(t, float64(10), got["taskId"])
	assert.NotContains(t, got, "assignedToId")
}

func TestReassignmentNotifiesPreviousAssignee(t *testing.T) {
	h := startHub(t)
	john, jane := &fakeConn{}, &fakeConn{}
	h.Register(NewClient(john, policy.Caller{ID: 2, Role: models.RoleEmployee}))
	h.Register(NewClient(jane, policy.Caller{ID: 3, Role: models.RoleEmployee}))

	h.Publish(models.Event{Type: models.EventTaskUpdated, TaskID: 5, AssignedToID: id(3), PreviousAssignee: id(2)})

	require.Eventually(t, func() bool { return john.received() == 1 && jane.received() == 1 }, time.Second, 5*time.Millisecond)
}

func TestUnassignedEventsOnlyReachAdmins(t *testing.T) {
	h := startHub(t)
	admin, john := &fakeConn{}, &fakeConn{}
	h.Register(NewClient(admin, policy.Caller{ID: 1, Role: models.RoleAdmin}))
	h.Register(NewClient(john, policy.Caller{ID: 2, Role: models.RoleEmployee}))

	h.Publish(models.Event{Type: models.EventTaskDeleted, TaskID: 7})
	h.Publish(models.Event{Type: models.EventTaskCreated, TaskID: 8, AssignedToID: id(2)})

	require.Eventually(t, func() bool { return john.received() == 1 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return admin.received() == 2 }, time.Second, 5*time.Millisecond)
}

func TestFailingClientIsDropped(t *testing.T) {
	h := startHub(t)
	broken := &fakeConn{fail: true}
	h.Register(NewClient(broken, policy.Caller{ID: 1, Role: models.RoleAdmin}))

	h.Publish(models.Event{Type: models.EventTaskCreated, TaskID: 1})

	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	assert.True(t, broken.isClosed())
}

func TestUnregisterAndShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub()
	go h.Run(ctx)

	a, b := &fakeConn{}, &fakeConn{}
	ca := NewClient(a, policy.Caller{ID: 1, Role: models.RoleAdmin})
	h.Register(ca)
	h.Register(NewClient(b, policy.Caller{ID: 1, Role: models.RoleAdmin}))

	h.Unregister(ca)
	require.Eventually(t, a.isClosed, time.Second, 5*time.Millisecond)

	cancel()
	<-h.done
	assert.True(t, b.isClosed())

	late := &fakeConn{}
	h.Register(NewClient(late, policy.Caller{ID: 1, Role: models.RoleAdmin}))
	assert.True(t, late.isClosed(), "registering after shutdown closes the connection")
	h.Publish(models.Event{Type: models.EventTaskCreated})
}
