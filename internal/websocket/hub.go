// Package websocket pushes task change notifications to connected clients.
package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"taskflow/internal/middleware"
	"taskflow/internal/models"
	"taskflow/internal/policy"
	"taskflow/pkg/logger"
)

const callerKey = "wsCaller"

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is one connection together with the identity that opened it.
type Client struct {
	conn   Conn
	caller policy.Caller
	mu     sync.Mutex
}

func NewClient(conn Conn, caller policy.Caller) *Client {
	return &Client{conn: conn, caller: caller}
}

func (c *Client) send(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

// Hub fans committed events out to the clients allowed to see them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan models.Event
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	count      atomic.Int32
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan models.Event, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run owns the client set until ctx is cancelled, then closes every
// connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			return
		case client := <-h.register:
			h.clients[client] = true
			h.count.Store(int32(len(h.clients)))
		case client := <-h.unregister:
			h.drop(client)
		case event := <-h.broadcast:
			h.deliver(event)
		}
	}
}

func (h *Hub) drop(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	h.count.Store(int32(len(h.clients)))
	_ = client.conn.Close()
}

func (h *Hub) deliver(event models.Event) {
	msg, err := json.Marshal(event)
	if err != nil {
		logger.ErrorLogger.Error("Encode websocket event failed", zap.Error(err))
		return
	}
	for client := range h.clients {
		if !visible(client.caller, event) {
			continue
		}
		if err := client.send(msg); err != nil {
			logger.SystemLogger.Info("Dropping websocket client", zap.Int("user_id", client.caller.ID), zap.Error(err))
			h.drop(client)
		}
	}
}

// visible reports whether caller may learn about event. A task that moved
// away from an employee is still announced to them once.
func visible(caller policy.Caller, event models.Event) bool {
	if policy.CanSee(caller, event.AssignedToID) {
		return true
	}
	return event.PreviousAssignee != nil && policy.CanSee(caller, event.PreviousAssignee)
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		_ = client.conn.Close()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish queues event for delivery. It never blocks a request: when the
// queue is full the event is dropped.
func (h *Hub) Publish(event models.Event) {
	select {
	case h.broadcast <- event:
	case <-h.done:
	default:
		logger.SystemLogger.Warn("Websocket queue full, event dropped", zap.String("type", string(event.Type)), zap.Int("task_id", event.TaskID))
	}
}

// ClientCount is the number of registered connections.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// Upgrade authenticates the token query parameter and only lets websocket
// upgrade requests through.
func Upgrade(a middleware.Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		claims, err := a.Authenticate(c.UserContext(), c.Query("token"))
		if err != nil {
			return err
		}
		c.Locals(callerKey, claims.Caller())
		return c.Next()
	}
}

// Handler serves an upgraded connection until the peer goes away. Incoming
// messages are ignored.
func (h *Hub) Handler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		caller, _ := conn.Locals(callerKey).(policy.Caller)
		client := NewClient(conn, caller)
		h.Register(client)
		defer h.Unregister(client)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
}
