// Package client talks to the task tracker's REST API on behalf of a
// terminal user. It keeps the signed-in session in an AuthStore and a
// local, filterable copy of the visible tasks in a TaskStore.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"taskflow/internal/models"
	"taskflow/pkg/logger"
)

// DefaultBaseURL is where a locally started API listens.
const DefaultBaseURL = "http://localhost:3004/api/v1"

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Session is what a successful login returns.
type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// RegisterForm is the payload for creating an account.
type RegisterForm struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role,omitempty"`
}

type Client struct {
	baseURL string
	http    *http.Client
	auth    *AuthStore
}

// New returns a client for the API rooted at baseURL. Requests carry the
// token held by auth, and a 401 on an authenticated request clears it.
func New(baseURL string, auth *AuthStore) *Client {
	if auth == nil {
		auth = NewAuthStore(nil)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		auth:    auth,
	}
}

// WithHTTPClient swaps the underlying transport client.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

func (c *Client) Auth() *AuthStore {
	return c.auth
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	token := c.auth.Token()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		if payload.Error == "" {
			payload.Error = http.StatusText(resp.StatusCode)
		}
		if resp.StatusCode == http.StatusUnauthorized && token != "" {
			logger.SystemLogger.Info("Session rejected by server, signing out", zap.String("path", path))
			if err := c.auth.Clear(); err != nil {
				logger.ErrorLogger.Error("Failed to clear session", zap.Error(err))
			}
		}
		return &APIError{Status: resp.StatusCode, Message: payload.Error}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func taskPath(id int) string {
	return "/tasks/" + strconv.Itoa(id)
}

// Login exchanges credentials for a token and stores the session.
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	var s Session
	in := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, in, &s); err != nil {
		return nil, err
	}
	if err := c.auth.Set(s); err != nil {
		return nil, err
	}
	return s.User, nil
}

// Logout revokes the token server-side and always forgets it locally.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
	if clearErr := c.auth.Clear(); clearErr != nil && err == nil {
		err = clearErr
	}
	if StatusOf(err) == http.StatusUnauthorized {
		return nil
	}
	return err
}

// Me refreshes the stored profile from the server.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var res struct {
		User *models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &res); err != nil {
		return nil, err
	}
	if err := c.auth.SetUser(res.User); err != nil {
		return nil, err
	}
	return res.User, nil
}

func (c *Client) Register(ctx context.Context, form RegisterForm) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, form, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := c.do(ctx, http.MethodGet, "/users", nil, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) GetUser(ctx context.Context, id int) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodGet, "/users/"+strconv.Itoa(id), nil, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) ListTasks(ctx context.Context, f Filters) ([]models.Task, error) {
	var tasks []models.Task
	if err := c.do(ctx, http.MethodGet, "/tasks", f.query(), nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) GetTask(ctx context.Context, id int) (*models.Task, error) {
	var t models.Task
	if err := c.do(ctx, http.MethodGet, taskPath(id), nil, nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTask validates form locally before sending it.
func (c *Client) CreateTask(ctx context.Context, form TaskForm) (*models.Task, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	var t models.Task
	if err := c.do(ctx, http.MethodPost, "/tasks", nil, form, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) UpdateTask(ctx context.Context, id int, patch models.TaskPatch) (*models.Task, error) {
	var t models.Task
	if err := c.do(ctx, http.MethodPut, taskPath(id), nil, patch, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) UpdateTaskStatus(ctx context.Context, id int, status models.Status) (*models.Task, error) {
	var t models.Task
	in := map[string]models.Status{"status": status}
	if err := c.do(ctx, http.MethodPatch, taskPath(id)+"/status", nil, in, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) UpdateTaskPriority(ctx context.Context, id int, priority models.Priority) (*models.Task, error) {
	var t models.Task
	in := map[string]models.Priority{"priority": priority}
	if err := c.do(ctx, http.MethodPatch, taskPath(id)+"/priority", nil, in, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) DeleteTask(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, taskPath(id), nil, nil, nil)
}

func (c *Client) ListComments(ctx context.Context, taskID int) ([]models.Comment, error) {
	var comments []models.Comment
	if err := c.do(ctx, http.MethodGet, "/comments/task/"+strconv.Itoa(taskID), nil, nil, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (c *Client) CreateComment(ctx context.Context, taskID int, content string) (*models.Comment, error) {
	form := CommentForm{Content: content}
	if err := form.Validate(); err != nil {
		return nil, err
	}
	var cm models.Comment
	if err := c.do(ctx, http.MethodPost, "/comments/task/"+strconv.Itoa(taskID), nil, form, &cm); err != nil {
		return nil, err
	}
	return &cm, nil
}

func (c *Client) UpdateComment(ctx context.Context, id int, content string) (*models.Comment, error) {
	form := CommentForm{Content: content}
	if err := form.Validate(); err != nil {
		return nil, err
	}
	var cm models.Comment
	if err := c.do(ctx, http.MethodPut, "/comments/"+strconv.Itoa(id), nil, form, &cm); err != nil {
		return nil, err
	}
	return &cm, nil
}

func (c *Client) DeleteComment(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, "/comments/"+strconv.Itoa(id), nil, nil, nil)
}

// Health returns the server's health payload. A degraded server answers
// 503, which surfaces as an APIError.
func (c *Client) Health(ctx context.Context) (map[string]string, error) {
	out := map[string]string{}
	if err := c.do(ctx, http.MethodGet, "/health", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
