package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"taskflow/internal/apperror"
	"taskflow/internal/auth"
	"taskflow/internal/models"
	"taskflow/pkg/logger"
)

type stubAuthenticator struct{}

func (stubAuthenticator) Authenticate(_ context.Context, raw string) (*auth.Claims, error) {
	if raw != "good" {
		return nil, apperror.Unauthenticated("Invalid token")
	}
	return &auth.Claims{UserID: 3, Role: models.RoleEmployee}, nil
}

func newApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Use(AssignRequestID(), RequestLogger(), Recover())
	app.Get("/panic", func(c *fiber.Ctx) error { panic("boom") })
	app.Get("/internal", func(c *fiber.Ctx) error { return errors.New("db exploded: password=hunter2") })
	app.Get("/conflict", func(c *fiber.Ctx) error { return apperror.Conflict("Already there") })
	app.Get("/me", Authenticate(stubAuthenticator{}), func(c *fiber.Ctx) error {
		caller, err := Caller(c)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"id": caller.ID, "role": caller.Role})
	})
	app.Get("/open", func(c *fiber.Ctx) error {
		_, err := Caller(c)
		return err
	})
	return app
}

func call(t *testing.T, app *fiber.App, path, authorization string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := map[string]interface{}{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	}
	return resp.StatusCode, body
}

func TestPanicBecomesInternalError(t *testing.T) {
	code, body := call(t, newApp(), "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Internal server error", body["error"])
}

func TestPanicIsLoggedWithRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	prev := logger.ErrorLogger
	logger.ErrorLogger = zap.New(core)
	t.Cleanup(func() { logger.ErrorLogger = prev })

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	req.Header.Set(fiber.HeaderXRequestID, "abc")
	resp, err := newApp().Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "abc", resp.Header.Get(fiber.HeaderXRequestID))

	recovered := logs.FilterMessage("Recovered from panic").All()
	require.Len(t, recovered, 1)
	fields := recovered[0].ContextMap()
	assert.Equal(t, "abc", fields["request_id"])
	assert.Equal(t, "boom", fields["panic"])
	assert.NotEmpty(t, fields["stack"])
}

func TestRequestIDIsGeneratedWhenMissing(t *testing.T) {
	resp, err := newApp().Test(httptest.NewRequest(http.MethodGet, "/open", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Len(t, resp.Header.Get(fiber.HeaderXRequestID), 36)
}

func TestInternalErrorsHideCause(t *testing.T) {
	code, body := call(t, newApp(), "/internal", "")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Internal server error", body["error"])
}

func TestTypedErrorsMapToStatus(t *testing.T) {
	code, body := call(t, newApp(), "/conflict", "")
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Already there", body["error"])

	code, body = call(t, newApp(), "/missing", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Route not found", body["error"])
}

func TestAuthenticate(t *testing.T) {
	app := newApp()

	code, body := call(t, app, "/me", "Bearer good")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(3), body["id"])
	assert.Equal(t, "EMPLOYEE", body["role"])

	code, _ = call(t, app, "/me", "bearer good")
	assert.Equal(t, http.StatusOK, code, "scheme is case-insensitive")

	code, body = call(t, app, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "No token provided", body["error"])

	code, body = call(t, app, "/me", "Bearer")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid token format", body["error"])

	code, body = call(t, app, "/me", "Bearer bad")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid token", body["error"])

	code, _ = call(t, app, "/open", "")
	assert.Equal(t, http.StatusUnauthorized, code)
}
