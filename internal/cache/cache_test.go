package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/internal/models"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestUsersRoundTrip(t *testing.T) {
	mr, client := newRedis(t)
	ctx := context.Background()
	c := NewUsers(client, time.Minute)

	_, ok := c.Get(ctx)
	assert.False(t, ok)

	c.Set(ctx, []models.User{{ID: 1, Name: "Admin", Email: "a@x.io", Role: models.RoleAdmin, PasswordHash: "secret"}})
	assert.NotContains(t, mustGet(t, mr, usersKey), "secret")

	users, ok := c.Get(ctx)
	require.True(t, ok)
	require.Len(t, users, 1)
	assert.Equal(t, "Admin", users[0].Name)
	assert.Equal(t, models.RoleAdmin, users[0].Role)

	mr.FastForward(2 * time.Minute)
	_, ok = c.Get(ctx)
	assert.False(t, ok, "entry expires")
}

func TestUsersInvalidate(t *testing.T) {
	mr, client := newRedis(t)
	ctx := context.Background()
	c := NewUsers(client, time.Minute)

	c.Set(ctx, []models.User{{ID: 1}})
	c.Invalidate(ctx)
	assert.False(t, mr.Exists(usersKey))

	require.NoError(t, mr.Set(usersKey, "{broken"))
	_, ok := c.Get(ctx)
	assert.False(t, ok)
	assert.False(t, mr.Exists(usersKey), "corrupt entry dropped")
}

func TestNilClientIsNoop(t *testing.T) {
	ctx := context.Background()
	c := NewUsers(nil, time.Minute)
	c.Set(ctx, []models.User{{ID: 1}})
	_, ok := c.Get(ctx)
	assert.False(t, ok)
	c.Invalidate(ctx)

	d := NewDenylist(nil)
	assert.NoError(t, d.Revoke(ctx, "id", time.Now().Add(time.Hour)))
	revoked, err := d.IsRevoked(ctx, "id")
	assert.NoError(t, err)
	assert.False(t, revoked)
}

func TestDenylist(t *testing.T) {
	mr, client := newRedis(t)
	ctx := context.Background()
	d := NewDenylist(client)

	require.NoError(t, d.Revoke(ctx, "abc", time.Now().Add(time.Hour)))
	revoked, err := d.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = d.IsRevoked(ctx, "other")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, d.Revoke(ctx, "stale", time.Now().Add(-time.Minute)))
	assert.False(t, mr.Exists(revokedPrefix+"stale"), "already expired tokens are not stored")

	mr.FastForward(2 * time.Hour)
	revoked, err = d.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func mustGet(t *testing.T, mr *miniredis.Miniredis, key string) string {
	t.Helper()
	v, err := mr.Get(key)
	require.NoError(t, err)
	return v
}
