package database

import (
	"context"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/configs"
)

func TestConnectRedisDisabled(t *testing.T) {
	client, err := ConnectRedis(context.Background(), configs.Config{})
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestConnectRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	client, err := ConnectRedis(context.Background(), configs.Config{RedisHost: mr.Host(), RedisPort: port})
	require.NoError(t, err)
	require.NotNil(t, client)
	defer client.Close()

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestConnectRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	port, _ := strconv.Atoi(mr.Port())
	mr.Close()

	_, err := ConnectRedis(context.Background(), configs.Config{RedisHost: "127.0.0.1", RedisPort: port})
	assert.Error(t, err)
}
