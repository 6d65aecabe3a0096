package database

import (
	"context"
	"testing"
	"time"

	"atm-admin/shared/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, *redisMachineCache) {
	t.Helper()

	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cache := NewRedisMachineCache(client, time.Minute, zap.NewNop()).(*redisMachineCache)
	return mr, cache
}

func TestRedisMachineCache_SetGet(t *testing.T) {
	mr, cache := setupMiniRedis(t)
	ctx := context.Background()
	machines := []models.Machine{
		{Name: "Lobby", DeviceID: "dev-1"},
		{Name: "Mall", DeviceID: "dev-2"},
	}

	require.NoError(t, cache.SetMachines(ctx, machines))

	got, found, err := cache.GetMachines(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, machines, got)
	assert.Equal(t, time.Minute, mr.TTL(machinesCacheKey))
}

func TestRedisMachineCache_Miss(t *testing.T) {
	_, cache := setupMiniRedis(t)

	got, found, err := cache.GetMachines(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, got)
}

func TestRedisMachineCache_Expiry(t *testing.T) {
	mr, cache := setupMiniRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.SetMachines(ctx, []models.Machine{{Name: "A", DeviceID: "a"}}))
	mr.FastForward(2 * time.Minute)

	_, found, err := cache.GetMachines(ctx)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisMachineCache_CorruptedEntry(t *testing.T) {
	mr, cache := setupMiniRedis(t)
	require.NoError(t, mr.Set(machinesCacheKey, "{not json"))

	_, found, err := cache.GetMachines(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisMachineCache_Invalidate(t *testing.T) {
	mr, cache := setupMiniRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.SetMachines(ctx, []models.Machine{{Name: "A", DeviceID: "a"}}))
	require.NoError(t, cache.Invalidate(ctx))
	assert.False(t, mr.Exists(machinesCacheKey))
}
