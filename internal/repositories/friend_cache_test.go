package repositories

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisFriendCache(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	ctx := context.Background()
	cache := NewRedisFriendCache(client, time.Minute)
	const userID = 990001
	require.NoError(t, cache.Invalidate(ctx, userID))

	_, version, ok, err := cache.GetFriendIDs(ctx, userID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.SetFriendIDs(ctx, userID, nil, version))
	ids, _, ok, err := cache.GetFriendIDs(ctx, userID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, ids)

	require.NoError(t, cache.SetFriendIDs(ctx, userID, []uint{3, 5}, version))
	ids, _, ok, err = cache.GetFriendIDs(ctx, userID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.ElementsMatch(t, []uint{3, 5}, ids)

	require.NoError(t, cache.Invalidate(ctx, userID))
	_, _, ok, err = cache.GetFriendIDs(ctx, userID)
	require.NoError(t, err)
	assert.False(t, ok)

	// A set loaded before the invalidation is dropped
	require.NoError(t, cache.SetFriendIDs(ctx, userID, []uint{3, 5}, version))
	_, _, ok, err = cache.GetFriendIDs(ctx, userID)
	require.NoError(t, err)
	assert.False(t, ok)
}
