package redisx

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestClaim_OnlyFirstCallerWins(t *testing.T) {
	mr, rdb := newRedis(t)
	ctx := context.Background()
	key := fmt.Sprintf(KeyDedup, "inventory", "evt-1")

	won, err := Claim(ctx, rdb, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, won)

	won, err = Claim(ctx, rdb, key, time.Minute)
	require.NoError(t, err)
	assert.False(t, won)

	mr.FastForward(2 * time.Minute)
	won, err = Claim(ctx, rdb, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, won)
}
