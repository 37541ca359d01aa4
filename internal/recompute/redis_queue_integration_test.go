//go:build integration

package recompute

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisQueue(t *testing.T) *RedisQueue {
	t.Helper()
	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		t.Skip("TEST_REDIS_URL not set, skipping integration test")
	}

	ctx := context.Background()
	client, err := NewRedisClient(ctx, redisURL)
	require.NoError(t, err)

	key := "rank:test:" + uuid.NewString()
	t.Cleanup(func() {
		_ = client.Del(context.Background(), key).Err()
		_ = client.Close()
	})
	return NewRedisQueue(client, key)
}

func TestRedisQueue_PushPopDedupe(t *testing.T) {
	q := setupRedisQueue(t)
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()

	require.NoError(t, q.Push(ctx, a))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, q.Push(ctx, b))
	require.NoError(t, q.Push(ctx, a))

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, err := q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, a, got)

	got, err = q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, b, got)
}

func TestRedisQueue_PopRespectsContext(t *testing.T) {
	q := setupRedisQueue(t)
	q.pollTimeout = 100 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()

	_, err := q.Pop(ctx)
	assert.Error(t, err)
}
