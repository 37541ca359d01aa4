package recompute

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueue_FIFOAndDedupe(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue()
	a, b := uuid.New(), uuid.New()

	require.NoError(t, q.Push(ctx, a))
	require.NoError(t, q.Push(ctx, b))
	require.NoError(t, q.Push(ctx, a))

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, err := q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, a, got)

	// a may be queued again once popped.
	require.NoError(t, q.Push(ctx, a))
	got, err = q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, b, got)
	got, err = q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, a, got)
}

func TestMemoryQueue_PopBlocksUntilPush(t *testing.T) {
	q := NewMemoryQueue()
	id := uuid.New()

	result := make(chan uuid.UUID, 1)
	go func() {
		got, err := q.Pop(context.Background())
		if err == nil {
			result <- got
		}
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, q.Push(context.Background(), id))

	select {
	case got := <-result:
		assert.Equal(t, id, got)
	case <-time.After(time.Second):
		t.Fatal("pop did not return after push")
	}
}

func TestMemoryQueue_PopRespectsContext(t *testing.T) {
	q := NewMemoryQueue()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Pop(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMemoryQueue_ConcurrentConsumers(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	q := NewMemoryQueue()

	const total = 100
	for i := 0; i < total; i++ {
		require.NoError(t, q.Push(ctx, uuid.New()))
	}

	var mu sync.Mutex
	seen := make(map[uuid.UUID]bool)
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				mu.Lock()
				done := len(seen) == total
				mu.Unlock()
				if done || ctx.Err() != nil {
					return
				}
				pctx, pcancel := context.WithTimeout(ctx, 50*time.Millisecond)
				id, err := q.Pop(pctx)
				pcancel()
				if err != nil {
					continue
				}
				mu.Lock()
				assert.False(t, seen[id], "id popped twice")
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, total)
}
