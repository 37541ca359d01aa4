package recompute

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Queue is a deduplicating work queue of candidate IDs awaiting recompute.
// Pushing a candidate that is already queued is a no-op.
type Queue interface {
	Push(ctx context.Context, id uuid.UUID) error
	// Pop blocks until a candidate is available or ctx is done.
	Pop(ctx context.Context) (uuid.UUID, error)
	Len(ctx context.Context) (int64, error)
}

// MemoryQueue is an in-process Queue.
type MemoryQueue struct {
	mu     sync.Mutex
	items  []uuid.UUID
	queued map[uuid.UUID]struct{}
	signal chan struct{}
}

// NewMemoryQueue creates an empty in-process queue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		queued: make(map[uuid.UUID]struct{}),
		signal: make(chan struct{}, 1),
	}
}

// Push enqueues id unless it is already queued.
func (q *MemoryQueue) Push(_ context.Context, id uuid.UUID) error {
	q.mu.Lock()
	if _, ok := q.queued[id]; ok {
		q.mu.Unlock()
		return nil
	}
	q.queued[id] = struct{}{}
	q.items = append(q.items, id)
	q.mu.Unlock()

	q.notify()
	return nil
}

// Pop removes the oldest queued id, waiting for one if the queue is empty.
func (q *MemoryQueue) Pop(ctx context.Context) (uuid.UUID, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			id := q.items[0]
			q.items = q.items[1:]
			delete(q.queued, id)
			more := len(q.items) > 0
			q.mu.Unlock()
			if more {
				q.notify()
			}
			return id, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return uuid.Nil, ctx.Err()
		case <-q.signal:
		}
	}
}

// Len returns the number of queued ids.
func (q *MemoryQueue) Len(_ context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.items)), nil
}

func (q *MemoryQueue) notify() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}
