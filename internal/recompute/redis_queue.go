package recompute

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueKey is the Redis sorted set holding queued candidate IDs.
const DefaultQueueKey = "rank:recompute:queue"

// RedisQueue is a Queue shared across processes, backed by a Redis sorted set.
// Members are candidate IDs scored by first enqueue time, so the oldest dirty
// candidate is served first and duplicates collapse.
type RedisQueue struct {
	client      *redis.Client
	key         string
	pollTimeout time.Duration
}

// NewRedisQueue creates a queue on the given client. An empty key uses DefaultQueueKey.
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = DefaultQueueKey
	}
	return &RedisQueue{client: client, key: key, pollTimeout: 2 * time.Second}
}

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// Push adds id to the queue, keeping its original position if already queued.
func (q *RedisQueue) Push(ctx context.Context, id uuid.UUID) error {
	err := q.client.ZAddNX(ctx, q.key, redis.Z{
		Score:  float64(time.Now().UnixMilli()),
		Member: id.String(),
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to enqueue candidate %s: %w", id, err)
	}
	return nil
}

// Pop blocks until the oldest queued id can be removed.
func (q *RedisQueue) Pop(ctx context.Context) (uuid.UUID, error) {
	for {
		res, err := q.client.BZPopMin(ctx, q.pollTimeout, q.key).Result()
		if errors.Is(err, redis.Nil) {
			if ctx.Err() != nil {
				return uuid.Nil, ctx.Err()
			}
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return uuid.Nil, ctx.Err()
			}
			return uuid.Nil, fmt.Errorf("failed to dequeue candidate: %w", err)
		}

		member, ok := res.Member.(string)
		if !ok {
			return uuid.Nil, fmt.Errorf("unexpected queue member type %T", res.Member)
		}
		id, err := uuid.Parse(member)
		if err != nil {
			return uuid.Nil, fmt.Errorf("invalid queue member %q: %w", member, err)
		}
		return id, nil
	}
}

// Len returns the number of queued ids.
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	n, err := q.client.ZCard(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read queue length: %w", err)
	}
	return n, nil
}
