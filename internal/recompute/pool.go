package recompute

import (
	"context"
	"fmt"
	"time"

	"github.com/jonathan/rank-engine/internal/ranking"
)

// PoolRefreshResult summarizes one pool position refresh.
type PoolRefreshResult struct {
	PoolSize int           `json:"pool_size"`
	Updated  int           `json:"updated"`
	Duration time.Duration `json:"duration"`
}

// Pool returns the last pool snapshot, or nil before the first refresh.
func (c *Coordinator) Pool() *ranking.PoolSnapshot {
	return c.pool.Load()
}

// LoadPool replaces this process's pool snapshot with the stored scores without
// rewriting any row.
func (c *Coordinator) LoadPool(ctx context.Context) error {
	entries, err := c.store.PoolScores(ctx)
	if err != nil {
		return fmt.Errorf("failed to load pool scores: %w", err)
	}
	snap := ranking.NewPoolSnapshot(entries, c.now())
	c.pool.Store(snap)
	if c.metrics != nil {
		c.metrics.SetPoolSize(snap.Size())
	}
	return nil
}

func (c *Coordinator) reloadPool(ctx context.Context) {
	lctx, cancel := context.WithTimeout(ctx, c.cfg.RecomputeTimeout)
	defer cancel()
	if err := c.LoadPool(lctx); err != nil && ctx.Err() == nil {
		c.logger.Error("failed to load pool snapshot", "error", err)
	}
}

// RefreshPool rebuilds the pool snapshot from stored scores and rewrites every
// candidate's position and percentile. A row whose overall changed since it was read
// is skipped; its own recompute has already placed it against the previous snapshot.
func (c *Coordinator) RefreshPool(ctx context.Context) (PoolRefreshResult, error) {
	start := time.Now()

	entries, err := c.store.PoolScores(ctx)
	if err != nil {
		return PoolRefreshResult{}, fmt.Errorf("failed to load pool scores: %w", err)
	}

	snap := ranking.NewPoolSnapshot(entries, c.now())
	c.pool.Store(snap)

	result := PoolRefreshResult{PoolSize: snap.Size()}
	standings := snap.Standings()
	for _, e := range entries {
		st, ok := standings[e.CandidateID]
		if !ok {
			continue
		}
		updated, err := c.store.UpdateClassification(ctx, e.CandidateID, e.Overall, st)
		if err != nil {
			return result, fmt.Errorf("failed to update classification for %s: %w", e.CandidateID, err)
		}
		if updated {
			result.Updated++
		}
	}

	result.Duration = time.Since(start)
	if c.metrics != nil {
		c.metrics.SetPoolSize(result.PoolSize)
		c.metrics.SetPoolLastRefresh(float64(time.Now().Unix()))
	}
	c.logger.Info("pool positions refreshed",
		"pool_size", result.PoolSize,
		"updated", result.Updated,
		"duration_seconds", result.Duration.Seconds())
	return result, nil
}
