package recompute

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SweepResult summarizes one sweep.
type SweepResult struct {
	Candidates    int           `json:"candidates"`
	WeightVersion int64         `json:"weight_version"`
	Duration      time.Duration `json:"duration"`
	Skipped       bool          `json:"skipped,omitempty"`
}

// Sweep enqueues every candidate that is dirty, unscored, or scored under an older
// weight version. Only one sweep runs at a time; a concurrent call returns Skipped.
func (c *Coordinator) Sweep(ctx context.Context) (SweepResult, error) {
	return c.sweep(ctx, func(ctx context.Context, id uuid.UUID) error {
		return c.queue.Push(ctx, id)
	})
}

// SweepInline recomputes every candidate the sweep finds in the calling goroutine.
// Used when no worker pool is running.
func (c *Coordinator) SweepInline(ctx context.Context) (SweepResult, error) {
	return c.sweep(ctx, func(ctx context.Context, id uuid.UUID) error {
		rctx, cancel := context.WithTimeout(ctx, c.cfg.RecomputeTimeout)
		defer cancel()
		// Failures are logged and retried by Recompute; the sweep keeps going.
		_, _ = c.Recompute(rctx, id)
		return nil
	})
}

func (c *Coordinator) sweep(ctx context.Context, visit func(ctx context.Context, id uuid.UUID) error) (SweepResult, error) {
	if !c.sweepMu.TryLock() {
		return SweepResult{Skipped: true}, nil
	}
	defer c.sweepMu.Unlock()

	start := time.Now()
	ws, err := c.weights.Active(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("failed to load active weights: %w", err)
	}
	result := SweepResult{WeightVersion: ws.Version}

	after := uuid.Nil
	for {
		ids, err := c.store.ListDirtyCandidates(ctx, ws.Version, after, c.cfg.SweepPageSize)
		if err != nil {
			return result, fmt.Errorf("failed to list dirty candidates: %w", err)
		}
		for _, id := range ids {
			if err := visit(ctx, id); err != nil {
				return result, fmt.Errorf("failed to enqueue candidate %s: %w", id, err)
			}
			result.Candidates++
		}
		if len(ids) < c.cfg.SweepPageSize {
			break
		}
		after = ids[len(ids)-1]

		c.logger.Debug("sweep progress", "candidates", result.Candidates, "cursor", after)
	}

	result.Duration = time.Since(start)
	if c.metrics != nil {
		c.metrics.AddSweepEnqueued(result.Candidates)
		c.metrics.SetActiveWeightVersion(ws.Version)
	}
	c.logger.Info("sweep completed",
		"candidates", result.Candidates,
		"weight_version", ws.Version,
		"duration_seconds", result.Duration.Seconds())
	return result, nil
}
