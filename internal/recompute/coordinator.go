// Package recompute keeps stored rank scores converging to the candidates' current
// factors and the active weight set.
//
// Factor writes mark a candidate dirty and enqueue it; a pool of workers drains the
// queue, recomputing each candidate from its full factor state. Failed recomputes are
// retried with backoff, and a periodic sweep re-enqueues anything a lost event or a
// weight change left behind.
package recompute

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/rank-engine/internal/ranking"
	"github.com/jonathan/rank-engine/internal/types"
	"golang.org/x/sync/errgroup"
)

// Store is the persistence the coordinator needs.
type Store interface {
	// LoadFactors returns the full factor state and the factor sequence observed with
	// it, or nil if the candidate is unknown. The sequence grows with every write.
	LoadFactors(ctx context.Context, id uuid.UUID) (*types.CandidateFactors, int64, error)
	// SaveRankScore stores score unless the stored score was computed from later
	// factors, a later weight version or at a later time, and clears the dirty flag
	// if it has not moved past sourceSeq.
	SaveRankScore(ctx context.Context, score types.RankScore, sourceSeq int64) (bool, error)
	GetRankScore(ctx context.Context, id uuid.UUID) (*types.RankScore, error)
	IsCandidateDirty(ctx context.Context, id uuid.UUID) (bool, error)
	// ListDirtyCandidates pages through candidates that are flagged dirty, unscored, or
	// scored under a weight version older than activeVersion, ordered by ID.
	ListDirtyCandidates(ctx context.Context, activeVersion int64, after uuid.UUID, limit int) ([]uuid.UUID, error)
	PoolScores(ctx context.Context) ([]ranking.PoolEntry, error)
	// UpdateClassification writes standing if the stored overall still equals overall.
	UpdateClassification(ctx context.Context, id uuid.UUID, overall float64, standing ranking.Standing) (bool, error)
}

// WeightSource provides the active weight set.
type WeightSource interface {
	Active(ctx context.Context) (types.WeightSet, error)
}

// Config configures the coordinator.
type Config struct {
	// Workers is the number of concurrent recompute workers.
	Workers int
	// RecomputeTimeout bounds a single candidate recompute.
	RecomputeTimeout time.Duration
	// StaleSLA is the maximum expected lag between a factor change and its recompute.
	StaleSLA time.Duration
	// RetryBaseDelay and RetryMaxDelay bound the exponential retry backoff.
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	// MaxAttempts is how often a candidate is retried before being left to the sweep.
	MaxAttempts int
	// SweepPageSize is the number of candidates listed per sweep page.
	SweepPageSize int
	// PoolReloadInterval is how often running workers reload the pool snapshot
	// written by RefreshPool in any process.
	PoolReloadInterval time.Duration
	// Params tunes the factor extractors.
	Params ranking.Params
	// Logger for coordinator activity.
	Logger *slog.Logger
	// Metrics for recompute tracking. May be nil.
	Metrics *Metrics
}

// Defaults for Config fields left zero.
const (
	DefaultWorkers          = 4
	DefaultRecomputeTimeout = 10 * time.Second
	DefaultStaleSLA         = 60 * time.Second
	DefaultRetryBaseDelay   = 500 * time.Millisecond
	DefaultRetryMaxDelay    = 30 * time.Second
	DefaultMaxAttempts      = 8
	DefaultSweepPageSize    = 500
	DefaultPoolReload       = time.Minute
)

// Coordinator schedules and performs candidate score recomputation.
type Coordinator struct {
	cfg     Config
	store   Store
	weights WeightSource
	queue   Queue
	tracker *Tracker
	logger  *slog.Logger
	metrics *Metrics
	now     func() time.Time

	pool atomic.Pointer[ranking.PoolSnapshot]

	retryMu  sync.Mutex
	attempts map[uuid.UUID]int

	sweepMu sync.Mutex

	mu      sync.Mutex
	running bool
	runCtx  context.Context
	cancel  context.CancelFunc
	doneCh  chan struct{}
}

// NewCoordinator creates a coordinator. Call Start to run workers.
func NewCoordinator(cfg Config, store Store, weights WeightSource, queue Queue) *Coordinator {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.RecomputeTimeout <= 0 {
		cfg.RecomputeTimeout = DefaultRecomputeTimeout
	}
	if cfg.StaleSLA <= 0 {
		cfg.StaleSLA = DefaultStaleSLA
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = DefaultRetryBaseDelay
	}
	if cfg.RetryMaxDelay <= 0 {
		cfg.RetryMaxDelay = DefaultRetryMaxDelay
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.SweepPageSize <= 0 {
		cfg.SweepPageSize = DefaultSweepPageSize
	}
	if cfg.PoolReloadInterval <= 0 {
		cfg.PoolReloadInterval = DefaultPoolReload
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if queue == nil {
		queue = NewMemoryQueue()
	}

	return &Coordinator{
		cfg:      cfg,
		store:    store,
		weights:  weights,
		queue:    queue,
		tracker:  NewTracker(),
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		now:      time.Now,
		attempts: make(map[uuid.UUID]int),
	}
}

// Start loads the pool snapshot and launches the worker pool. Returns once the
// snapshot load has been attempted; if it fails, workers store unclassified
// scores until a reload succeeds.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.running = true
	c.runCtx = runCtx
	c.cancel = cancel
	c.doneCh = make(chan struct{})
	c.mu.Unlock()

	c.reloadPool(runCtx)

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		ticker := time.NewTicker(c.cfg.PoolReloadInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				c.reloadPool(gctx)
				c.reportDirty()
			}
		}
	})
	for i := 0; i < c.cfg.Workers; i++ {
		worker := i
		g.Go(func() error {
			c.work(gctx, worker)
			return nil
		})
	}

	go func() {
		defer close(c.doneCh)
		_ = g.Wait()
	}()

	c.logger.Info("recompute workers started", "workers", c.cfg.Workers)
	return nil
}

// Stop signals the workers to stop and waits for in-flight recomputes to finish.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	cancel := c.cancel
	doneCh := c.doneCh
	c.mu.Unlock()

	cancel()
	<-doneCh

	c.mu.Lock()
	c.running = false
	c.mu.Unlock()
	c.logger.Info("recompute workers stopped")
}

// IsRunning returns whether the workers are running.
func (c *Coordinator) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// MarkDirty records a factor change and enqueues the candidate.
// The caller's write has already committed; an enqueue failure is left to the sweep.
func (c *Coordinator) MarkDirty(ctx context.Context, id uuid.UUID) error {
	if c.IsRunning() {
		c.tracker.MarkDirty(id, c.now())
		c.reportDirty()
	}
	if err := c.queue.Push(ctx, id); err != nil {
		return fmt.Errorf("failed to enqueue recompute: %w", err)
	}
	return nil
}

// State returns the candidate's recompute state as seen by this process.
func (c *Coordinator) State(id uuid.UUID) State {
	return c.tracker.State(id)
}

// OnWeightsChanged re-enqueues every candidate scored under an older weight version.
func (c *Coordinator) OnWeightsChanged(_ context.Context, ws types.WeightSet) {
	if c.metrics != nil {
		c.metrics.SetActiveWeightVersion(ws.Version)
	}

	c.mu.Lock()
	running, runCtx := c.running, c.runCtx
	c.mu.Unlock()
	if !running {
		return
	}

	go func() {
		if _, err := c.Sweep(runCtx); err != nil && runCtx.Err() == nil {
			c.logger.Error("weight change sweep failed", "version", ws.Version, "error", err)
		}
	}()
}

// IsStale reports whether a stored score lags the candidate's factors or the active weights.
func (c *Coordinator) IsStale(ctx context.Context, score *types.RankScore) (bool, error) {
	if score == nil {
		return false, nil
	}
	ws, err := c.weights.Active(ctx)
	if err != nil {
		return false, err
	}
	if score.WeightSetVersion < ws.Version {
		return true, nil
	}
	if c.tracker.State(score.CandidateID) != StateFresh {
		return true, nil
	}
	dirty, err := c.store.IsCandidateDirty(ctx, score.CandidateID)
	if err != nil {
		return false, fmt.Errorf("failed to read dirty flag: %w", err)
	}
	return dirty, nil
}

// Recompute recomputes one candidate from its full factor state and stores the result.
// It returns nil without error when the candidate is unknown or already being recomputed.
func (c *Coordinator) Recompute(ctx context.Context, id uuid.UUID) (*types.RankScore, error) {
	gen, dirtySince, ok := c.tracker.Begin(id, c.now())
	if !ok {
		return nil, nil
	}
	start := time.Now()

	score, err := c.compute(ctx, id)
	stillDirty := c.tracker.Finish(id, gen, err == nil)
	c.reportDirty()

	if err != nil {
		if c.metrics != nil {
			c.metrics.IncRecomputeErrors()
		}
		attempt := c.scheduleRetry(id)
		c.logger.Error("failed to recompute rank score",
			"candidate_id", id,
			"attempt", attempt,
			"error", err)
		return nil, &TransientError{CandidateID: id, Attempt: attempt, Err: err}
	}
	c.clearAttempts(id)
	if score == nil {
		return nil, nil
	}

	duration := time.Since(start).Seconds()
	if c.metrics != nil {
		c.metrics.IncRecomputeTotal()
		c.metrics.ObserveRecomputeDuration(duration)
	}

	if lag := c.now().Sub(dirtySince); lag > c.cfg.StaleSLA {
		c.logger.Warn("StaleScoreWarning",
			"candidate_id", id,
			"lag_seconds", lag.Seconds(),
			"sla_seconds", c.cfg.StaleSLA.Seconds())
		if c.metrics != nil {
			c.metrics.IncStaleScores()
		}
	}

	if stillDirty {
		if err := c.queue.Push(ctx, id); err != nil {
			c.logger.Error("failed to requeue dirty candidate", "candidate_id", id, "error", err)
		}
	}

	c.logger.Debug("rank score recomputed",
		"candidate_id", id,
		"overall", score.Overall,
		"tier", score.Tier,
		"weight_set_version", score.WeightSetVersion,
		"duration_seconds", duration)
	return score, nil
}

// compute loads, ranks and stores one candidate.
func (c *Coordinator) compute(ctx context.Context, id uuid.UUID) (*types.RankScore, error) {
	ws, err := c.weights.Active(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active weights: %w", err)
	}

	factors, seq, err := c.store.LoadFactors(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load factors: %w", err)
	}
	if factors == nil {
		c.logger.Warn("recompute requested for unknown candidate", "candidate_id", id)
		return nil, nil
	}

	score := ranking.Rank(ranking.Input{
		Factors:   factors,
		WeightSet: ws,
		Pool:      c.pool.Load(),
		AsOf:      c.now(),
		Params:    c.cfg.Params,
	})

	saved, err := c.store.SaveRankScore(ctx, score, seq)
	if err != nil {
		return nil, fmt.Errorf("failed to save rank score: %w", err)
	}
	if !saved {
		c.logger.Debug("newer rank score already stored", "candidate_id", id)
	}
	return &score, nil
}

// scheduleRetry re-enqueues the candidate after an exponential backoff and returns
// the attempt number. After MaxAttempts the candidate is left to the sweep.
func (c *Coordinator) scheduleRetry(id uuid.UUID) int {
	c.retryMu.Lock()
	c.attempts[id]++
	attempt := c.attempts[id]
	if attempt >= c.cfg.MaxAttempts {
		delete(c.attempts, id)
	}
	c.retryMu.Unlock()

	if attempt >= c.cfg.MaxAttempts {
		c.logger.Error("recompute retries exhausted, leaving candidate for sweep",
			"candidate_id", id,
			"attempts", attempt)
		return attempt
	}

	delay := c.backoff(attempt)
	if c.metrics != nil {
		c.metrics.IncRecomputeRetries()
	}
	time.AfterFunc(delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.RecomputeTimeout)
		defer cancel()
		if err := c.queue.Push(ctx, id); err != nil {
			c.logger.Error("failed to enqueue retry", "candidate_id", id, "error", err)
		}
	})
	return attempt
}

// backoff returns the delay before the given retry attempt.
func (c *Coordinator) backoff(attempt int) time.Duration {
	d := float64(c.cfg.RetryBaseDelay) * math.Pow(2, float64(attempt-1))
	if d > float64(c.cfg.RetryMaxDelay) {
		return c.cfg.RetryMaxDelay
	}
	return time.Duration(d)
}

func (c *Coordinator) clearAttempts(id uuid.UUID) {
	c.retryMu.Lock()
	delete(c.attempts, id)
	c.retryMu.Unlock()
}

func (c *Coordinator) reportDirty() {
	if c.metrics == nil {
		return
	}
	c.metrics.SetDirtyCandidates(c.tracker.Len())
	lag := 0.0
	if oldest, ok := c.tracker.OldestDirty(); ok {
		lag = c.now().Sub(oldest).Seconds()
	}
	c.metrics.SetDirtyLag(lag)
}

// work is one worker's main loop.
func (c *Coordinator) work(ctx context.Context, worker int) {
	for {
		id, err := c.queue.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("failed to dequeue candidate", "worker", worker, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		rctx, cancel := context.WithTimeout(ctx, c.cfg.RecomputeTimeout)
		_, _ = c.Recompute(rctx, id)
		cancel()
	}
}
