// Package scheduler runs the periodic pool refresh and dirty-candidate sweep.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jonathan/rank-engine/internal/recompute"
	"github.com/robfig/cron/v3"
)

// Default cron specs.
const (
	DefaultPoolRefreshSpec = "@every 1m"
	DefaultSweepSpec       = "@every 5m"
)

// Jobs is the work the scheduler triggers.
type Jobs interface {
	RefreshPool(ctx context.Context) (recompute.PoolRefreshResult, error)
	Sweep(ctx context.Context) (recompute.SweepResult, error)
}

// Config holds the cron specs. Empty specs use the defaults.
type Config struct {
	PoolRefreshSpec string
	SweepSpec       string
	Logger          *slog.Logger
}

// Scheduler wraps robfig/cron and manages the refresh and sweep loops.
type Scheduler struct {
	cron   *cron.Cron
	jobs   Jobs
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	running bool
}

// New creates a Scheduler for jobs.
func New(jobs Jobs, cfg Config) *Scheduler {
	if cfg.PoolRefreshSpec == "" {
		cfg.PoolRefreshSpec = DefaultPoolRefreshSpec
	}
	if cfg.SweepSpec == "" {
		cfg.SweepSpec = DefaultSweepSpec
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		jobs:   jobs,
		cfg:    cfg,
		logger: logger,
	}
}

// Start registers both jobs and starts the scheduler. Both also run once
// immediately so a fresh process does not wait for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	if _, err := s.cron.AddFunc(s.cfg.PoolRefreshSpec, func() { s.runPoolRefresh(ctx) }); err != nil {
		return fmt.Errorf("invalid pool refresh spec %q: %w", s.cfg.PoolRefreshSpec, err)
	}
	if _, err := s.cron.AddFunc(s.cfg.SweepSpec, func() { s.runSweep(ctx) }); err != nil {
		return fmt.Errorf("invalid sweep spec %q: %w", s.cfg.SweepSpec, err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("scheduler started",
		"pool_refresh_spec", s.cfg.PoolRefreshSpec,
		"sweep_spec", s.cfg.SweepSpec)

	// Run immediately on startup (non-blocking)
	go func() {
		s.runPoolRefresh(ctx)
		s.runSweep(ctx)
	}()
	return nil
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	s.logger.Info("scheduler stopped")
}

// IsRunning reports whether the scheduler has been started.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) runPoolRefresh(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	res, err := s.jobs.RefreshPool(ctx)
	if err != nil {
		s.logger.Error("pool refresh failed", "error", err)
		return
	}
	s.logger.Info("pool refreshed",
		"pool_size", res.PoolSize,
		"updated", res.Updated,
		"duration_seconds", res.Duration.Seconds())
}

func (s *Scheduler) runSweep(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	res, err := s.jobs.Sweep(ctx)
	if err != nil {
		s.logger.Error("sweep failed", "error", err)
		return
	}
	if res.Skipped {
		s.logger.Debug("sweep skipped, another sweep is running")
		return
	}
	s.logger.Info("sweep complete",
		"candidates", res.Candidates,
		"weight_set_version", res.WeightVersion,
		"duration_seconds", res.Duration.Seconds())
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
