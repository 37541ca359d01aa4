package main

import (
	"context"
	"fmt"

	"github.com/jonathan/rank-engine/internal/db"
	"github.com/jonathan/rank-engine/internal/eligibility"
	"github.com/jonathan/rank-engine/internal/engine"
	"github.com/jonathan/rank-engine/internal/recompute"
	"github.com/jonathan/rank-engine/internal/weights"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

// runtime holds the components shared by the database-backed commands.
type runtime struct {
	db       *db.DB
	redis    *redis.Client
	metrics  *prometheus.Registry
	registry *weights.Registry
	coord    *recompute.Coordinator
	gate     *eligibility.Gate
	engine   *engine.Engine
}

// newRuntime connects to PostgreSQL (and Redis if configured) and wires the engine.
func newRuntime(ctx context.Context) (*runtime, error) {
	if err := cfg.Validate(true); err != nil {
		return nil, err
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	rt := &runtime{db: database}

	if cfg.AutoMigrate {
		applied, err := database.Migrate(ctx)
		if err != nil {
			rt.Close()
			return nil, err
		}
		if len(applied) > 0 {
			logger.Info("applied migrations", "migrations", applied)
		}
	}

	var queue recompute.Queue
	if cfg.RedisURL != "" {
		client, err := recompute.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.redis = client
		queue = recompute.NewRedisQueue(client, cfg.Recompute.QueueKey)
	}

	rt.metrics = prometheus.NewRegistry()
	rt.metrics.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recomputeMetrics := recompute.NewMetrics()
	gateMetrics := eligibility.NewMetrics()
	if err := recomputeMetrics.Register(rt.metrics); err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to register recompute metrics: %w", err)
	}
	if err := gateMetrics.Register(rt.metrics); err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to register eligibility metrics: %w", err)
	}

	rt.registry = weights.NewRegistry(database, logger)
	rt.registry.SetCacheTTL(cfg.Recompute.WeightCacheTTL)
	if _, err := rt.registry.EnsureDefault(ctx); err != nil {
		rt.Close()
		return nil, err
	}

	coordCfg := cfg.CoordinatorConfig()
	coordCfg.Logger = logger
	coordCfg.Metrics = recomputeMetrics
	rt.coord = recompute.NewCoordinator(coordCfg, database, rt.registry, queue)
	rt.gate = eligibility.NewGate(database, rt.coord, logger, gateMetrics)
	rt.engine = engine.New(database, rt.registry, rt.coord, rt.gate, logger)
	return rt, nil
}

// Close stops the workers and releases connections.
func (rt *runtime) Close() {
	if rt.coord != nil {
		rt.coord.Stop()
	}
	if rt.redis != nil {
		_ = rt.redis.Close()
	}
	if rt.db != nil {
		rt.db.Close()
	}
}
