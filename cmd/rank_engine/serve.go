package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonathan/rank-engine/internal/scheduler"
	"github.com/jonathan/rank-engine/internal/server"
	"github.com/spf13/cobra"
)

var (
	servePort        int
	serveNoWorkers   bool
	serveNoScheduler bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server that exposes the rank score, factor mutation, weight and eligibility
endpoints. Recompute workers and the periodic sweep and pool refresh run in the same process
unless disabled.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	serveCmd.Flags().BoolVar(&serveNoWorkers, "no-workers", false, "Do not run recompute workers in this process")
	serveCmd.Flags().BoolVar(&serveNoScheduler, "no-scheduler", false, "Do not run the periodic sweep and pool refresh")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if servePort != 0 {
		cfg.Port = servePort
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()
	logger.Info("configuration loaded", cfg.LogSummary()...)

	if err := startBackground(ctx, rt, !serveNoWorkers, !serveNoScheduler); err != nil {
		return err
	}

	srv := server.New(server.Config{
		Port:       cfg.Port,
		AdminToken: cfg.AdminToken,
		RateLimit:  &cfg.RateLimit,
		Gatherer:   rt.metrics,
		Health:     rt.db,
		Logger:     logger,
	}, rt.engine)
	if cfg.AdminToken == "" {
		logger.Warn("admin token not set; admin endpoints are unprotected")
	}
	return srv.Run(ctx)
}

// startBackground starts the recompute workers and the scheduler. Both stop when ctx
// is cancelled; the workers are drained again by runtime.Close.
func startBackground(ctx context.Context, rt *runtime, workers, schedule bool) error {
	if workers {
		if err := rt.coord.Start(ctx); err != nil {
			return fmt.Errorf("failed to start recompute workers: %w", err)
		}
	}
	if !schedule {
		return nil
	}

	sched := scheduler.New(rt.coord, scheduler.Config{
		PoolRefreshSpec: cfg.Schedule.PoolRefresh,
		SweepSpec:       cfg.Schedule.Sweep,
		Logger:          logger,
	})
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	go func() {
		<-ctx.Done()
		sched.Stop()
	}()
	return nil
}
