package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var (
	workerMetricsPort int
	workerSchedule    bool
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run recompute workers without the HTTP API",
	Long: `Run a pool of recompute workers consuming the dirty-candidate queue. With a Redis queue
configured, any number of worker processes can share the load with the API servers.`,
	RunE: runWorker,
}

func init() {
	workerCmd.Flags().IntVar(&workerMetricsPort, "metrics-port", 0, "Serve /metrics on this port (0 disables)")
	workerCmd.Flags().BoolVar(&workerSchedule, "schedule", false, "Also run the periodic sweep and pool refresh")
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()
	if cfg.RedisURL == "" {
		logger.Warn("no redis_url configured; this worker only sees candidates found by its own sweeps")
	}

	if err := startBackground(ctx, rt, true, workerSchedule); err != nil {
		return err
	}

	if workerMetricsPort == 0 {
		<-ctx.Done()
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(rt.metrics, promhttp.HandlerOpts{}))
	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", workerMetricsPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker metrics listening", "addr", metricsServer.Addr)
	if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server error: %w", err)
	}
	return nil
}
