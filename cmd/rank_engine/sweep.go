package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var sweepEnqueue bool

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Recompute every dirty, unscored or outdated candidate",
	Long: `Find every candidate that is flagged dirty, has no rank score, or was scored under an older
weight set, and recompute it. By default candidates are recomputed in this process; with
--enqueue they are pushed to the shared queue for the workers instead.`,
	RunE: runSweep,
}

var refreshPoolCmd = &cobra.Command{
	Use:   "refresh-pool",
	Short: "Recalculate rank positions and percentiles across the pool",
	RunE:  runRefreshPool,
}

func init() {
	sweepCmd.Flags().BoolVar(&sweepEnqueue, "enqueue", false, "Push candidates to the queue instead of recomputing inline")
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(refreshPoolCmd)
}

func runSweep(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	sweep := rt.coord.SweepInline
	if sweepEnqueue {
		if cfg.RedisURL == "" {
			return fmt.Errorf("--enqueue requires a shared queue (set REDIS_URL)")
		}
		sweep = rt.coord.Sweep
	}
	result, err := sweep(ctx)
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}
	if !sweepEnqueue && !result.Skipped {
		// Inline recomputes placed candidates against the previous snapshot.
		if _, err := rt.coord.RefreshPool(ctx); err != nil {
			return fmt.Errorf("pool refresh failed: %w", err)
		}
	}
	return writeJSON(cmd, result)
}

func runRefreshPool(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	result, err := rt.coord.RefreshPool(ctx)
	if err != nil {
		return fmt.Errorf("pool refresh failed: %w", err)
	}
	return writeJSON(cmd, result)
}

// writeJSON prints v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
