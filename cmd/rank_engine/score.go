package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jonathan/rank-engine/internal/eligibility"
	"github.com/jonathan/rank-engine/internal/engine"
	"github.com/jonathan/rank-engine/internal/memstore"
	"github.com/jonathan/rank-engine/internal/observability"
	"github.com/jonathan/rank-engine/internal/ranking"
	"github.com/jonathan/rank-engine/internal/recompute"
	"github.com/jonathan/rank-engine/internal/schemas"
	"github.com/jonathan/rank-engine/internal/types"
	"github.com/jonathan/rank-engine/internal/weights"
	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a pool of candidates offline",
	Long: `Deterministically scores the candidates in a CandidatePool JSON file without touching the
database. Positions and percentiles are computed within the file's pool. Weights come from the
file's "weights" object or the default weight set.`,
	RunE: runScore,
}

var (
	scoreInput  string
	scoreOutput string
)

func init() {
	scoreCmd.Flags().StringVarP(&scoreInput, "in", "i", "", "Path to input CandidatePool JSON file (required)")
	scoreCmd.Flags().StringVarP(&scoreOutput, "out", "o", "", "Path to output JSON file (prints a summary when empty)")

	if err := scoreCmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}

	rootCmd.AddCommand(scoreCmd)
}

// candidatePool is the offline scoring input.
type candidatePool struct {
	Weights    *types.WeightProposal    `json:"weights,omitempty"`
	Candidates []types.CandidateFactors `json:"candidates"`
}

// scoreReport is the offline scoring output.
type scoreReport struct {
	Weights types.WeightSet   `json:"weights"`
	Scores  []types.RankScore `json:"scores"`
}

func runScore(cmd *cobra.Command, _ []string) error {
	data, err := os.ReadFile(scoreInput)
	if err != nil {
		return fmt.Errorf("failed to read candidate pool file %s: %w", scoreInput, err)
	}

	report, err := scorePool(cmd.Context(), data, cfg.Scoring)
	if err != nil {
		return err
	}

	if scoreOutput == "" {
		p := observability.NewPrinter(cmd.OutOrStdout())
		for i := range report.Scores {
			p.PrintRankScore(&report.Scores[i], &report.Weights)
		}
		return nil
	}

	jsonOutput, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal score report to JSON: %w", err)
	}

	// Ensure output directory exists
	outputDir := filepath.Dir(scoreOutput)
	if outputDir != "" && outputDir != "." {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
		}
	}
	if err := os.WriteFile(scoreOutput, jsonOutput, 0644); err != nil {
		return fmt.Errorf("failed to write score report to output file %s: %w", scoreOutput, err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Scored %d candidates to %s\n", len(report.Scores), scoreOutput)
	return nil
}

// scorePool validates and scores a CandidatePool document against an in-memory store,
// then classifies the candidates within the pool. Scores keep the input order.
func scorePool(ctx context.Context, data []byte, params ranking.Params) (*scoreReport, error) {
	if err := schemas.Validate(schemas.CandidatePool, data); err != nil {
		return nil, err
	}
	var pool candidatePool
	if err := json.Unmarshal(data, &pool); err != nil {
		return nil, fmt.Errorf("failed to unmarshal candidate pool JSON: %w", err)
	}

	quiet := observability.NewLogger(io.Discard, "error", "text")
	store := memstore.New()
	registry := weights.NewRegistry(store, quiet)
	if _, err := registry.EnsureDefault(ctx); err != nil {
		return nil, err
	}
	if pool.Weights != nil {
		if _, err := registry.Propose(ctx, *pool.Weights); err != nil {
			return nil, err
		}
	}

	coord := recompute.NewCoordinator(recompute.Config{Params: params, Logger: quiet}, store, registry, nil)
	eng := engine.New(store, registry, coord, eligibility.NewGate(store, coord, quiet, nil), quiet)

	seen := make(map[string]bool, len(pool.Candidates))
	for i := range pool.Candidates {
		f := pool.Candidates[i]
		key := f.CandidateID.String()
		if seen[key] {
			return nil, fmt.Errorf("candidate %s appears more than once", key)
		}
		seen[key] = true
		if err := eng.ReplaceFactors(ctx, &f); err != nil {
			return nil, fmt.Errorf("candidate %s: %w", key, err)
		}
	}

	for _, f := range pool.Candidates {
		if _, err := coord.Recompute(ctx, f.CandidateID); err != nil {
			return nil, err
		}
	}
	if _, err := coord.RefreshPool(ctx); err != nil {
		return nil, err
	}

	active, err := registry.Active(ctx)
	if err != nil {
		return nil, err
	}
	report := &scoreReport{Weights: active, Scores: make([]types.RankScore, 0, len(pool.Candidates))}
	for _, f := range pool.Candidates {
		score, err := store.GetRankScore(ctx, f.CandidateID)
		if err != nil {
			return nil, err
		}
		if score == nil {
			return nil, fmt.Errorf("candidate %s was not scored", f.CandidateID)
		}
		report.Scores = append(report.Scores, *score)
	}
	return report, nil
}
