package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jonathan/rank-engine/internal/observability"
	"github.com/jonathan/rank-engine/internal/schemas"
	"github.com/jonathan/rank-engine/internal/types"
	"github.com/spf13/cobra"
)

var (
	weightsJSON     bool
	weightsLimit    int
	weightsFile     string
	weightsBy       string
	weightsNote     string
	weightsProposal types.WeightProposal
)

var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Inspect and change the factor weight set",
}

var weightsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the active weight set",
	RunE:  runWeightsShow,
}

var weightsHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List weight set versions, newest first",
	RunE:  runWeightsHistory,
}

var weightsProposeCmd = &cobra.Command{
	Use:   "propose",
	Short: "Append a new weight set version and make it active",
	Long: `Append a new weight set version. Weights are percentages that must sum to 100; a sum
within 0.5 of 100 is rescaled. Either pass every weight as a flag or a JSON file with --file.
Every candidate scored under an older version is recomputed by the next sweep.`,
	RunE: runWeightsPropose,
}

func init() {
	weightsCmd.PersistentFlags().BoolVar(&weightsJSON, "json", false, "Print JSON instead of a table")
	weightsHistoryCmd.Flags().IntVar(&weightsLimit, "limit", 20, "Maximum versions to list")

	f := weightsProposeCmd.Flags()
	f.StringVarP(&weightsFile, "file", "f", "", "Path to a WeightProposal JSON file")
	f.Float64Var(&weightsProposal.Skills, "skills", 0, "Skills weight")
	f.Float64Var(&weightsProposal.Experience, "experience", 0, "Experience weight")
	f.Float64Var(&weightsProposal.Education, "education", 0, "Education weight")
	f.Float64Var(&weightsProposal.Certifications, "certifications", 0, "Certifications weight")
	f.Float64Var(&weightsProposal.ProfileCompleteness, "profile-completeness", 0, "Profile completeness weight")
	f.StringVar(&weightsBy, "by", "", "Who is making the change (defaults to $USER)")
	f.StringVar(&weightsNote, "note", "", "Reason for the change")
	weightsProposeCmd.MarkFlagsMutuallyExclusive("file", "skills")

	weightsCmd.AddCommand(weightsShowCmd, weightsHistoryCmd, weightsProposeCmd)
	rootCmd.AddCommand(weightsCmd)
}

func runWeightsShow(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	ws, err := rt.registry.Active(ctx)
	if err != nil {
		return err
	}
	if weightsJSON {
		return writeJSON(cmd, ws)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintWeightSet(&ws)
	return nil
}

func runWeightsHistory(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	history, err := rt.registry.History(ctx, weightsLimit)
	if err != nil {
		return err
	}
	if weightsJSON {
		return writeJSON(cmd, history)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintWeightHistory(history)
	return nil
}

func runWeightsPropose(cmd *cobra.Command, _ []string) error {
	proposal, err := readProposal()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	ws, err := rt.registry.Propose(ctx, proposal)
	if err != nil {
		return err
	}
	if weightsJSON {
		return writeJSON(cmd, ws)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintWeightSet(&ws)
	return nil
}

// readProposal builds the proposal from --file or the weight flags.
func readProposal() (types.WeightProposal, error) {
	p := weightsProposal
	if weightsFile != "" {
		data, err := os.ReadFile(weightsFile)
		if err != nil {
			return p, fmt.Errorf("failed to read weight proposal file %s: %w", weightsFile, err)
		}
		if err := schemas.Validate(schemas.WeightProposal, data); err != nil {
			return p, err
		}
		p = types.WeightProposal{}
		if err := json.Unmarshal(data, &p); err != nil {
			return p, fmt.Errorf("failed to unmarshal weight proposal JSON: %w", err)
		}
	}

	if weightsBy != "" {
		p.CreatedBy = weightsBy
	}
	if p.CreatedBy == "" {
		p.CreatedBy = os.Getenv("USER")
	}
	if weightsNote != "" {
		p.Note = weightsNote
	}
	return p, nil
}
