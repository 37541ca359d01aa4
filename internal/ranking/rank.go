package ranking

import (
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/rank-engine/internal/types"
)

// Input is everything needed to compute one candidate's RankScore.
type Input struct {
	Factors   *types.CandidateFactors
	WeightSet types.WeightSet
	Pool      *PoolSnapshot
	AsOf      time.Time
	Params    Params
}

// Rank extracts, composes and classifies a candidate in one pass.
// The returned score carries the weight version it was computed under.
func Rank(in Input) types.RankScore {
	sub := Extract(in.Factors, in.AsOf, in.Params)
	overall, breakdown := Compose(sub, in.WeightSet)

	score := types.RankScore{
		Overall:          overall,
		Breakdown:        breakdown,
		SubScores:        sub,
		Tier:             ClassifyTier(overall),
		WeightSetVersion: in.WeightSet.Version,
		ComputedAt:       in.AsOf,
	}
	if in.Factors != nil {
		score.CandidateID = in.Factors.CandidateID
	}

	standing := in.Pool.Standing(score.CandidateID, overall)
	score.RankPosition = standing.RankPosition
	score.Percentile = standing.Percentile
	score.PoolSize = standing.PoolSize

	score.Notes = GenerateNotes(sub, in.WeightSet)
	return score
}

// GenerateNotes creates a brief explanation of what drives the score.
func GenerateNotes(sub types.SubScores, ws types.WeightSet) string {
	var parts []string

	strongest, weakest := "", ""
	for _, f := range types.Factors {
		if ws.Get(f) <= 0 {
			continue
		}
		if strongest == "" || sub.Get(f) > sub.Get(strongest) {
			strongest = f
		}
		if weakest == "" || sub.Get(f) < sub.Get(weakest) {
			weakest = f
		}
	}

	if strongest == "" {
		return "No weighted factors"
	}

	if s := sub.Get(strongest); s > 0 {
		parts = append(parts, fmt.Sprintf("Strongest factor: %s (%.0f/100)", factorLabel(strongest), s))
	} else {
		parts = append(parts, "No scored factors yet")
	}

	if weakest != strongest {
		w := sub.Get(weakest)
		switch {
		case w == 0:
			parts = append(parts, fmt.Sprintf("Add %s to improve", factorLabel(weakest)))
		case w < 40:
			parts = append(parts, fmt.Sprintf("Weakest factor: %s (%.0f/100)", factorLabel(weakest), w))
		}
	}

	return strings.Join(parts, ". ")
}

func factorLabel(factor string) string {
	return strings.ReplaceAll(factor, "_", " ")
}
