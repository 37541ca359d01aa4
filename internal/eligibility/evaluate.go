package eligibility

import (
	"fmt"
	"math"

	"github.com/jonathan/rank-engine/internal/types"
)

// Evaluate decides whether score satisfies rule. It is pure and fails closed:
// a missing score, a position rule against an unclassified score, or a malformed
// rule all deny.
func Evaluate(rule *types.JobEligibilityRule, score *types.RankScore) types.Decision {
	if rule == nil || !rule.RestrictionEnabled {
		return types.Decision{
			Allowed: true,
			Code:    types.DecisionUnrestricted,
			Reason:  "job has no rank restriction",
		}
	}

	d := types.Decision{
		Unit:      rule.Unit,
		Threshold: rule.MinRankRequirement,
	}
	if score != nil {
		overall := score.Overall
		d.Overall = &overall
		d.WeightSetVersion = score.WeightSetVersion
		if score.IsClassified() {
			pos := score.RankPosition
			d.RankPosition = &pos
		}
	}

	if !validRule(rule) {
		d.Code = types.DecisionInvalidRule
		d.Reason = "job has a malformed rank requirement"
		return d
	}
	if score == nil {
		d.Code = types.DecisionNoScore
		d.Reason = "candidate has no rank score yet"
		return d
	}

	switch rule.Unit {
	case types.ThresholdScore:
		if score.Overall >= rule.MinRankRequirement {
			d.Allowed = true
			d.Code = types.DecisionMeetsThreshold
			d.Reason = fmt.Sprintf("meets minimum rank score of %.1f", rule.MinRankRequirement)
			return d
		}
		d.Code = types.DecisionBelowThreshold
		d.Reason = fmt.Sprintf("requires a rank score of at least %.1f, candidate scores %.1f",
			rule.MinRankRequirement, score.Overall)

	case types.ThresholdPosition:
		limit := int(rule.MinRankRequirement)
		if !score.IsClassified() {
			d.Code = types.DecisionUnclassified
			d.Reason = fmt.Sprintf("requires top-%d rank, candidate has no rank position yet", limit)
			return d
		}
		if score.RankPosition <= limit {
			d.Allowed = true
			d.Code = types.DecisionMeetsThreshold
			d.Reason = fmt.Sprintf("within top-%d rank", limit)
			return d
		}
		d.Code = types.DecisionBelowThreshold
		d.Reason = fmt.Sprintf("requires top-%d rank, candidate is rank %d", limit, score.RankPosition)
	}
	return d
}

func validRule(rule *types.JobEligibilityRule) bool {
	v := rule.MinRankRequirement
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return false
	}
	switch rule.Unit {
	case types.ThresholdScore:
		return v <= 100
	case types.ThresholdPosition:
		return v >= 1 && v == math.Trunc(v)
	}
	return false
}
