package types

import (
	"time"

	"github.com/google/uuid"
)

// ThresholdUnit tags what a job's minimum rank requirement is measured in.
// Score and position thresholds are never interchangeable.
type ThresholdUnit string

const (
	// ThresholdScore requires overall >= MinRankRequirement.
	ThresholdScore ThresholdUnit = "score"
	// ThresholdPosition requires rank_position <= MinRankRequirement.
	ThresholdPosition ThresholdUnit = "position"
)

// JobEligibilityRule is the minimum-rank gate attached to a job posting.
type JobEligibilityRule struct {
	JobID              uuid.UUID     `json:"job_id"`
	Unit               ThresholdUnit `json:"unit"`
	MinRankRequirement float64       `json:"min_rank_requirement"`
	RestrictionEnabled bool          `json:"restriction_enabled"`
	Locked             bool          `json:"locked"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// EligibilityRuleInput is the job-posting layer's request to set a rule.
type EligibilityRuleInput struct {
	Unit               ThresholdUnit `json:"unit" validate:"required,oneof=score position"`
	MinRankRequirement float64       `json:"min_rank_requirement" validate:"min=0"`
	RestrictionEnabled bool          `json:"restriction_enabled"`
}

// DecisionCode is a machine-readable eligibility outcome.
type DecisionCode string

// Decision codes.
const (
	DecisionUnrestricted   DecisionCode = "unrestricted"
	DecisionMeetsThreshold DecisionCode = "meets_threshold"
	DecisionBelowThreshold DecisionCode = "below_threshold"
	DecisionNoScore        DecisionCode = "no_score"
	DecisionUnclassified   DecisionCode = "unclassified"
	DecisionInvalidRule    DecisionCode = "invalid_rule"
)

// Decision is the result of an eligibility check.
type Decision struct {
	Allowed          bool          `json:"allowed"`
	Code             DecisionCode  `json:"code"`
	Reason           string        `json:"reason,omitempty"`
	Unit             ThresholdUnit `json:"unit,omitempty"`
	Threshold        float64       `json:"threshold,omitempty"`
	Overall          *float64      `json:"overall,omitempty"`
	RankPosition     *int          `json:"rank_position,omitempty"`
	WeightSetVersion int64         `json:"weight_set_version,omitempty"`
	Stale            bool          `json:"stale"`
}

// Application is an accepted job application with the decision it was accepted under.
type Application struct {
	ID               uuid.UUID    `json:"id"`
	JobID            uuid.UUID    `json:"job_id"`
	CandidateID      uuid.UUID    `json:"candidate_id"`
	Overall          *float64     `json:"overall,omitempty"`
	RankPosition     *int         `json:"rank_position,omitempty"`
	WeightSetVersion int64        `json:"weight_set_version,omitempty"`
	DecisionCode     DecisionCode `json:"decision_code"`
	CreatedAt        time.Time    `json:"created_at"`
}
