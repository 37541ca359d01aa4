package types

import (
	"time"

	"github.com/google/uuid"
)

// Tier is a named band of overall scores.
type Tier string

// Tier bands, lowest first.
const (
	TierEmerging     Tier = "emerging"
	TierSkilled      Tier = "skilled"
	TierProfessional Tier = "professional"
	TierExpert       Tier = "expert"
	TierElite        Tier = "elite"
)

// SubScores are the per-factor scores in [0, 100], independent of weights.
type SubScores struct {
	Skills              float64 `json:"skills"`
	Experience          float64 `json:"experience"`
	Education           float64 `json:"education"`
	Certifications      float64 `json:"certifications"`
	ProfileCompleteness float64 `json:"profile_completeness"`
}

// Breakdown holds the weighted contribution of each factor to the overall score.
// Each component lies in [0, weight].
type Breakdown struct {
	Skills              float64 `json:"skills"`
	Experience          float64 `json:"experience"`
	Education           float64 `json:"education"`
	Certifications      float64 `json:"certifications"`
	ProfileCompleteness float64 `json:"profile_completeness"`
}

// RankScore is the cached, derived ranking artifact of a candidate.
// It is written as a whole by the recompute coordinator and never hand-edited.
type RankScore struct {
	CandidateID      uuid.UUID `json:"candidate_id"`
	Overall          float64   `json:"overall"`
	Breakdown        Breakdown `json:"breakdown"`
	SubScores        SubScores `json:"sub_scores"`
	Tier             Tier      `json:"tier"`
	Percentile       float64   `json:"percentile"`
	RankPosition     int       `json:"rank_position"`
	PoolSize         int       `json:"pool_size"`
	WeightSetVersion int64     `json:"weight_set_version"`
	Notes            string    `json:"notes,omitempty"`
	ComputedAt       time.Time `json:"computed_at"`
}

// Get returns the sub-score for a factor name.
func (s SubScores) Get(factor string) float64 {
	switch factor {
	case FactorSkills:
		return s.Skills
	case FactorExperience:
		return s.Experience
	case FactorEducation:
		return s.Education
	case FactorCertifications:
		return s.Certifications
	case FactorProfileCompleteness:
		return s.ProfileCompleteness
	}
	return 0
}

// Get returns the weighted contribution for a factor name.
func (b Breakdown) Get(factor string) float64 {
	switch factor {
	case FactorSkills:
		return b.Skills
	case FactorExperience:
		return b.Experience
	case FactorEducation:
		return b.Education
	case FactorCertifications:
		return b.Certifications
	case FactorProfileCompleteness:
		return b.ProfileCompleteness
	}
	return 0
}

// Sum returns the total of all weighted contributions.
func (b Breakdown) Sum() float64 {
	return b.Skills + b.Experience + b.Education + b.Certifications + b.ProfileCompleteness
}

// IsClassified reports whether a pool position has been assigned.
func (r *RankScore) IsClassified() bool {
	return r != nil && r.RankPosition > 0
}
