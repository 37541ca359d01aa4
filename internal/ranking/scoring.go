// Package ranking converts candidate factors into bounded scores, composes them under a
// weight set and classifies the result into tiers and pool positions.
package ranking

import (
	"math"
	"time"

	"github.com/jonathan/rank-engine/internal/types"
)

// Params tunes the factor extractors. Zero values are replaced by defaults.
type Params struct {
	// SkillSaturation is the number of skills after which extra entries stop adding credit.
	SkillSaturation int `koanf:"skill_saturation"`
	// ExperienceSaturationMonths is the tenure that earns the full base experience credit.
	ExperienceSaturationMonths int `koanf:"experience_saturation_months"`
	// LeadershipSaturationMonths is the leadership tenure that earns the full bonus.
	LeadershipSaturationMonths int `koanf:"leadership_saturation_months"`
	// BioLengthThreshold is the bio length (characters) that earns full bio credit.
	BioLengthThreshold int `koanf:"bio_length_threshold"`
}

// DefaultParams returns the default extractor tuning.
func DefaultParams() Params {
	return Params{
		SkillSaturation:            8,
		ExperienceSaturationMonths: 120,
		LeadershipSaturationMonths: 36,
		BioLengthThreshold:         200,
	}
}

// withDefaults fills zero or negative fields from DefaultParams.
func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.SkillSaturation <= 0 {
		p.SkillSaturation = d.SkillSaturation
	}
	if p.ExperienceSaturationMonths <= 0 {
		p.ExperienceSaturationMonths = d.ExperienceSaturationMonths
	}
	if p.LeadershipSaturationMonths <= 0 {
		p.LeadershipSaturationMonths = d.LeadershipSaturationMonths
	}
	if p.BioLengthThreshold <= 0 {
		p.BioLengthThreshold = d.BioLengthThreshold
	}
	return p
}

// Extract runs every factor extractor over the candidate's full factor state.
// asOf is the reference time for certificate expiry and ongoing roles.
// A nil or empty factor set yields all-zero sub-scores.
func Extract(f *types.CandidateFactors, asOf time.Time, params Params) types.SubScores {
	if f == nil {
		return types.SubScores{}
	}
	p := params.withDefaults()
	return types.SubScores{
		Skills:              ScoreSkills(f.Skills, p),
		Experience:          ScoreExperience(f.Experience, asOf, p),
		Education:           ScoreEducation(f.Education),
		Certifications:      ScoreCertifications(f.Certifications, asOf),
		ProfileCompleteness: ScoreProfile(f.Profile, p),
	}
}

// clamp restricts v to [lo, hi]. NaN fails closed to lo.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clampInt restricts v to [lo, hi].
func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// round rounds v to the given number of decimals.
func round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// decayingSum sums values sorted descending, weighting the k-th value by weights(k).
// With non-increasing weights the result never decreases when a value is added,
// because every position of the sorted sequence can only grow.
func decayingSum(sortedDesc []float64, weight func(k int) float64) float64 {
	total := 0.0
	for k, v := range sortedDesc {
		total += v * weight(k)
	}
	return total
}
