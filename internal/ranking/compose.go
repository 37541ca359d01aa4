package ranking

import "github.com/jonathan/rank-engine/internal/types"

// Compose combines sub-scores with a weight set into the overall score and its breakdown.
//
// overall = Σ subScore_i × weight_i / 100, rounded to one decimal and clamped to [0, 100].
// Each breakdown entry is the weighted contribution of one factor, rounded to two
// decimals, so the breakdown sums to overall within rounding. Compose is pure.
func Compose(sub types.SubScores, ws types.WeightSet) (float64, types.Breakdown) {
	contribution := func(factor string) float64 {
		s := clamp(sub.Get(factor), 0, 100)
		w := clamp(ws.Get(factor), 0, 100)
		return s * w / 100
	}

	raw := types.Breakdown{
		Skills:              contribution(types.FactorSkills),
		Experience:          contribution(types.FactorExperience),
		Education:           contribution(types.FactorEducation),
		Certifications:      contribution(types.FactorCertifications),
		ProfileCompleteness: contribution(types.FactorProfileCompleteness),
	}

	overall := round(clamp(raw.Sum(), 0, 100), 1)

	breakdown := types.Breakdown{
		Skills:              round(raw.Skills, 2),
		Experience:          round(raw.Experience, 2),
		Education:           round(raw.Education, 2),
		Certifications:      round(raw.Certifications, 2),
		ProfileCompleteness: round(raw.ProfileCompleteness, 2),
	}
	return overall, breakdown
}
