package ranking

import "github.com/jonathan/rank-engine/internal/types"

// TierBand is a half-open score range [Min, Max); the top band also includes Max.
type TierBand struct {
	Tier types.Tier
	Min  float64
	Max  float64
}

// TierBands lists the fixed, ordered, non-overlapping tier bands.
var TierBands = []TierBand{
	{Tier: types.TierEmerging, Min: 0, Max: 40},
	{Tier: types.TierSkilled, Min: 40, Max: 60},
	{Tier: types.TierProfessional, Min: 60, Max: 75},
	{Tier: types.TierExpert, Min: 75, Max: 90},
	{Tier: types.TierElite, Min: 90, Max: 100},
}

// ClassifyTier maps an overall score to exactly one tier.
// Out-of-range scores are clamped first, so the mapping is total.
func ClassifyTier(overall float64) types.Tier {
	s := clamp(overall, 0, 100)
	for i, b := range TierBands {
		last := i == len(TierBands)-1
		if s >= b.Min && (s < b.Max || (last && s <= b.Max)) {
			return b.Tier
		}
	}
	return types.TierEmerging
}
