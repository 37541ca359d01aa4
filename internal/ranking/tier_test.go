package ranking

import (
	"fmt"
	"testing"

	"github.com/jonathan/rank-engine/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestClassifyTier_Boundaries(t *testing.T) {
	tests := []struct {
		overall  float64
		expected types.Tier
	}{
		{-5, types.TierEmerging},
		{0, types.TierEmerging},
		{39.9, types.TierEmerging},
		{40, types.TierSkilled},
		{59.9, types.TierSkilled},
		{60, types.TierProfessional},
		{74.5, types.TierProfessional},
		{75, types.TierExpert},
		{89.9, types.TierExpert},
		{90, types.TierElite},
		{100, types.TierElite},
		{105, types.TierElite},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%.1f", tt.overall), func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyTier(tt.overall))
		})
	}
}

func TestTierBands_CoverRangeExactlyOnce(t *testing.T) {
	for i := 0; i <= 1000; i++ {
		s := float64(i) / 10
		matches := 0
		for j, b := range TierBands {
			last := j == len(TierBands)-1
			if s >= b.Min && (s < b.Max || (last && s <= b.Max)) {
				matches++
			}
		}
		assert.Equal(t, 1, matches, "score %.1f matched %d bands", s, matches)
	}
}

func TestTierBands_Ordered(t *testing.T) {
	assert.Equal(t, 0.0, TierBands[0].Min)
	assert.Equal(t, 100.0, TierBands[len(TierBands)-1].Max)
	for i := 1; i < len(TierBands); i++ {
		assert.Equal(t, TierBands[i-1].Max, TierBands[i].Min)
	}
}
