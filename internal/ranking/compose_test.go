package ranking

import (
	"math"
	"testing"

	"github.com/jonathan/rank-engine/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestCompose_WeightedAverage(t *testing.T) {
	ws := types.WeightSet{Version: 3, Skills: 40, Experience: 25, Education: 25, Certifications: 10}
	sub := types.SubScores{Skills: 80, Experience: 60, Education: 90, Certifications: 50}

	overall, breakdown := Compose(sub, ws)

	assert.Equal(t, 74.5, overall)
	assert.Equal(t, 32.0, breakdown.Skills)
	assert.Equal(t, 15.0, breakdown.Experience)
	assert.Equal(t, 22.5, breakdown.Education)
	assert.Equal(t, 5.0, breakdown.Certifications)
	assert.Equal(t, 0.0, breakdown.ProfileCompleteness)
	assert.Equal(t, types.TierProfessional, ClassifyTier(overall))
}

func TestCompose_Bounds(t *testing.T) {
	ws := types.WeightSet{Skills: 35, Experience: 25, Education: 20, Certifications: 10, ProfileCompleteness: 10}

	tests := []struct {
		name     string
		sub      types.SubScores
		expected float64
	}{
		{"all zero", types.SubScores{}, 0},
		{"all max", types.SubScores{Skills: 100, Experience: 100, Education: 100, Certifications: 100, ProfileCompleteness: 100}, 100},
		{"out of range clamps", types.SubScores{Skills: 500, Experience: 500, Education: 500, Certifications: 500, ProfileCompleteness: 500}, 100},
		{"negative clamps", types.SubScores{Skills: -50, Experience: -1}, 0},
		{"nan fails closed", types.SubScores{Skills: math.NaN(), Experience: 100}, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			overall, _ := Compose(tt.sub, ws)
			assert.Equal(t, tt.expected, overall)
		})
	}
}

func TestCompose_BreakdownSumsToOverall(t *testing.T) {
	ws := types.WeightSet{Skills: 33.3, Experience: 22.2, Education: 11.1, Certifications: 16.7, ProfileCompleteness: 16.7}
	subs := []types.SubScores{
		{Skills: 12.34, Experience: 56.78, Education: 91.01, Certifications: 23.45, ProfileCompleteness: 67.89},
		{Skills: 99.99, Experience: 0.01, Education: 50.5, Certifications: 33.33, ProfileCompleteness: 66.67},
		{Skills: 1, Experience: 2, Education: 3, Certifications: 4, ProfileCompleteness: 5},
	}

	for _, sub := range subs {
		overall, breakdown := Compose(sub, ws)
		assert.InDelta(t, overall, breakdown.Sum(), 0.1)
	}
}

func TestCompose_Deterministic(t *testing.T) {
	ws := types.WeightSet{Skills: 35, Experience: 25, Education: 20, Certifications: 10, ProfileCompleteness: 10}
	sub := types.SubScores{Skills: 71.23, Experience: 44.44, Education: 65, Certifications: 39, ProfileCompleteness: 80}

	first, firstBreakdown := Compose(sub, ws)
	for i := 0; i < 50; i++ {
		overall, breakdown := Compose(sub, ws)
		assert.Equal(t, first, overall)
		assert.Equal(t, firstBreakdown, breakdown)
	}
}

func TestCompose_ZeroWeightIgnoresFactor(t *testing.T) {
	ws := types.WeightSet{Skills: 100}
	overall, breakdown := Compose(types.SubScores{Skills: 40, Education: 100}, ws)

	assert.Equal(t, 40.0, overall)
	assert.Equal(t, 0.0, breakdown.Education)
}
