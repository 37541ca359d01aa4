package ranking

import (
	"testing"

	"github.com/jonathan/rank-engine/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestScoreProfile(t *testing.T) {
	tests := []struct {
		name     string
		profile  types.ProfileCompleteness
		expected float64
	}{
		{"empty", types.ProfileCompleteness{}, 0},
		{"complete", types.ProfileCompleteness{HasResume: true, HasPhoto: true, BioLength: 400, FieldsFilledRatio: 1}, 100},
		{"resume only", types.ProfileCompleteness{HasResume: true}, 30},
		{"half bio", types.ProfileCompleteness{BioLength: 100}, 10},
		{"ratio above one clamps", types.ProfileCompleteness{FieldsFilledRatio: 1.5}, 35},
		{"negative values clamp", types.ProfileCompleteness{BioLength: -20, FieldsFilledRatio: -1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, ScoreProfile(tt.profile, DefaultParams()), 0.001)
		})
	}
}
