package ranking

import (
	"testing"

	"github.com/jonathan/rank-engine/internal/types"
	"github.com/stretchr/testify/assert"
)

func gpa(v float64) *float64 { return &v }

func TestScoreEducation_Empty(t *testing.T) {
	assert.Equal(t, 0.0, ScoreEducation(nil))
}

func TestScoreEducation_SingleCredential(t *testing.T) {
	tests := []struct {
		name     string
		entry    types.Education
		expected float64
	}{
		{"bachelor top tier", types.Education{Degree: "bachelor", InstitutionTier: 1}, 65},
		{"master tier two", types.Education{Degree: "Master of Science", InstitutionTier: 2}, 73.6},
		{"bachelor with perfect gpa", types.Education{Degree: "BSc", InstitutionTier: 1, GPA: gpa(4.0)}, 75},
		{"phd in progress", types.Education{Degree: "PhD", InstitutionTier: 1, IsCurrent: true}, 45},
		{"unknown degree invalid tier", types.Education{Degree: "Basket weaving", InstitutionTier: 9}, 15.6},
		{"gpa out of range clamps", types.Education{Degree: "bachelor", InstitutionTier: 1, GPA: gpa(9)}, 75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, ScoreEducation([]types.Education{tt.entry}), 0.001)
		})
	}
}

func TestScoreEducation_HighestDominatesWithResidual(t *testing.T) {
	entries := []types.Education{
		{Degree: "bachelor", InstitutionTier: 1},
		{Degree: "master", InstitutionTier: 2},
	}

	// 73.6 from the master plus 15% of the bachelor's 65.
	assert.InDelta(t, 73.6+9.75, ScoreEducation(entries), 0.001)
}

func TestScoreEducation_ResidualIsCapped(t *testing.T) {
	entries := []types.Education{{Degree: "phd", InstitutionTier: 1}}
	for i := 0; i < 10; i++ {
		entries = append(entries, types.Education{Degree: "master", InstitutionTier: 1})
	}
	assert.Equal(t, 100.0, ScoreEducation(entries))
}

func TestScoreEducation_AddingEntryNeverDecreases(t *testing.T) {
	sequence := []types.Education{
		{Degree: "high school", InstitutionTier: 4},
		{Degree: "bachelor", InstitutionTier: 3, GPA: gpa(3.1)},
		{Degree: "certificate", InstitutionTier: 2},
		{Degree: "master", InstitutionTier: 1, IsCurrent: true},
		{Degree: "master", InstitutionTier: 1},
	}

	var entries []types.Education
	prev := 0.0
	for _, e := range sequence {
		entries = append(entries, e)
		next := ScoreEducation(entries)
		assert.GreaterOrEqual(t, next, prev, "adding %q lowered the score", e.Degree)
		prev = next
	}
}

func TestNormalizeDegree(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Bachelor", "bachelor"},
		{"B.Sc.", "bachelor"},
		{"Master of Business Administration", "master"},
		{"MBA", "master"},
		{"Ph.D.", "phd"},
		{"Doctor of Philosophy", "phd"},
		{"High School Diploma", "high_school"},
		{"Associate's", "associate"},
		{"Underwater basket weaving", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeDegree(tt.input))
		})
	}
}
