package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCertification_IsExpired(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.False(t, Certification{Name: "CKA"}.IsExpired(now))
	assert.True(t, Certification{Name: "CKA", Expiry: &past}.IsExpired(now))
	assert.True(t, Certification{Name: "CKA", Expiry: &now}.IsExpired(now))
	assert.False(t, Certification{Name: "CKA", Expiry: &future}.IsExpired(now))
}

func TestCandidateFactors_IsEmpty(t *testing.T) {
	var nilFactors *CandidateFactors
	assert.True(t, nilFactors.IsEmpty())
	assert.True(t, (&CandidateFactors{CandidateID: uuid.New()}).IsEmpty())
	assert.False(t, (&CandidateFactors{Skills: []Skill{{Name: "Go", Level: 1}}}).IsEmpty())
	assert.False(t, (&CandidateFactors{Profile: ProfileCompleteness{HasPhoto: true}}).IsEmpty())
}

func TestRankScore_JSONMarshaling(t *testing.T) {
	score := RankScore{
		CandidateID:      uuid.MustParse("6f1c1f9e-5b8a-4a53-9d8e-7f2f8f3b6c11"),
		Overall:          74.5,
		Breakdown:        Breakdown{Skills: 32, Experience: 15, Education: 22.5, Certifications: 5},
		Tier:             TierProfessional,
		Percentile:       81.2,
		RankPosition:     812,
		WeightSetVersion: 3,
	}

	jsonBytes, err := json.Marshal(score)
	require.NoError(t, err)
	assert.Contains(t, string(jsonBytes), `"overall":74.5`)
	assert.Contains(t, string(jsonBytes), `"tier":"professional"`)
	assert.Contains(t, string(jsonBytes), `"rank_position":812`)
	assert.Contains(t, string(jsonBytes), `"weight_set_version":3`)
	assert.Contains(t, string(jsonBytes), `"profile_completeness":0`)
	assert.True(t, score.IsClassified())
	assert.False(t, (&RankScore{}).IsClassified())
}

func TestBreakdown_GetAndSum(t *testing.T) {
	b := Breakdown{Skills: 32, Experience: 15, Education: 22.5, Certifications: 5}

	assert.Equal(t, 74.5, b.Sum())
	assert.Equal(t, 22.5, b.Get(FactorEducation))
	assert.Equal(t, 0.0, b.Get("unknown"))
}

func TestWeightSet_GetAndSum(t *testing.T) {
	ws := WeightSet{Skills: 35, Experience: 25, Education: 20, Certifications: 10, ProfileCompleteness: 10}

	assert.Equal(t, 100.0, ws.Sum())
	for _, f := range Factors {
		assert.Greater(t, ws.Get(f), 0.0, f)
	}
	assert.Equal(t, 0.0, ws.Get("charisma"))
}

func TestWeightProposal_WeightSet(t *testing.T) {
	p := WeightProposal{Skills: 50, Experience: 50, CreatedBy: "admin", Note: "focus"}
	ws := p.WeightSet()

	assert.Equal(t, int64(0), ws.Version)
	assert.Equal(t, 50.0, ws.Skills)
	assert.Equal(t, "admin", ws.CreatedBy)
	assert.Equal(t, "focus", ws.Note)

	assert.Error(t, (&WeightProposal{Skills: -1}).Validate())
	assert.NoError(t, (&WeightProposal{Skills: 100}).Validate())
}
