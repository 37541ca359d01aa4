package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonathan/rank-engine/internal/ranking"
	"github.com/jonathan/rank-engine/internal/schemas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	strongID = "11111111-1111-1111-1111-111111111111"
	weakID   = "22222222-2222-2222-2222-222222222222"
)

const samplePool = `{
	"weights": {"skills": 40, "experience": 30, "education": 10, "certifications": 10, "profile_completeness": 10},
	"candidates": [
		{
			"candidate_id": "` + weakID + `",
			"skills": [{"name": "Excel", "level": 3, "experience_years": 1}],
			"profile": {"has_resume": true, "fields_filled_ratio": 0.3}
		},
		{
			"candidate_id": "` + strongID + `",
			"skills": [
				{"name": "Go", "level": 9, "experience_years": 8, "verified": true},
				{"name": "PostgreSQL", "level": 8, "experience_years": 6, "verified": true}
			],
			"education": [{"degree": "master", "field": "Computer Science", "institution_tier": 1, "gpa": 3.8}],
			"experience": [{"role": "Staff Engineer", "company": "Acme", "start_date": "2016-01", "duration_months": 96, "verified": true}],
			"certifications": [{"name": "CKA", "issuer": "CNCF", "verified": true}],
			"profile": {"has_resume": true, "has_photo": true, "bio_length": 400, "fields_filled_ratio": 1}
		}
	]
}`

func TestScorePool(t *testing.T) {
	report, err := scorePool(context.Background(), []byte(samplePool), ranking.DefaultParams())
	require.NoError(t, err)

	assert.Equal(t, int64(2), report.Weights.Version, "file weights become a new version")
	assert.InDelta(t, 40, report.Weights.Skills, 1e-9)

	require.Len(t, report.Scores, 2)
	weak, strong := report.Scores[0], report.Scores[1]
	assert.Equal(t, weakID, weak.CandidateID.String(), "input order is kept")
	assert.Equal(t, strongID, strong.CandidateID.String())

	assert.Greater(t, strong.Overall, weak.Overall)
	assert.Equal(t, 1, strong.RankPosition)
	assert.Equal(t, 2, weak.RankPosition)
	for _, s := range report.Scores {
		assert.Equal(t, 2, s.PoolSize)
		assert.Equal(t, int64(2), s.WeightSetVersion)
		assert.GreaterOrEqual(t, s.Overall, 0.0)
		assert.LessOrEqual(t, s.Overall, 100.0)
	}
}

func TestScorePool_DefaultWeights(t *testing.T) {
	doc := `{"candidates": [{"candidate_id": "` + strongID + `"}]}`
	report, err := scorePool(context.Background(), []byte(doc), ranking.DefaultParams())
	require.NoError(t, err)

	assert.Equal(t, int64(1), report.Weights.Version)
	require.Len(t, report.Scores, 1)
	assert.Equal(t, 1, report.Scores[0].RankPosition)
}

func TestScorePool_Errors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name:    "schema violation",
			doc:     `{"candidates": [{"candidate_id": "` + strongID + `", "skills": [{"name": "Go", "level": 0}]}]}`,
			wantErr: "validation failed",
		},
		{
			name:    "weights do not sum to 100",
			doc:     `{"weights": {"skills": 10, "experience": 10, "education": 10, "certifications": 10, "profile_completeness": 10}, "candidates": [{"candidate_id": "` + strongID + `"}]}`,
			wantErr: "invalid weight set",
		},
		{
			name:    "duplicate candidate",
			doc:     `{"candidates": [{"candidate_id": "` + strongID + `"}, {"candidate_id": "` + strongID + `"}]}`,
			wantErr: "more than once",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := scorePool(context.Background(), []byte(tt.doc), ranking.DefaultParams())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestScoreCommand_WritesReport(t *testing.T) {
	in := writeFile(t, "pool.json", samplePool)
	outPath := filepath.Join(t.TempDir(), "nested", "report.json")

	out, err := execute(t, "score", "--in", in, "--out", outPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Scored 2 candidates")

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var report scoreReport
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Len(t, report.Scores, 2)
}

func TestScoreCommand_PrintsSummary(t *testing.T) {
	in := writeFile(t, "pool.json", samplePool)

	out, err := execute(t, "score", "--in", in)
	require.NoError(t, err)
	assert.Contains(t, out, "RANK SCORE")
	assert.Contains(t, out, strongID)
	assert.Contains(t, out, "#1 of 2")
}

func TestValidateCommand(t *testing.T) {
	valid := writeFile(t, "pool.json", samplePool)
	invalid := writeFile(t, "bad.json", `{"candidates": []}`)

	out, err := execute(t, "validate", "--schema", schemas.CandidatePool, "--json", valid)
	require.NoError(t, err)
	assert.Contains(t, out, "Validation passed")

	out, err = execute(t, "validate", "--schema", schemas.CandidatePool, "--json", invalid)
	require.Error(t, err)
	assert.Contains(t, out, "Validation failed")

	_, err = execute(t, "validate", "--schema", "/nonexistent/schema.json", "--json", valid)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
