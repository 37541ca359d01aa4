package schemas

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"
)

func TestValidateJSON(t *testing.T) {
	schema := filepath.Join("testdata", "valid_schema.json")
	malformed := filepath.Join(t.TempDir(), "malformed.json")
	require.NoError(t, os.WriteFile(malformed, []byte("{ invalid json }"), 0644))

	tests := []struct {
		name       string
		schemaPath string
		jsonPath   string
		wantField  string
		wantErr    string
		wantLoad   bool
	}{
		{name: "valid score", schemaPath: schema, jsonPath: filepath.Join("testdata", "valid_json.json")},
		{name: "missing overall", schemaPath: schema, jsonPath: filepath.Join("testdata", "invalid_json.json"), wantField: "(root)"},
		{name: "overall not a number", schemaPath: schema, jsonPath: filepath.Join("testdata", "type_mismatch.json"), wantField: "overall"},
		{name: "schema missing", schemaPath: filepath.Join("testdata", "nope.json"), jsonPath: filepath.Join("testdata", "valid_json.json"), wantErr: "schema file not found"},
		{name: "document missing", schemaPath: schema, jsonPath: filepath.Join("testdata", "nope.json"), wantErr: "JSON file not found"},
		{name: "document malformed", schemaPath: schema, jsonPath: malformed, wantLoad: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateJSON(tt.schemaPath, tt.jsonPath)
			switch {
			case tt.wantField != "":
				var validationErr *ValidationError
				require.ErrorAs(t, err, &validationErr)
				assert.Equal(t, tt.wantField, validationErr.Errors[0].Field)
			case tt.wantErr != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			case tt.wantLoad:
				var loadErr *SchemaLoadError
				assert.ErrorAs(t, err, &loadErr)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_CandidatePool(t *testing.T) {
	tests := []struct {
		name      string
		document  string
		wantError bool
		wantField string
	}{
		{
			name: "valid pool",
			document: `{
				"weights": {"skills": 30, "experience": 30, "education": 20, "certifications": 10, "profile_completeness": 10},
				"candidates": [{
					"candidate_id": "550e8400-e29b-41d4-a716-446655440000",
					"skills": [{"name": "Go", "level": 8, "experience_years": 5, "verified": true}],
					"education": [{"degree": "bachelor", "institution_tier": 2, "gpa": 3.6}],
					"experience": [{"role": "Senior Engineer", "company": "Acme", "start_date": "2019-04", "duration_months": 60}],
					"certifications": [{"name": "CKA", "issuer": "CNCF", "expiry": "2027-01-01T00:00:00Z"}],
					"profile": {"has_resume": true, "bio_length": 240, "fields_filled_ratio": 0.9}
				}]
			}`,
		},
		{
			name:      "no candidates",
			document:  `{"candidates": []}`,
			wantError: true,
			wantField: "candidates",
		},
		{
			name:      "skill level out of range",
			document:  `{"candidates": [{"candidate_id": "550e8400-e29b-41d4-a716-446655440000", "skills": [{"name": "Go", "level": 11}]}]}`,
			wantError: true,
			wantField: "candidates.0.skills.0.level",
		},
		{
			name:      "malformed start date",
			document:  `{"candidates": [{"candidate_id": "550e8400-e29b-41d4-a716-446655440000", "experience": [{"role": "Dev", "duration_months": 3, "start_date": "2019-13"}]}]}`,
			wantError: true,
			wantField: "candidates.0.experience.0.start_date",
		},
		{
			name:      "missing candidate id",
			document:  `{"candidates": [{"skills": []}]}`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(CandidatePool, []byte(tt.document))
			if !tt.wantError {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			validationErr, ok := err.(*ValidationError)
			require.True(t, ok, "error should be ValidationError, got %T: %v", err, err)
			if tt.wantField != "" {
				fields := make([]string, 0, len(validationErr.Errors))
				for _, fe := range validationErr.Errors {
					fields = append(fields, fe.Field)
				}
				assert.Contains(t, fields, tt.wantField)
			}
		})
	}
}

func TestValidate_WeightProposal(t *testing.T) {
	valid := `{"skills": 30, "experience": 30, "education": 20, "certifications": 10, "profile_completeness": 10, "note": "rebalance"}`
	assert.NoError(t, Validate(WeightProposal, []byte(valid)))

	err := Validate(WeightProposal, []byte(`{"skills": 130, "experience": 30}`))
	require.Error(t, err)
	_, ok := err.(*ValidationError)
	assert.True(t, ok)
}

func TestValidate_UnknownSchema(t *testing.T) {
	err := Validate("job_profile", []byte(`{}`))
	require.Error(t, err)
	_, ok := err.(*SchemaLoadError)
	assert.True(t, ok)
}

func TestValidate_MalformedDocument(t *testing.T) {
	err := Validate(WeightProposal, []byte(`{ invalid json }`))
	require.Error(t, err)
	_, ok := err.(*SchemaLoadError)
	assert.True(t, ok, "parse failures surface as load errors")
}

func TestNames(t *testing.T) {
	assert.ElementsMatch(t, []string{CandidatePool, WeightProposal}, Names())
}

func TestValidate_FieldPaths(t *testing.T) {
	const schema = `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["rule"],
		"properties": {
			"rule": {
				"type": "object",
				"required": ["unit"],
				"properties": {
					"unit": {"enum": ["score", "position"]},
					"min_rank_requirement": {"type": "number", "minimum": 0}
				}
			}
		}
	}`

	tests := []struct {
		name      string
		document  string
		wantField string
	}{
		{name: "valid", document: `{"rule": {"unit": "position", "min_rank_requirement": 500}}`},
		{name: "missing nested field", document: `{"rule": {}}`, wantField: "rule"},
		{name: "unknown unit", document: `{"rule": {"unit": "percent"}}`, wantField: "rule.unit"},
		{name: "negative threshold", document: `{"rule": {"unit": "score", "min_rank_requirement": -1}}`, wantField: "rule.min_rank_requirement"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate("rule", gojsonschema.NewStringLoader(schema), gojsonschema.NewStringLoader(tt.document))
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			require.Len(t, validationErr.Errors, 1)
			assert.Equal(t, tt.wantField, validationErr.Errors[0].Field)
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Errors: []FieldError{
			{Field: "candidates.0.candidate_id", Message: "is required"},
			{Field: "weights.skills", Message: "must be less than or equal to 100"},
		},
	}

	msg := err.Error()
	assert.Contains(t, msg, "validation failed")
	assert.Contains(t, msg, "candidates.0.candidate_id")
	assert.Contains(t, msg, "weights.skills")
}
