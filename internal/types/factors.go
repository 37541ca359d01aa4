// Package types provides type definitions for structured data used throughout the rank engine.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"time"

	"github.com/google/uuid"
)

// Factor names, used as breakdown keys and in explanations.
const (
	FactorSkills              = "skills"
	FactorExperience          = "experience"
	FactorEducation           = "education"
	FactorCertifications      = "certifications"
	FactorProfileCompleteness = "profile_completeness"
)

// Factors lists every factor in display order.
var Factors = []string{
	FactorSkills,
	FactorExperience,
	FactorEducation,
	FactorCertifications,
	FactorProfileCompleteness,
}

// CandidateFactors is the full raw factor state of one candidate.
// Recomputation always reads the whole collection, never deltas.
type CandidateFactors struct {
	CandidateID    uuid.UUID           `json:"candidate_id"`
	Skills         []Skill             `json:"skills"`
	Education      []Education         `json:"education"`
	Experience     []Experience        `json:"experience"`
	Certifications []Certification     `json:"certifications"`
	Profile        ProfileCompleteness `json:"profile"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// Skill is a self-reported or verified skill.
type Skill struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name" validate:"required,max=100"`
	Level           int       `json:"level" validate:"min=1,max=10"`
	ExperienceYears float64   `json:"experience_years" validate:"min=0,max=60"`
	Verified        bool      `json:"verified"`
}

// Education is a completed or in-progress credential.
// InstitutionTier is 1 (top) through 4 (unranked).
type Education struct {
	ID              uuid.UUID `json:"id"`
	Degree          string    `json:"degree" validate:"required,max=50"`
	Field           string    `json:"field,omitempty" validate:"max=100"`
	Institution     string    `json:"institution,omitempty" validate:"max=200"`
	InstitutionTier int       `json:"institution_tier" validate:"min=1,max=4"`
	GPA             *float64  `json:"gpa,omitempty" validate:"omitempty,min=0,max=4"`
	IsCurrent       bool      `json:"is_current"`
}

// Experience is a single role held by the candidate.
// StartDate is optional (YYYY-MM); when present, overlapping roles are merged.
type Experience struct {
	ID             uuid.UUID `json:"id"`
	Role           string    `json:"role" validate:"required,max=200"`
	Company        string    `json:"company" validate:"max=200"`
	StartDate      string    `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01"`
	DurationMonths int       `json:"duration_months" validate:"min=0,max=720"`
	IsCurrent      bool      `json:"is_current"`
	Verified       bool      `json:"verified"`
}

// Certification is an industry certificate, optionally expiring.
type Certification struct {
	ID       uuid.UUID  `json:"id"`
	Name     string     `json:"name" validate:"required,max=200"`
	Issuer   string     `json:"issuer" validate:"max=200"`
	Verified bool       `json:"verified"`
	Expiry   *time.Time `json:"expiry,omitempty"`
}

// ProfileCompleteness summarizes presence flags of the candidate profile.
type ProfileCompleteness struct {
	HasResume         bool    `json:"has_resume"`
	HasPhoto          bool    `json:"has_photo"`
	BioLength         int     `json:"bio_length" validate:"min=0"`
	FieldsFilledRatio float64 `json:"fields_filled_ratio" validate:"min=0,max=1"`
}

// IsExpired reports whether the certification has expired as of t.
func (c Certification) IsExpired(t time.Time) bool {
	return c.Expiry != nil && !c.Expiry.After(t)
}

// IsEmpty reports whether the candidate has no factor data at all.
func (f *CandidateFactors) IsEmpty() bool {
	if f == nil {
		return true
	}
	return len(f.Skills) == 0 &&
		len(f.Education) == 0 &&
		len(f.Experience) == 0 &&
		len(f.Certifications) == 0 &&
		f.Profile == (ProfileCompleteness{})
}
