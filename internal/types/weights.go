package types

import "time"

// WeightSet is one immutable version of the admin-configured factor weights.
// Weights are percentages and sum to 100 once accepted by the registry.
type WeightSet struct {
	Version             int64     `json:"version"`
	Skills              float64   `json:"skills"`
	Experience          float64   `json:"experience"`
	Education           float64   `json:"education"`
	Certifications      float64   `json:"certifications"`
	ProfileCompleteness float64   `json:"profile_completeness"`
	EffectiveAt         time.Time `json:"effective_at"`
	CreatedBy           string    `json:"created_by,omitempty"`
	Note                string    `json:"note,omitempty"`
}

// WeightProposal is an admin request for a new weight set.
type WeightProposal struct {
	Skills              float64 `json:"skills" validate:"min=0,max=100"`
	Experience          float64 `json:"experience" validate:"min=0,max=100"`
	Education           float64 `json:"education" validate:"min=0,max=100"`
	Certifications      float64 `json:"certifications" validate:"min=0,max=100"`
	ProfileCompleteness float64 `json:"profile_completeness" validate:"min=0,max=100"`
	CreatedBy           string  `json:"created_by,omitempty" validate:"max=200"`
	Note                string  `json:"note,omitempty" validate:"max=500"`
}

// Get returns the weight for a factor name, or 0 for unknown factors.
func (w WeightSet) Get(factor string) float64 {
	switch factor {
	case FactorSkills:
		return w.Skills
	case FactorExperience:
		return w.Experience
	case FactorEducation:
		return w.Education
	case FactorCertifications:
		return w.Certifications
	case FactorProfileCompleteness:
		return w.ProfileCompleteness
	}
	return 0
}

// Sum returns the total of all five weights.
func (w WeightSet) Sum() float64 {
	return w.Skills + w.Experience + w.Education + w.Certifications + w.ProfileCompleteness
}

// WeightSet converts the proposal into an unversioned weight set.
func (p WeightProposal) WeightSet() WeightSet {
	return WeightSet{
		Skills:              p.Skills,
		Experience:          p.Experience,
		Education:           p.Education,
		Certifications:      p.Certifications,
		ProfileCompleteness: p.ProfileCompleteness,
		CreatedBy:           p.CreatedBy,
		Note:                p.Note,
	}
}
