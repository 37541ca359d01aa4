package weights

import (
	"errors"
	"fmt"
	"math"

	"github.com/jonathan/rank-engine/internal/types"
)

// SumTolerance is how far from 100 a proposal may sum and still be rescaled.
const SumTolerance = 0.5

// Default returns the bootstrap weight set used when no version exists yet.
func Default() types.WeightSet {
	return types.WeightSet{
		Skills:              35,
		Experience:          25,
		Education:           20,
		Certifications:      10,
		ProfileCompleteness: 10,
		CreatedBy:           "system",
		Note:                "default weights",
	}
}

// Normalize validates a proposal and returns an unversioned weight set summing to 100.
//
// Negative, non-finite and all-zero proposals are rejected. A proposal summing within
// SumTolerance of 100 is rescaled to exactly 100; anything further off is rejected.
func Normalize(p types.WeightProposal) (types.WeightSet, error) {
	ws := p.WeightSet()
	for _, f := range types.Factors {
		w := ws.Get(f)
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return types.WeightSet{}, &ValidationError{Field: f, Reason: "must be a finite number"}
		}
	}

	if err := p.Validate(); err != nil {
		var fve *types.FactorValidationError
		if errors.As(err, &fve) && len(fve.Errors) > 0 {
			return types.WeightSet{}, &ValidationError{Field: fve.Errors[0].Field, Reason: fve.Errors[0].Message}
		}
		return types.WeightSet{}, &ValidationError{Reason: err.Error()}
	}

	sum := ws.Sum()
	if sum <= 0 {
		return types.WeightSet{}, &ValidationError{Reason: "at least one weight must be positive"}
	}
	if math.Abs(sum-100) > SumTolerance {
		return types.WeightSet{}, &ValidationError{Reason: fmt.Sprintf("weights must sum to 100, got %.2f", sum)}
	}

	return rescale(ws, sum), nil
}

// rescale scales every weight by 100/sum at two decimals and assigns the rounding
// remainder to the largest weight.
func rescale(ws types.WeightSet, sum float64) types.WeightSet {
	scale := func(v float64) float64 { return math.Round(v*100/sum*100) / 100 }

	ws.Skills = scale(ws.Skills)
	ws.Experience = scale(ws.Experience)
	ws.Education = scale(ws.Education)
	ws.Certifications = scale(ws.Certifications)
	ws.ProfileCompleteness = scale(ws.ProfileCompleteness)

	diff := math.Round((100-ws.Sum())*100) / 100
	if diff == 0 {
		return ws
	}
	largest := &ws.Skills
	for _, w := range []*float64{&ws.Experience, &ws.Education, &ws.Certifications, &ws.ProfileCompleteness} {
		if *w > *largest {
			largest = w
		}
	}
	*largest = math.Round((*largest+diff)*100) / 100
	return ws
}
