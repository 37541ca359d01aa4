package ranking

import "github.com/jonathan/rank-engine/internal/types"

// Profile checklist weights, summing to 100.
const (
	resumePoints       = 30.0
	photoPoints        = 15.0
	bioPoints          = 20.0
	fieldsFilledPoints = 35.0
)

// ScoreProfile returns the profile-completeness sub-score in [0, 100].
func ScoreProfile(pc types.ProfileCompleteness, p Params) float64 {
	p = p.withDefaults()

	score := 0.0
	if pc.HasResume {
		score += resumePoints
	}
	if pc.HasPhoto {
		score += photoPoints
	}
	score += bioPoints * clamp(float64(pc.BioLength)/float64(p.BioLengthThreshold), 0, 1)
	score += fieldsFilledPoints * clamp(pc.FieldsFilledRatio, 0, 1)

	return round(clamp(score, 0, 100), 2)
}
