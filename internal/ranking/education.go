package ranking

import (
	"sort"
	"strings"

	"github.com/jonathan/rank-engine/internal/types"
)

const (
	// educationResidualShare is the share of non-best credentials credited.
	educationResidualShare = 0.15
	// educationResidualCap caps the total residual credit.
	educationResidualCap = 15.0
	// inProgressCredit is the share of credit given to in-progress education.
	inProgressCredit = 0.5
	// gpaBonusPoints is the bonus earned by a perfect 4.0 GPA.
	gpaBonusPoints = 10.0

	unknownDegreePoints = 20.0
)

// degreePoints maps normalized degree types to their base credit.
var degreePoints = map[string]float64{
	"high_school": 25,
	"certificate": 35,
	"associate":   45,
	"bachelor":    65,
	"master":      80,
	"phd":         90,
}

// degreeAliases maps common degree spellings to degreePoints keys.
var degreeAliases = map[string]string{
	"high school": "high_school",
	"secondary":   "high_school",
	"ged":         "high_school",
	"diploma":     "certificate",
	"associates":  "associate",
	"aa":          "associate",
	"as":          "associate",
	"bachelors":   "bachelor",
	"ba":          "bachelor",
	"bs":          "bachelor",
	"bsc":         "bachelor",
	"beng":        "bachelor",
	"masters":     "master",
	"ma":          "master",
	"ms":          "master",
	"msc":         "master",
	"mba":         "master",
	"meng":        "master",
	"doctorate":   "phd",
	"doctoral":    "phd",
	"dphil":       "phd",
	"md":          "phd",
	"jd":          "phd",
}

// institutionMultiplier scales credit by institution tier (1 is top).
var institutionMultiplier = map[int]float64{
	1: 1.0,
	2: 0.92,
	3: 0.85,
	4: 0.78,
}

// NormalizeDegree maps a free-form degree string to a known degree key, or "".
func NormalizeDegree(degree string) string {
	d := strings.ToLower(strings.TrimSpace(degree))
	d = strings.NewReplacer(".", "", "'", "", "’", "").Replace(d)
	if _, ok := degreePoints[d]; ok {
		return d
	}
	if key, ok := degreeAliases[d]; ok {
		return key
	}
	// Prefix match on the first word, e.g. "Master of Science".
	if fields := strings.Fields(d); len(fields) > 0 {
		if _, ok := degreePoints[fields[0]]; ok {
			return fields[0]
		}
		if key, ok := degreeAliases[fields[0]]; ok {
			return key
		}
	}
	switch {
	case strings.Contains(d, "doctor") || strings.Contains(d, "phd"):
		return "phd"
	case strings.Contains(d, "master"):
		return "master"
	case strings.Contains(d, "bachelor"):
		return "bachelor"
	case strings.Contains(d, "associate"):
		return "associate"
	case strings.Contains(d, "high school"):
		return "high_school"
	}
	return ""
}

// credentialValue scores one education entry in [0, 100].
func credentialValue(e types.Education) float64 {
	base := unknownDegreePoints
	if key := NormalizeDegree(e.Degree); key != "" {
		base = degreePoints[key]
	}
	mult, ok := institutionMultiplier[e.InstitutionTier]
	if !ok {
		mult = institutionMultiplier[4]
	}
	v := base * mult
	if e.GPA != nil {
		v += gpaBonusPoints * clamp(*e.GPA, 0, 4) / 4
	}
	if e.IsCurrent {
		v *= inProgressCredit
	}
	return clamp(v, 0, 100)
}

// ScoreEducation returns the education sub-score in [0, 100].
//
// The highest-valued credential dominates; the others add a small capped residual.
// In-progress entries count at half credit.
func ScoreEducation(entries []types.Education) float64 {
	if len(entries) == 0 {
		return 0
	}
	values := make([]float64, 0, len(entries))
	for _, e := range entries {
		values = append(values, credentialValue(e))
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(values)))

	residual := 0.0
	for _, v := range values[1:] {
		residual += v
	}
	residual = clamp(educationResidualShare*residual, 0, educationResidualCap)

	return round(clamp(values[0]+residual, 0, 100), 2)
}
