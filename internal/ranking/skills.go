package ranking

import (
	"math"
	"sort"
	"strings"

	"github.com/jonathan/rank-engine/internal/types"
)

// Per-skill quality components, summing to 1.0.
const (
	skillLevelWeight    = 0.6
	skillYearsWeight    = 0.25
	skillVerifiedWeight = 0.15

	maxSkillLevel = 10.0
	maxSkillYears = 10.0

	// skillResidualDecay is the credit ratio for each skill past saturation.
	skillResidualDecay = 0.25
)

// skillAliases maps common skill name variants to one canonical key.
var skillAliases = map[string]string{
	"golang":     "go",
	"go lang":    "go",
	"js":         "javascript",
	"ts":         "typescript",
	"k8s":        "kubernetes",
	"react.js":   "react",
	"reactjs":    "react",
	"vue.js":     "vue",
	"vuejs":      "vue",
	"nodejs":     "node.js",
	"postgres":   "postgresql",
	"psql":       "postgresql",
	"c sharp":    "c#",
	"csharp":     "c#",
	"amazon aws": "aws",
}

// skillKey normalizes a skill name so that duplicates collapse into one entry.
func skillKey(name string) string {
	key := strings.Join(strings.Fields(strings.ToLower(name)), " ")
	if canonical, ok := skillAliases[key]; ok {
		return canonical
	}
	return key
}

// skillQuality scores a single skill in [0, 1] from level, years and verification.
// Out-of-range values are clamped rather than rejected.
func skillQuality(s types.Skill) float64 {
	level := clamp(float64(s.Level), 0, maxSkillLevel) / maxSkillLevel
	years := clamp(s.ExperienceYears, 0, maxSkillYears) / maxSkillYears
	q := skillLevelWeight*level + skillYearsWeight*years
	if s.Verified {
		q += skillVerifiedWeight
	}
	return clamp(q, 0, 1)
}

// ScoreSkills returns the skills sub-score in [0, 100].
//
// The score is the sum of the best skill qualities up to the saturation count,
// normalized by that count; skills past saturation only add a geometrically
// shrinking residual, so padding the list cannot inflate the score unboundedly.
// In aggregate it rewards count, level, years and verification ratio.
func ScoreSkills(skills []types.Skill, p Params) float64 {
	if len(skills) == 0 {
		return 0
	}
	p = p.withDefaults()

	best := make(map[string]float64, len(skills))
	for _, s := range skills {
		key := skillKey(s.Name)
		if key == "" {
			continue
		}
		q := skillQuality(s)
		if prev, ok := best[key]; !ok || q > prev {
			best[key] = q
		}
	}
	if len(best) == 0 {
		return 0
	}

	qualities := make([]float64, 0, len(best))
	for _, q := range best {
		qualities = append(qualities, q)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(qualities)))

	saturation := p.SkillSaturation
	total := decayingSum(qualities, func(k int) float64 {
		if k < saturation {
			return 1
		}
		return math.Pow(skillResidualDecay, float64(k-saturation+1))
	})

	return round(clamp(100*total/float64(saturation), 0, 100), 2)
}
