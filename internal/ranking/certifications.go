package ranking

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/jonathan/rank-engine/internal/types"
)

const (
	verifiedCertPoints   = 30.0
	unverifiedCertPoints = 12.0
	// certDecay is the credit ratio applied to each subsequent certification.
	certDecay = 0.75
)

// ScoreCertifications returns the certifications sub-score in [0, 100].
//
// Verified certificates weigh more than self-reported ones, expired ones contribute
// nothing and duplicates (same name and issuer) count once.
func ScoreCertifications(certs []types.Certification, asOf time.Time) float64 {
	if len(certs) == 0 {
		return 0
	}

	best := make(map[string]float64, len(certs))
	for _, c := range certs {
		if c.IsExpired(asOf) {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(c.Name)) + "|" + strings.ToLower(strings.TrimSpace(c.Issuer))
		points := unverifiedCertPoints
		if c.Verified {
			points = verifiedCertPoints
		}
		if prev, ok := best[key]; !ok || points > prev {
			best[key] = points
		}
	}
	if len(best) == 0 {
		return 0
	}

	points := make([]float64, 0, len(best))
	for _, v := range best {
		points = append(points, v)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(points)))

	total := decayingSum(points, func(k int) float64 {
		return math.Pow(certDecay, float64(k))
	})
	return round(clamp(total, 0, 100), 2)
}
