package ranking

import (
	"sort"
	"strings"
	"time"

	"github.com/jonathan/rank-engine/internal/types"
)

const (
	experienceBasePoints       = 85.0
	experienceLeadershipPoints = 15.0

	// unverifiedMonthCredit is the share of credit given to months only backed by unverified roles.
	unverifiedMonthCredit = 0.5

	maxRoleMonths = 720
)

// leadershipTokens are role-title words that signal seniority or leadership.
var leadershipTokens = map[string]bool{
	"lead":      true,
	"senior":    true,
	"sr":        true,
	"principal": true,
	"staff":     true,
	"manager":   true,
	"head":      true,
	"director":  true,
	"chief":     true,
	"vp":        true,
	"president": true,
	"architect": true,
	"founder":   true,
	"cto":       true,
	"ceo":       true,
	"coo":       true,
	"cfo":       true,
}

// IsLeadershipRole reports whether a role title carries a seniority signal.
func IsLeadershipRole(role string) bool {
	tokens := strings.FieldsFunc(strings.ToLower(role), func(r rune) bool {
		return (r < 'a' || r > 'z') && (r < '0' || r > '9')
	})
	for _, t := range tokens {
		if leadershipTokens[t] {
			return true
		}
	}
	return false
}

// span is a half-open range of month indexes [start, end).
type span struct {
	start, end int
}

// monthIndex converts a time to a month counter.
func monthIndex(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}

// tenure accumulates dated spans and undated month counts.
type tenure struct {
	spans   []span
	undated int
}

func (t *tenure) add(s *span, months int) {
	if s != nil {
		t.spans = append(t.spans, *s)
		return
	}
	t.undated += months
}

// months returns total months with overlapping spans counted once.
func (t *tenure) months() int {
	return mergedLength(t.spans) + t.undated
}

// mergedLength returns the length of the union of spans.
func mergedLength(spans []span) int {
	if len(spans) == 0 {
		return 0
	}
	sorted := make([]span, len(spans))
	copy(sorted, spans)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].start < sorted[j].start })

	total := 0
	cur := sorted[0]
	for _, s := range sorted[1:] {
		if s.start <= cur.end {
			if s.end > cur.end {
				cur.end = s.end
			}
			continue
		}
		total += cur.end - cur.start
		cur = s
	}
	return total + cur.end - cur.start
}

// roleSpan resolves an experience entry to a dated span when it has a valid start date.
// Ongoing roles extend at least to asOf.
func roleSpan(e types.Experience, months int, asOf time.Time) *span {
	if e.StartDate == "" {
		return nil
	}
	start, err := time.Parse("2006-01", e.StartDate)
	if err != nil {
		return nil
	}
	s := span{start: monthIndex(start), end: monthIndex(start) + months}
	if e.IsCurrent {
		if now := monthIndex(asOf); now > s.end {
			s.end = now
		}
	}
	if s.end <= s.start {
		return nil
	}
	return &s
}

// effectiveMonths credits verified months fully and unverified-only months partially.
func effectiveMonths(all, verified *tenure) float64 {
	a := float64(all.months())
	v := float64(verified.months())
	if v > a {
		v = a
	}
	return v + unverifiedMonthCredit*(a-v)
}

// ScoreExperience returns the experience sub-score in [0, 100].
//
// Tenure is summed across roles with overlapping dated roles merged, so concurrent
// positions never double-count. Leadership titles earn a separate bonus.
func ScoreExperience(entries []types.Experience, asOf time.Time, p Params) float64 {
	if len(entries) == 0 {
		return 0
	}
	p = p.withDefaults()

	var all, verified, leadAll, leadVerified tenure
	for _, e := range entries {
		months := clampInt(e.DurationMonths, 0, maxRoleMonths)
		s := roleSpan(e, months, asOf)
		if s == nil && months == 0 {
			continue
		}
		lead := IsLeadershipRole(e.Role)

		all.add(s, months)
		if e.Verified {
			verified.add(s, months)
		}
		if lead {
			leadAll.add(s, months)
			if e.Verified {
				leadVerified.add(s, months)
			}
		}
	}

	base := clamp(effectiveMonths(&all, &verified)/float64(p.ExperienceSaturationMonths), 0, 1)
	lead := clamp(effectiveMonths(&leadAll, &leadVerified)/float64(p.LeadershipSaturationMonths), 0, 1)

	return round(clamp(experienceBasePoints*base+experienceLeadershipPoints*lead, 0, 100), 2)
}
