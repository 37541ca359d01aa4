package ranking

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// PoolEntry is one candidate's current overall score in the pool.
type PoolEntry struct {
	CandidateID uuid.UUID `json:"candidate_id"`
	Overall     float64   `json:"overall"`
}

// Standing is a candidate's position relative to a pool snapshot.
type Standing struct {
	RankPosition int     `json:"rank_position"`
	Percentile   float64 `json:"percentile"`
	PoolSize     int     `json:"pool_size"`
}

// PoolSnapshot is an immutable view of every candidate's score at one point in time.
//
// Positions use standard competition ranking: tied scores share a position and the
// next distinct score takes previous position + tie count. Percentile is the share of
// the pool scoring at or below the candidate, so ties also share a percentile.
type PoolSnapshot struct {
	desc    []float64
	byID    map[uuid.UUID]float64
	takenAt time.Time
}

// NewPoolSnapshot builds a snapshot from the given entries.
func NewPoolSnapshot(entries []PoolEntry, takenAt time.Time) *PoolSnapshot {
	p := &PoolSnapshot{
		desc:    make([]float64, 0, len(entries)),
		byID:    make(map[uuid.UUID]float64, len(entries)),
		takenAt: takenAt,
	}
	for _, e := range entries {
		s := poolKey(e.Overall)
		if _, dup := p.byID[e.CandidateID]; dup {
			continue
		}
		p.byID[e.CandidateID] = s
		p.desc = append(p.desc, s)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(p.desc)))
	return p
}

// poolKey normalizes a score to the one-decimal precision scores are stored at,
// so equal scores compare equal.
func poolKey(overall float64) float64 {
	return round(clamp(overall, 0, 100), 1)
}

// Size returns the number of candidates in the snapshot.
func (p *PoolSnapshot) Size() int {
	if p == nil {
		return 0
	}
	return len(p.desc)
}

// TakenAt returns when the snapshot was built.
func (p *PoolSnapshot) TakenAt() time.Time {
	if p == nil {
		return time.Time{}
	}
	return p.takenAt
}

// countAbove returns how many snapshot scores are strictly greater than s.
func (p *PoolSnapshot) countAbove(s float64) int {
	return sort.Search(len(p.desc), func(i int) bool { return p.desc[i] <= s })
}

// Standing classifies a candidate scoring overall against the snapshot.
// If the candidate is already in the snapshot, its old score is replaced.
// A nil snapshot yields the zero Standing, which leaves the score unclassified.
func (p *PoolSnapshot) Standing(candidateID uuid.UUID, overall float64) Standing {
	if p == nil {
		return Standing{}
	}
	s := poolKey(overall)

	n := len(p.desc)
	above := p.countAbove(s)
	atOrBelow := n - above

	if old, ok := p.byID[candidateID]; ok {
		if old > s {
			above--
		} else {
			atOrBelow--
		}
	} else {
		n++
	}
	atOrBelow++

	return Standing{
		RankPosition: above + 1,
		Percentile:   round(100*float64(atOrBelow)/float64(n), 1),
		PoolSize:     n,
	}
}

// Standings classifies every candidate in the snapshot.
func (p *PoolSnapshot) Standings() map[uuid.UUID]Standing {
	if p == nil {
		return map[uuid.UUID]Standing{}
	}
	n := len(p.desc)
	out := make(map[uuid.UUID]Standing, n)
	for id, s := range p.byID {
		above := p.countAbove(s)
		out[id] = Standing{
			RankPosition: above + 1,
			Percentile:   round(100*float64(n-above)/float64(n), 1),
			PoolSize:     n,
		}
	}
	return out
}
