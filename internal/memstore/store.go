// Package memstore is an in-memory implementation of the rank engine's storage
// interfaces, used by tests and by the offline CLI.
package memstore

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/rank-engine/internal/ranking"
	"github.com/jonathan/rank-engine/internal/types"
)

// Store holds candidates, scores, weights and eligibility state in memory.
// Thread-safe via RWMutex.
type Store struct {
	mu           sync.RWMutex
	candidates   map[uuid.UUID]*types.CandidateFactors
	dirty        map[uuid.UUID]int64 // candidateID -> sequence it was flagged at
	factorSeq    map[uuid.UUID]int64 // candidateID -> last factor write sequence
	seq          int64
	scores       map[uuid.UUID]types.RankScore
	sourceSeq    map[uuid.UUID]int64 // candidateID -> factorSeq the stored score used
	weights      []types.WeightSet
	rules        map[uuid.UUID]types.JobEligibilityRule
	applications map[uuid.UUID][]types.Application // jobID -> applications

	// txMu serializes application transactions against score and rule writes.
	txMu sync.Mutex
	now  func() time.Time
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		candidates:   make(map[uuid.UUID]*types.CandidateFactors),
		dirty:        make(map[uuid.UUID]int64),
		factorSeq:    make(map[uuid.UUID]int64),
		scores:       make(map[uuid.UUID]types.RankScore),
		sourceSeq:    make(map[uuid.UUID]int64),
		rules:        make(map[uuid.UUID]types.JobEligibilityRule),
		applications: make(map[uuid.UUID][]types.Application),
		now:          time.Now,
	}
}

// markDirtyLocked bumps the candidate's factor sequence and flags it dirty.
// Callers hold s.mu.
func (s *Store) markDirtyLocked(id uuid.UUID) {
	s.seq++
	s.dirty[id] = s.seq
	s.factorSeq[id] = s.seq
}

// candidateLocked returns the factor record for id, creating it if needed.
func (s *Store) candidateLocked(id uuid.UUID) *types.CandidateFactors {
	f, ok := s.candidates[id]
	if !ok {
		f = &types.CandidateFactors{CandidateID: id}
		s.candidates[id] = f
	}
	return f
}

// LoadFactors returns a copy of the candidate's factors and its factor sequence.
// Returns nil if the candidate is unknown.
func (s *Store) LoadFactors(_ context.Context, id uuid.UUID) (*types.CandidateFactors, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.candidates[id]
	if !ok {
		return nil, 0, nil
	}
	return copyFactors(f), s.factorSeq[id], nil
}

// SaveRankScore stores score, computed from the factors at sourceSeq, unless the
// stored score sorts after it by (source sequence, weight version, computed at).
// The dirty flag is cleared if no factor write happened after sourceSeq.
func (s *Store) SaveRankScore(_ context.Context, score types.RankScore, sourceSeq int64) (bool, error) {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	id := score.CandidateID
	if cur, ok := s.dirty[id]; ok && cur <= sourceSeq {
		delete(s.dirty, id)
	}
	if existing, ok := s.scores[id]; ok && supersedes(existing, s.sourceSeq[id], score, sourceSeq) {
		return false, nil
	}
	s.scores[id] = score
	s.sourceSeq[id] = sourceSeq
	return true, nil
}

// supersedes reports whether the stored score sorts strictly after the incoming one.
func supersedes(stored types.RankScore, storedSeq int64, in types.RankScore, inSeq int64) bool {
	if storedSeq != inSeq {
		return storedSeq > inSeq
	}
	if stored.WeightSetVersion != in.WeightSetVersion {
		return stored.WeightSetVersion > in.WeightSetVersion
	}
	return stored.ComputedAt.After(in.ComputedAt)
}

// GetRankScore returns the stored score, or nil if none exists.
func (s *Store) GetRankScore(_ context.Context, id uuid.UUID) (*types.RankScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	score, ok := s.scores[id]
	if !ok {
		return nil, nil
	}
	return &score, nil
}

// ListDirtyCandidates returns candidates after the cursor that are flagged dirty,
// have no score yet, or were scored under an older weight version.
func (s *Store) ListDirtyCandidates(_ context.Context, activeVersion int64, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []uuid.UUID
	for id := range s.candidates {
		if bytes.Compare(id[:], after[:]) <= 0 {
			continue
		}
		_, dirty := s.dirty[id]
		score, scored := s.scores[id]
		if dirty || !scored || score.WeightSetVersion < activeVersion {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i][:], out[j][:]) < 0 })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// PoolScores returns every candidate's stored overall score.
func (s *Store) PoolScores(_ context.Context) ([]ranking.PoolEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ranking.PoolEntry, 0, len(s.scores))
	for id, score := range s.scores {
		out = append(out, ranking.PoolEntry{CandidateID: id, Overall: score.Overall})
	}
	return out, nil
}

// UpdateClassification writes a batch-refreshed standing if the stored overall
// still equals the overall the standing was computed from.
func (s *Store) UpdateClassification(_ context.Context, id uuid.UUID, overall float64, st ranking.Standing) (bool, error) {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	score, ok := s.scores[id]
	if !ok || score.Overall != overall {
		return false, nil
	}
	score.RankPosition = st.RankPosition
	score.Percentile = st.Percentile
	score.PoolSize = st.PoolSize
	s.scores[id] = score
	return true, nil
}

// IsCandidateDirty reports whether the candidate has a pending dirty flag.
func (s *Store) IsCandidateDirty(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.dirty[id]
	return ok, nil
}

// PutRankScore stores a score unconditionally (for testing).
func (s *Store) PutRankScore(score types.RankScore) {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores[score.CandidateID] = score
}

func copyFactors(f *types.CandidateFactors) *types.CandidateFactors {
	out := *f
	out.Skills = append([]types.Skill(nil), f.Skills...)
	out.Education = append([]types.Education(nil), f.Education...)
	out.Experience = append([]types.Experience(nil), f.Experience...)
	out.Certifications = append([]types.Certification(nil), f.Certifications...)
	return &out
}
