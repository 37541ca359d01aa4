package memstore

import (
	"context"

	"github.com/jonathan/rank-engine/internal/types"
)

// ActiveWeightSet returns the highest weight set version, or nil.
func (s *Store) ActiveWeightSet(_ context.Context) (*types.WeightSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.weights) == 0 {
		return nil, nil
	}
	ws := s.weights[len(s.weights)-1]
	return &ws, nil
}

// AppendWeightSet stores ws as the next version.
func (s *Store) AppendWeightSet(_ context.Context, ws types.WeightSet) (*types.WeightSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws.Version = int64(len(s.weights)) + 1
	ws.EffectiveAt = s.now()
	s.weights = append(s.weights, ws)
	return &ws, nil
}

// ListWeightSets returns up to limit versions, newest first.
func (s *Store) ListWeightSets(_ context.Context, limit int) ([]types.WeightSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.WeightSet, 0, len(s.weights))
	for i := len(s.weights) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, s.weights[i])
	}
	return out, nil
}
