package memstore

import (
	"context"

	"github.com/google/uuid"
	"github.com/jonathan/rank-engine/internal/eligibility"
	"github.com/jonathan/rank-engine/internal/types"
)

// GetEligibilityRule returns the job's rule, or nil if none exists.
func (s *Store) GetEligibilityRule(_ context.Context, jobID uuid.UUID) (*types.JobEligibilityRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rule, ok := s.rules[jobID]
	if !ok {
		return nil, nil
	}
	return &rule, nil
}

// SaveEligibilityRule upserts a rule. Returns false if the existing rule is locked.
func (s *Store) SaveEligibilityRule(_ context.Context, rule types.JobEligibilityRule) (bool, error) {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.rules[rule.JobID]; ok && existing.Locked {
		return false, nil
	}
	rule.Locked = false
	rule.UpdatedAt = s.now()
	s.rules[rule.JobID] = rule
	return true, nil
}

// ListApplications returns the job's accepted applications in insertion order.
func (s *Store) ListApplications(_ context.Context, jobID uuid.UUID) ([]types.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.Application(nil), s.applications[jobID]...), nil
}

// WithApplicationTx runs fn with applications, score writes and rule writes
// serialized; writes apply only if fn succeeds.
func (s *Store) WithApplicationTx(ctx context.Context, fn func(tx eligibility.ApplicationTx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	tx := &applicationTx{store: s}
	if err := fn(tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, app := range tx.apps {
		s.applications[app.JobID] = append(s.applications[app.JobID], app)
	}
	for _, jobID := range tx.locks {
		if rule, ok := s.rules[jobID]; ok {
			rule.Locked = true
			s.rules[jobID] = rule
		}
	}
	return nil
}

type applicationTx struct {
	store *Store
	apps  []types.Application
	locks []uuid.UUID
}

func (t *applicationTx) GetEligibilityRule(ctx context.Context, jobID uuid.UUID) (*types.JobEligibilityRule, error) {
	return t.store.GetEligibilityRule(ctx, jobID)
}

func (t *applicationTx) GetRankScore(ctx context.Context, candidateID uuid.UUID) (*types.RankScore, error) {
	return t.store.GetRankScore(ctx, candidateID)
}

func (t *applicationTx) InsertApplication(_ context.Context, app *types.Application) (bool, error) {
	t.store.mu.RLock()
	for _, a := range t.store.applications[app.JobID] {
		if a.CandidateID == app.CandidateID {
			t.store.mu.RUnlock()
			return false, nil
		}
	}
	t.store.mu.RUnlock()
	for _, a := range t.apps {
		if a.JobID == app.JobID && a.CandidateID == app.CandidateID {
			return false, nil
		}
	}
	app.ID = uuid.New()
	app.CreatedAt = t.store.now()
	t.apps = append(t.apps, *app)
	return true, nil
}

func (t *applicationTx) LockEligibilityRule(_ context.Context, jobID uuid.UUID) error {
	t.locks = append(t.locks, jobID)
	return nil
}
