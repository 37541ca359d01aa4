package eligibility_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/rank-engine/internal/eligibility"
	"github.com/jonathan/rank-engine/internal/memstore"
	"github.com/jonathan/rank-engine/internal/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedStaleness bool

func (f fixedStaleness) IsStale(context.Context, *types.RankScore) (bool, error) {
	return bool(f), nil
}

func TestGate_UnrestrictedJobAllowsNewCandidate(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	gate := eligibility.NewGate(store, nil, nil, nil)

	candidate := uuid.New()
	store.PutRankScore(types.RankScore{CandidateID: candidate, Overall: 0, Tier: types.TierEmerging})

	d, err := gate.CanApply(ctx, candidate, uuid.New())
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, types.DecisionUnrestricted, d.Code)
}

func TestGate_PositionRuleImprovement(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	metrics := eligibility.NewMetrics()
	gate := eligibility.NewGate(store, nil, nil, metrics)

	job, candidate := uuid.New(), uuid.New()
	_, err := gate.SetRule(ctx, job, types.EligibilityRuleInput{
		Unit:               types.ThresholdPosition,
		MinRankRequirement: 500,
		RestrictionEnabled: true,
	})
	require.NoError(t, err)

	store.PutRankScore(types.RankScore{CandidateID: candidate, Overall: 55, RankPosition: 812})

	d, err := gate.CanApply(ctx, candidate, job)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, "requires top-500 rank, candidate is rank 812", d.Reason)

	_, err = gate.Apply(ctx, candidate, job)
	var denied *eligibility.DeniedError
	require.True(t, errors.As(err, &denied))
	assert.Equal(t, types.DecisionBelowThreshold, denied.Decision.Code)

	store.PutRankScore(types.RankScore{CandidateID: candidate, Overall: 78, RankPosition: 300})

	d, err = gate.CanApply(ctx, candidate, job)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	app, err := gate.Apply(ctx, candidate, job)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, app.ID)
	require.NotNil(t, app.RankPosition)
	assert.Equal(t, 300, *app.RankPosition)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DecisionCounter(string(types.DecisionBelowThreshold), "advisory")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DecisionCounter(string(types.DecisionMeetsThreshold), "enforced")))
}

func TestGate_NoScoreDenied(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	gate := eligibility.NewGate(store, nil, nil, nil)
	job := uuid.New()

	_, err := gate.SetRule(ctx, job, types.EligibilityRuleInput{Unit: types.ThresholdScore, MinRankRequirement: 1, RestrictionEnabled: true})
	require.NoError(t, err)

	d, err := gate.CanApply(ctx, uuid.New(), job)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, types.DecisionNoScore, d.Code)
}

func TestGate_AcceptedApplicationLocksRule(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	gate := eligibility.NewGate(store, nil, nil, nil)
	job, candidate := uuid.New(), uuid.New()

	_, err := gate.SetRule(ctx, job, types.EligibilityRuleInput{Unit: types.ThresholdScore, MinRankRequirement: 50, RestrictionEnabled: true})
	require.NoError(t, err)
	// Changes are allowed before any application.
	_, err = gate.SetRule(ctx, job, types.EligibilityRuleInput{Unit: types.ThresholdScore, MinRankRequirement: 60, RestrictionEnabled: true})
	require.NoError(t, err)

	store.PutRankScore(types.RankScore{CandidateID: candidate, Overall: 65})
	_, err = gate.Apply(ctx, candidate, job)
	require.NoError(t, err)

	rule, err := gate.GetRule(ctx, job)
	require.NoError(t, err)
	assert.True(t, rule.Locked)

	_, err = gate.SetRule(ctx, job, types.EligibilityRuleInput{Unit: types.ThresholdScore, MinRankRequirement: 90, RestrictionEnabled: true})
	var locked *eligibility.RuleLockedError
	require.True(t, errors.As(err, &locked))

	apps, err := gate.ListApplications(ctx, job)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, types.DecisionMeetsThreshold, apps[0].DecisionCode)
}

func TestGate_DuplicateApplication(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	gate := eligibility.NewGate(store, nil, nil, nil)
	job, candidate := uuid.New(), uuid.New()

	_, err := gate.Apply(ctx, candidate, job)
	require.NoError(t, err)

	_, err = gate.Apply(ctx, candidate, job)
	var dup *eligibility.AlreadyAppliedError
	assert.True(t, errors.As(err, &dup))
}

func TestGate_SetRuleValidation(t *testing.T) {
	ctx := context.Background()
	gate := eligibility.NewGate(memstore.New(), nil, nil, nil)

	_, err := gate.SetRule(ctx, uuid.New(), types.EligibilityRuleInput{Unit: types.ThresholdScore, MinRankRequirement: 120, RestrictionEnabled: true})
	var fve *types.FactorValidationError
	require.True(t, errors.As(err, &fve))
	assert.Equal(t, "min_rank_requirement", fve.Errors[0].Field)

	_, err = gate.SetRule(ctx, uuid.New(), types.EligibilityRuleInput{Unit: types.ThresholdPosition, MinRankRequirement: 0, RestrictionEnabled: true})
	assert.Error(t, err)

	_, err = gate.SetRule(ctx, uuid.New(), types.EligibilityRuleInput{Unit: "percentile", MinRankRequirement: 10})
	assert.Error(t, err)
}

func TestGate_StaleDecisionIsFlagged(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	gate := eligibility.NewGate(store, fixedStaleness(true), nil, nil)
	job, candidate := uuid.New(), uuid.New()

	_, err := gate.SetRule(ctx, job, types.EligibilityRuleInput{Unit: types.ThresholdScore, MinRankRequirement: 50, RestrictionEnabled: true})
	require.NoError(t, err)
	store.PutRankScore(types.RankScore{CandidateID: candidate, Overall: 65})

	d, err := gate.CanApply(ctx, candidate, job)
	require.NoError(t, err)
	assert.True(t, d.Allowed, "staleness never changes the outcome")
	assert.True(t, d.Stale)
}

func TestGate_ConcurrentApplyRecordsOnce(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	gate := eligibility.NewGate(store, nil, nil, nil)
	job, candidate := uuid.New(), uuid.New()
	store.PutRankScore(types.RankScore{CandidateID: candidate, Overall: 80})

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := gate.Apply(ctx, candidate, job); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, accepted)
	apps, err := gate.ListApplications(ctx, job)
	require.NoError(t, err)
	assert.Len(t, apps, 1)
}

// racingStore lowers the candidate's score from another goroutine as soon as
// Apply has read it, while the application transaction is still open.
type racingStore struct {
	*memstore.Store
	lowered  types.RankScore
	saveDone chan struct{}
}

func (s *racingStore) WithApplicationTx(ctx context.Context, fn func(tx eligibility.ApplicationTx) error) error {
	return s.Store.WithApplicationTx(ctx, func(tx eligibility.ApplicationTx) error {
		return fn(&racingTx{ApplicationTx: tx, store: s})
	})
}

type racingTx struct {
	eligibility.ApplicationTx
	store *racingStore
}

func (t *racingTx) GetRankScore(ctx context.Context, candidateID uuid.UUID) (*types.RankScore, error) {
	score, err := t.ApplicationTx.GetRankScore(ctx, candidateID)
	go func() {
		_, _ = t.store.SaveRankScore(context.Background(), t.store.lowered, 0)
		close(t.store.saveDone)
	}()
	select {
	case <-t.store.saveDone:
		return nil, errors.New("score was rewritten inside the application transaction")
	case <-time.After(50 * time.Millisecond):
	}
	return score, err
}

func TestGate_ScoreDropWaitsForApplication(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	job, candidate := uuid.New(), uuid.New()
	store := &racingStore{
		Store:    memstore.New(),
		lowered:  types.RankScore{CandidateID: candidate, Overall: 50, ComputedAt: now.Add(time.Second)},
		saveDone: make(chan struct{}),
	}
	store.PutRankScore(types.RankScore{CandidateID: candidate, Overall: 80, ComputedAt: now})
	gate := eligibility.NewGate(store, nil, nil, nil)

	_, err := gate.SetRule(ctx, job, types.EligibilityRuleInput{
		Unit:               types.ThresholdScore,
		MinRankRequirement: 70,
		RestrictionEnabled: true,
	})
	require.NoError(t, err)

	app, err := gate.Apply(ctx, candidate, job)
	require.NoError(t, err)
	require.NotNil(t, app.Overall)
	assert.Equal(t, 80.0, *app.Overall, "the application records the score it was decided on")

	select {
	case <-store.saveDone:
	case <-time.After(2 * time.Second):
		t.Fatal("score write never completed after the application committed")
	}

	d, err := gate.CanApply(ctx, candidate, job)
	require.NoError(t, err)
	assert.False(t, d.Allowed, "the lowered score applies to later decisions")
	assert.Equal(t, types.DecisionBelowThreshold, d.Code)
}

func TestGate_RuleChangeWaitsForApplication(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	gate := eligibility.NewGate(store, nil, nil, nil)
	job, candidate := uuid.New(), uuid.New()
	store.PutRankScore(types.RankScore{CandidateID: candidate, Overall: 80})

	rule := types.EligibilityRuleInput{Unit: types.ThresholdScore, MinRankRequirement: 70, RestrictionEnabled: true}
	_, err := gate.SetRule(ctx, job, rule)
	require.NoError(t, err)

	saved := make(chan error, 1)
	err = store.WithApplicationTx(ctx, func(tx eligibility.ApplicationTx) error {
		_, err := tx.GetEligibilityRule(ctx, job)
		require.NoError(t, err)
		go func() {
			_, err := gate.SetRule(ctx, job, types.EligibilityRuleInput{Unit: types.ThresholdScore, MinRankRequirement: 95, RestrictionEnabled: true})
			saved <- err
		}()
		select {
		case <-saved:
			return errors.New("rule changed inside the application transaction")
		case <-time.After(50 * time.Millisecond):
		}
		app := &types.Application{JobID: job, CandidateID: candidate, DecisionCode: types.DecisionMeetsThreshold}
		_, err = tx.InsertApplication(ctx, app)
		require.NoError(t, err)
		return tx.LockEligibilityRule(ctx, job)
	})
	require.NoError(t, err)

	var locked *eligibility.RuleLockedError
	assert.ErrorAs(t, <-saved, &locked, "the waiting rule change sees the lock")
}
