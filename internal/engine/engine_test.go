package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jonathan/rank-engine/internal/eligibility"
	"github.com/jonathan/rank-engine/internal/memstore"
	"github.com/jonathan/rank-engine/internal/recompute"
	"github.com/jonathan/rank-engine/internal/types"
	"github.com/jonathan/rank-engine/internal/weights"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenQueue fails every push.
type brokenQueue struct{ *recompute.MemoryQueue }

func (brokenQueue) Push(context.Context, uuid.UUID) error { return errors.New("queue unavailable") }

func newTestEngine(t *testing.T, queue recompute.Queue) (*Engine, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	registry := weights.NewRegistry(store, nil)
	registry.SetCacheTTL(0)
	coord := recompute.NewCoordinator(recompute.Config{}, store, registry, queue)
	gate := eligibility.NewGate(store, coord, nil, nil)
	e := New(store, registry, coord, gate, nil)

	_, err := registry.EnsureDefault(context.Background())
	require.NoError(t, err)
	return e, store
}

func TestEngine_NewCandidateWithNoFactors(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, nil)
	candidate := uuid.New()

	require.NoError(t, e.RegisterCandidate(ctx, candidate))
	score, err := e.RecomputeNow(ctx, candidate)
	require.NoError(t, err)

	assert.Equal(t, 0.0, score.Overall)
	assert.Equal(t, types.TierEmerging, score.Tier)

	d, err := e.Gate().CanApply(ctx, candidate, uuid.New())
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestEngine_MutationsMarkDirtyAndRecompute(t *testing.T) {
	ctx := context.Background()
	e, store := newTestEngine(t, nil)
	candidate := uuid.New()

	skill, err := e.AddSkill(ctx, candidate, types.Skill{Name: "Go", Level: 7, ExperienceYears: 4})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, skill.ID)

	dirty, err := store.IsCandidateDirty(ctx, candidate)
	require.NoError(t, err)
	assert.True(t, dirty)

	before, err := e.RecomputeNow(ctx, candidate)
	require.NoError(t, err)

	require.NoError(t, e.VerifySkill(ctx, candidate, skill.ID, true))
	view, err := e.GetRankScore(ctx, candidate)
	require.NoError(t, err)
	assert.True(t, view.Stale, "score is stale until recomputed")

	after, err := e.RecomputeNow(ctx, candidate)
	require.NoError(t, err)
	assert.Greater(t, after.Overall, before.Overall)

	view, err = e.GetRankScore(ctx, candidate)
	require.NoError(t, err)
	assert.False(t, view.Stale)
	assert.Equal(t, "fresh", view.State)
}

func TestEngine_AllFactorKinds(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, nil)
	candidate := uuid.New()

	ed, err := e.AddEducation(ctx, candidate, types.Education{Degree: "master", InstitutionTier: 2})
	require.NoError(t, err)
	ex, err := e.AddExperience(ctx, candidate, types.Experience{Role: "Staff Engineer", StartDate: "2018-01", DurationMonths: 60})
	require.NoError(t, err)
	cert, err := e.AddCertification(ctx, candidate, types.Certification{Name: "CKA", Issuer: "CNCF"})
	require.NoError(t, err)
	require.NoError(t, e.SaveProfile(ctx, candidate, types.ProfileCompleteness{HasResume: true, FieldsFilledRatio: 0.5}))

	require.NoError(t, e.VerifyExperience(ctx, candidate, ex.ID, true))
	require.NoError(t, e.VerifyCertification(ctx, candidate, cert.ID, true))

	f, err := e.GetFactors(ctx, candidate)
	require.NoError(t, err)
	require.Len(t, f.Education, 1)
	assert.True(t, f.Experience[0].Verified)
	assert.True(t, f.Certifications[0].Verified)
	assert.True(t, f.Profile.HasResume)

	full, err := e.RecomputeNow(ctx, candidate)
	require.NoError(t, err)

	require.NoError(t, e.DeleteEducation(ctx, candidate, ed.ID))
	require.NoError(t, e.DeleteExperience(ctx, candidate, ex.ID))
	require.NoError(t, e.DeleteCertification(ctx, candidate, cert.ID))

	reduced, err := e.RecomputeNow(ctx, candidate)
	require.NoError(t, err)
	assert.Less(t, reduced.Overall, full.Overall)
}

func TestEngine_InvalidMutationRejected(t *testing.T) {
	ctx := context.Background()
	e, store := newTestEngine(t, nil)
	candidate := uuid.New()

	_, err := e.AddSkill(ctx, candidate, types.Skill{Name: "Go", Level: 42})
	var fve *types.FactorValidationError
	require.True(t, errors.As(err, &fve))

	f, _, err := store.LoadFactors(ctx, candidate)
	require.NoError(t, err)
	assert.Nil(t, f, "rejected mutations never reach storage")

	err = e.ReplaceFactors(ctx, &types.CandidateFactors{
		CandidateID: candidate,
		Education:   []types.Education{{Degree: "", InstitutionTier: 1}},
	})
	assert.Error(t, err)
}

func TestEngine_MissingEntryNotFound(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, nil)

	err := e.DeleteSkill(ctx, uuid.New(), uuid.New())
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "skill", nf.Resource)

	_, err = e.RecomputeNow(ctx, uuid.New())
	assert.True(t, errors.As(err, &nf))
}

func TestEngine_EnqueueFailureDoesNotFailMutation(t *testing.T) {
	ctx := context.Background()
	e, store := newTestEngine(t, brokenQueue{recompute.NewMemoryQueue()})
	candidate := uuid.New()

	_, err := e.AddSkill(ctx, candidate, types.Skill{Name: "Go", Level: 5})
	require.NoError(t, err)

	// The durable dirty flag lets the sweep recover the lost event.
	result, err := e.Coordinator().SweepInline(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Candidates)

	score, err := store.GetRankScore(ctx, candidate)
	require.NoError(t, err)
	require.NotNil(t, score)
}

func TestEngine_WeightChangeSweepConverges(t *testing.T) {
	ctx := context.Background()
	e, store := newTestEngine(t, nil)

	var candidates []uuid.UUID
	for i := 0; i < 25; i++ {
		id := uuid.New()
		_, err := e.AddSkill(ctx, id, types.Skill{Name: fmt.Sprintf("skill-%d", i%7), Level: 1 + i%10, Verified: i%2 == 0})
		require.NoError(t, err)
		candidates = append(candidates, id)
	}
	_, err := e.Coordinator().SweepInline(ctx)
	require.NoError(t, err)

	ws, err := e.Weights().Propose(ctx, types.WeightProposal{Skills: 60, Experience: 10, Education: 10, Certifications: 10, ProfileCompleteness: 10})
	require.NoError(t, err)
	require.Equal(t, int64(2), ws.Version)

	for _, id := range candidates {
		view, err := e.GetRankScore(ctx, id)
		require.NoError(t, err)
		assert.True(t, view.Stale)
	}

	_, err = e.Coordinator().SweepInline(ctx)
	require.NoError(t, err)

	for _, id := range candidates {
		score, err := store.GetRankScore(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, ws.Version, score.WeightSetVersion)
	}
	remaining, err := store.ListDirtyCandidates(ctx, ws.Version, uuid.Nil, 0)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestEngine_PositionRuleDeniesUntilPoolLoaded(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, nil)
	strong, weak, job := uuid.New(), uuid.New(), uuid.New()

	_, err := e.AddSkill(ctx, strong, types.Skill{Name: "Go", Level: 9, ExperienceYears: 8, Verified: true})
	require.NoError(t, err)
	require.NoError(t, e.RegisterCandidate(ctx, weak))
	for _, id := range []uuid.UUID{strong, weak} {
		score, err := e.RecomputeNow(ctx, id)
		require.NoError(t, err)
		assert.False(t, score.IsClassified(), "no pool snapshot loaded yet")
	}

	_, err = e.Gate().SetRule(ctx, job, types.EligibilityRuleInput{
		Unit:               types.ThresholdPosition,
		MinRankRequirement: 1,
		RestrictionEnabled: true,
	})
	require.NoError(t, err)

	d, err := e.Gate().CanApply(ctx, weak, job)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, types.DecisionUnclassified, d.Code)

	_, err = e.Gate().Apply(ctx, weak, job)
	var denied *eligibility.DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, types.DecisionUnclassified, denied.Decision.Code)

	_, err = e.Coordinator().RefreshPool(ctx)
	require.NoError(t, err)

	d, err = e.Gate().CanApply(ctx, weak, job)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, types.DecisionBelowThreshold, d.Code)

	d, err = e.Gate().CanApply(ctx, strong, job)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	rule, err := e.Gate().GetRule(ctx, job)
	require.NoError(t, err)
	assert.False(t, rule.Locked, "denied applications never lock the rule")
}
