// Package engine is the entry point of the rank engine: it validates factor mutations,
// persists them, and hands dirty candidates to the recompute coordinator.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonathan/rank-engine/internal/eligibility"
	"github.com/jonathan/rank-engine/internal/recompute"
	"github.com/jonathan/rank-engine/internal/types"
	"github.com/jonathan/rank-engine/internal/weights"
)

// FactorStore persists candidate factors. Every write marks the candidate dirty in
// the same transaction.
type FactorStore interface {
	EnsureCandidate(ctx context.Context, id uuid.UUID) error
	LoadFactors(ctx context.Context, id uuid.UUID) (*types.CandidateFactors, int64, error)
	ReplaceFactors(ctx context.Context, f *types.CandidateFactors) error
	GetRankScore(ctx context.Context, id uuid.UUID) (*types.RankScore, error)

	AddSkill(ctx context.Context, candidateID uuid.UUID, s *types.Skill) error
	DeleteSkill(ctx context.Context, candidateID, skillID uuid.UUID) (bool, error)
	SetSkillVerified(ctx context.Context, candidateID, skillID uuid.UUID, verified bool) (bool, error)

	AddEducation(ctx context.Context, candidateID uuid.UUID, e *types.Education) error
	DeleteEducation(ctx context.Context, candidateID, educationID uuid.UUID) (bool, error)

	AddExperience(ctx context.Context, candidateID uuid.UUID, e *types.Experience) error
	DeleteExperience(ctx context.Context, candidateID, experienceID uuid.UUID) (bool, error)
	SetExperienceVerified(ctx context.Context, candidateID, experienceID uuid.UUID, verified bool) (bool, error)

	AddCertification(ctx context.Context, candidateID uuid.UUID, c *types.Certification) error
	DeleteCertification(ctx context.Context, candidateID, certID uuid.UUID) (bool, error)
	SetCertificationVerified(ctx context.Context, candidateID, certID uuid.UUID, verified bool) (bool, error)

	SaveProfile(ctx context.Context, candidateID uuid.UUID, p types.ProfileCompleteness) error
}

// Engine wires factor storage, weights, recomputation and eligibility together.
type Engine struct {
	store       FactorStore
	weights     *weights.Registry
	coordinator *recompute.Coordinator
	gate        *eligibility.Gate
	logger      *slog.Logger
}

// New creates an engine and subscribes the coordinator to weight changes.
func New(store FactorStore, registry *weights.Registry, coord *recompute.Coordinator, gate *eligibility.Gate, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	registry.OnChange(coord.OnWeightsChanged)
	return &Engine{
		store:       store,
		weights:     registry,
		coordinator: coord,
		gate:        gate,
		logger:      logger,
	}
}

// Weights returns the weight registry.
func (e *Engine) Weights() *weights.Registry { return e.weights }

// Coordinator returns the recompute coordinator.
func (e *Engine) Coordinator() *recompute.Coordinator { return e.coordinator }

// Gate returns the eligibility gate.
func (e *Engine) Gate() *eligibility.Gate { return e.gate }

// ScoreView is a stored rank score with its freshness.
type ScoreView struct {
	Score *types.RankScore `json:"score"`
	Stale bool             `json:"stale"`
	State string           `json:"state"`
}

// GetRankScore returns the candidate's current score. It never waits for a recompute.
func (e *Engine) GetRankScore(ctx context.Context, candidateID uuid.UUID) (*ScoreView, error) {
	score, err := e.store.GetRankScore(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rank score: %w", err)
	}
	if score == nil {
		return nil, nil
	}
	stale, err := e.coordinator.IsStale(ctx, score)
	if err != nil {
		e.logger.Warn("failed to check score staleness", "candidate_id", candidateID, "error", err)
	}
	return &ScoreView{
		Score: score,
		Stale: stale,
		State: e.coordinator.State(candidateID).String(),
	}, nil
}

// GetFactors returns the candidate's full factor state, or nil if unknown.
func (e *Engine) GetFactors(ctx context.Context, candidateID uuid.UUID) (*types.CandidateFactors, error) {
	f, _, err := e.store.LoadFactors(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to load factors: %w", err)
	}
	return f, nil
}

// RegisterCandidate creates a candidate with no factors so that it receives a score.
func (e *Engine) RegisterCandidate(ctx context.Context, candidateID uuid.UUID) error {
	if err := e.store.EnsureCandidate(ctx, candidateID); err != nil {
		return fmt.Errorf("failed to register candidate: %w", err)
	}
	e.notify(ctx, candidateID)
	return nil
}

// ReplaceFactors validates and stores a full factor document.
func (e *Engine) ReplaceFactors(ctx context.Context, f *types.CandidateFactors) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if err := e.store.ReplaceFactors(ctx, f); err != nil {
		return fmt.Errorf("failed to replace factors: %w", err)
	}
	e.notify(ctx, f.CandidateID)
	return nil
}

// RecomputeNow recomputes a candidate synchronously.
func (e *Engine) RecomputeNow(ctx context.Context, candidateID uuid.UUID) (*types.RankScore, error) {
	score, err := e.coordinator.Recompute(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if score == nil {
		f, _, err := e.store.LoadFactors(ctx, candidateID)
		if err != nil {
			return nil, fmt.Errorf("failed to load factors: %w", err)
		}
		if f == nil {
			return nil, &NotFoundError{Resource: "candidate", ID: candidateID}
		}
	}
	return score, nil
}

// notify hands the candidate to the coordinator. The write has already committed and
// the durable dirty flag guarantees a later sweep, so enqueue failures are only logged.
func (e *Engine) notify(ctx context.Context, candidateID uuid.UUID) {
	if err := e.coordinator.MarkDirty(ctx, candidateID); err != nil {
		e.logger.Warn("failed to enqueue recompute, leaving for sweep",
			"candidate_id", candidateID,
			"error", err)
	}
}
