// Package eligibility gates job applications on candidates' rank scores.
package eligibility

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonathan/rank-engine/internal/types"
)

// Store is the persistence the gate needs.
type Store interface {
	GetEligibilityRule(ctx context.Context, jobID uuid.UUID) (*types.JobEligibilityRule, error)
	// SaveEligibilityRule upserts a rule. Returns false if the existing rule is locked.
	SaveEligibilityRule(ctx context.Context, rule types.JobEligibilityRule) (bool, error)
	GetRankScore(ctx context.Context, candidateID uuid.UUID) (*types.RankScore, error)
	ListApplications(ctx context.Context, jobID uuid.UUID) ([]types.Application, error)
	// WithApplicationTx runs fn in one transaction; nothing is written if fn fails.
	WithApplicationTx(ctx context.Context, fn func(tx ApplicationTx) error) error
}

// ApplicationTx is the transactional view used to record an application.
type ApplicationTx interface {
	// GetEligibilityRule reads the rule and holds it against concurrent changes.
	GetEligibilityRule(ctx context.Context, jobID uuid.UUID) (*types.JobEligibilityRule, error)
	// GetRankScore reads the score and holds it against concurrent writes.
	GetRankScore(ctx context.Context, candidateID uuid.UUID) (*types.RankScore, error)
	// InsertApplication records app. Returns false if the candidate already applied.
	InsertApplication(ctx context.Context, app *types.Application) (bool, error)
	LockEligibilityRule(ctx context.Context, jobID uuid.UUID) error
}

// StalenessChecker reports whether a stored score lags its inputs.
type StalenessChecker interface {
	IsStale(ctx context.Context, score *types.RankScore) (bool, error)
}

// Gate evaluates and enforces job eligibility rules.
type Gate struct {
	store     Store
	staleness StalenessChecker
	logger    *slog.Logger
	metrics   *Metrics
}

// NewGate creates a gate. staleness and metrics may be nil.
func NewGate(store Store, staleness StalenessChecker, logger *slog.Logger, metrics *Metrics) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{store: store, staleness: staleness, logger: logger, metrics: metrics}
}

// CanApply is the advisory check used to render the apply action.
// It reads the current score once and never blocks on recomputation.
func (g *Gate) CanApply(ctx context.Context, candidateID, jobID uuid.UUID) (types.Decision, error) {
	rule, err := g.store.GetEligibilityRule(ctx, jobID)
	if err != nil {
		return types.Decision{}, fmt.Errorf("failed to load eligibility rule: %w", err)
	}
	score, err := g.store.GetRankScore(ctx, candidateID)
	if err != nil {
		return types.Decision{}, fmt.Errorf("failed to load rank score: %w", err)
	}

	d := Evaluate(rule, score)
	g.markStale(ctx, &d, score)
	g.record(d, "advisory", candidateID, jobID)
	return d, nil
}

// Apply re-evaluates eligibility and records the application in the same transaction.
// The first accepted application locks the job's rule. A refusal returns *DeniedError.
func (g *Gate) Apply(ctx context.Context, candidateID, jobID uuid.UUID) (*types.Application, error) {
	var (
		app      *types.Application
		decision types.Decision
	)

	err := g.store.WithApplicationTx(ctx, func(tx ApplicationTx) error {
		rule, err := tx.GetEligibilityRule(ctx, jobID)
		if err != nil {
			return fmt.Errorf("failed to load eligibility rule: %w", err)
		}
		score, err := tx.GetRankScore(ctx, candidateID)
		if err != nil {
			return fmt.Errorf("failed to load rank score: %w", err)
		}

		decision = Evaluate(rule, score)
		g.markStale(ctx, &decision, score)
		if !decision.Allowed {
			return &DeniedError{Decision: decision}
		}

		a := &types.Application{
			JobID:            jobID,
			CandidateID:      candidateID,
			Overall:          decision.Overall,
			RankPosition:     decision.RankPosition,
			WeightSetVersion: decision.WeightSetVersion,
			DecisionCode:     decision.Code,
		}
		inserted, err := tx.InsertApplication(ctx, a)
		if err != nil {
			return fmt.Errorf("failed to insert application: %w", err)
		}
		if !inserted {
			return &AlreadyAppliedError{JobID: jobID, CandidateID: candidateID}
		}
		if rule != nil {
			if err := tx.LockEligibilityRule(ctx, jobID); err != nil {
				return fmt.Errorf("failed to lock eligibility rule: %w", err)
			}
		}
		app = a
		return nil
	})

	if decision.Code != "" {
		g.record(decision, "enforced", candidateID, jobID)
	}
	if err != nil {
		return nil, err
	}
	return app, nil
}

// GetRule returns the job's rule, or nil if the job has none.
func (g *Gate) GetRule(ctx context.Context, jobID uuid.UUID) (*types.JobEligibilityRule, error) {
	rule, err := g.store.GetEligibilityRule(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to load eligibility rule: %w", err)
	}
	return rule, nil
}

// SetRule creates or replaces the job's rule unless applications have locked it.
func (g *Gate) SetRule(ctx context.Context, jobID uuid.UUID, in types.EligibilityRuleInput) (*types.JobEligibilityRule, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	rule := types.JobEligibilityRule{
		JobID:              jobID,
		Unit:               in.Unit,
		MinRankRequirement: in.MinRankRequirement,
		RestrictionEnabled: in.RestrictionEnabled,
	}
	if !validRule(&rule) {
		return nil, &types.FactorValidationError{Errors: []types.FieldError{{
			Field:   "min_rank_requirement",
			Message: ruleBoundsMessage(rule.Unit),
		}}}
	}

	saved, err := g.store.SaveEligibilityRule(ctx, rule)
	if err != nil {
		return nil, fmt.Errorf("failed to save eligibility rule: %w", err)
	}
	if !saved {
		return nil, &RuleLockedError{JobID: jobID}
	}

	g.logger.Info("eligibility rule updated",
		"job_id", jobID,
		"unit", rule.Unit,
		"min_rank_requirement", rule.MinRankRequirement,
		"restriction_enabled", rule.RestrictionEnabled)
	return g.store.GetEligibilityRule(ctx, jobID)
}

// ListApplications returns the job's accepted applications.
func (g *Gate) ListApplications(ctx context.Context, jobID uuid.UUID) ([]types.Application, error) {
	apps, err := g.store.ListApplications(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return apps, nil
}

func ruleBoundsMessage(unit types.ThresholdUnit) string {
	if unit == types.ThresholdPosition {
		return "must be a whole number of at least 1"
	}
	return "must be between 0 and 100"
}

// markStale flags decisions taken against a score that lags its inputs.
// Staleness never changes the outcome.
func (g *Gate) markStale(ctx context.Context, d *types.Decision, score *types.RankScore) {
	if g.staleness == nil || score == nil {
		return
	}
	stale, err := g.staleness.IsStale(ctx, score)
	if err != nil {
		g.logger.Warn("failed to check score staleness", "candidate_id", score.CandidateID, "error", err)
		return
	}
	d.Stale = stale
}

func (g *Gate) record(d types.Decision, mode string, candidateID, jobID uuid.UUID) {
	if g.metrics != nil {
		g.metrics.IncDecision(string(d.Code), mode)
	}
	level := slog.LevelDebug
	if d.Stale {
		level = slog.LevelWarn
	}
	g.logger.Log(context.Background(), level, "eligibility decision",
		"candidate_id", candidateID,
		"job_id", jobID,
		"mode", mode,
		"allowed", d.Allowed,
		"code", d.Code,
		"stale", d.Stale)
}
