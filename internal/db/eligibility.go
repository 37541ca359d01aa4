package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/rank-engine/internal/eligibility"
	"github.com/jonathan/rank-engine/internal/types"
)

func getEligibilityRule(ctx context.Context, q querier, jobID uuid.UUID, forUpdate bool) (*types.JobEligibilityRule, error) {
	sql := `SELECT job_id, unit, min_rank_requirement, restriction_enabled, locked, updated_at
		 FROM job_eligibility_rules WHERE job_id = $1`
	if forUpdate {
		sql += ` FOR UPDATE`
	}

	var (
		r    types.JobEligibilityRule
		unit string
	)
	err := q.QueryRow(ctx, sql, jobID).Scan(&r.JobID, &unit, &r.MinRankRequirement, &r.RestrictionEnabled, &r.Locked, &r.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get eligibility rule: %w", err)
	}
	r.Unit = types.ThresholdUnit(unit)
	return &r, nil
}

// GetEligibilityRule returns the job's rule, or nil if none exists.
func (db *DB) GetEligibilityRule(ctx context.Context, jobID uuid.UUID) (*types.JobEligibilityRule, error) {
	return getEligibilityRule(ctx, db.pool, jobID, false)
}

// SaveEligibilityRule upserts a rule. Returns false if the existing rule is locked.
func (db *DB) SaveEligibilityRule(ctx context.Context, rule types.JobEligibilityRule) (bool, error) {
	tag, err := db.pool.Exec(ctx,
		`INSERT INTO job_eligibility_rules (job_id, unit, min_rank_requirement, restriction_enabled)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (job_id) DO UPDATE SET
		     unit = $2,
		     min_rank_requirement = $3,
		     restriction_enabled = $4,
		     updated_at = NOW()
		 WHERE job_eligibility_rules.locked = FALSE`,
		rule.JobID, string(rule.Unit), rule.MinRankRequirement, rule.RestrictionEnabled,
	)
	if err != nil {
		return false, fmt.Errorf("failed to save eligibility rule: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListApplications returns the job's accepted applications, oldest first.
func (db *DB) ListApplications(ctx context.Context, jobID uuid.UUID) ([]types.Application, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, job_id, candidate_id, overall, rank_position, weight_set_version, decision_code, created_at
		 FROM applications WHERE job_id = $1
		 ORDER BY created_at, id`,
		jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	var out []types.Application
	for rows.Next() {
		var (
			a    types.Application
			code string
		)
		if err := rows.Scan(&a.ID, &a.JobID, &a.CandidateID, &a.Overall, &a.RankPosition,
			&a.WeightSetVersion, &code, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		a.DecisionCode = types.DecisionCode(code)
		out = append(out, a)
	}
	return out, rows.Err()
}

// WithApplicationTx runs fn in one transaction. The rule row is locked for update
// and the score row for share when read, so neither a rule update nor a score
// write can interleave with an application decision.
func (db *DB) WithApplicationTx(ctx context.Context, fn func(tx eligibility.ApplicationTx) error) error {
	return db.withTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return fn(&applicationTx{tx: tx})
	})
}

type applicationTx struct {
	tx pgx.Tx
}

func (t *applicationTx) GetEligibilityRule(ctx context.Context, jobID uuid.UUID) (*types.JobEligibilityRule, error) {
	return getEligibilityRule(ctx, t.tx, jobID, true)
}

func (t *applicationTx) GetRankScore(ctx context.Context, candidateID uuid.UUID) (*types.RankScore, error) {
	return getRankScore(ctx, t.tx, candidateID, true)
}

func (t *applicationTx) InsertApplication(ctx context.Context, app *types.Application) (bool, error) {
	id := uuid.New()
	err := t.tx.QueryRow(ctx,
		`INSERT INTO applications (id, job_id, candidate_id, overall, rank_position, weight_set_version, decision_code)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (job_id, candidate_id) DO NOTHING
		 RETURNING created_at`,
		id, app.JobID, app.CandidateID, app.Overall, app.RankPosition, app.WeightSetVersion, string(app.DecisionCode),
	).Scan(&app.CreatedAt)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to insert application: %w", err)
	}
	app.ID = id
	return true, nil
}

func (t *applicationTx) LockEligibilityRule(ctx context.Context, jobID uuid.UUID) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE job_eligibility_rules SET locked = TRUE WHERE job_id = $1 AND locked = FALSE`, jobID)
	if err != nil {
		return fmt.Errorf("failed to lock eligibility rule: %w", err)
	}
	return nil
}
