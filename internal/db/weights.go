package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jonathan/rank-engine/internal/types"
)

const weightSetColumns = `version, skills, experience, education, certifications,
	profile_completeness, effective_at, created_by, note`

func scanWeightSet(row pgx.Row) (*types.WeightSet, error) {
	var ws types.WeightSet
	err := row.Scan(&ws.Version, &ws.Skills, &ws.Experience, &ws.Education, &ws.Certifications,
		&ws.ProfileCompleteness, &ws.EffectiveAt, &ws.CreatedBy, &ws.Note)
	if err != nil {
		return nil, err
	}
	return &ws, nil
}

// ActiveWeightSet returns the highest weight set version, or nil if none exists.
func (db *DB) ActiveWeightSet(ctx context.Context) (*types.WeightSet, error) {
	ws, err := scanWeightSet(db.pool.QueryRow(ctx,
		`SELECT `+weightSetColumns+` FROM weight_sets ORDER BY version DESC LIMIT 1`))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active weight set: %w", err)
	}
	return ws, nil
}

// AppendWeightSet stores ws as the next version. Versions are assigned under a
// table lock so concurrent admins never collide.
func (db *DB) AppendWeightSet(ctx context.Context, ws types.WeightSet) (*types.WeightSet, error) {
	var out *types.WeightSet
	err := db.withTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `LOCK TABLE weight_sets IN EXCLUSIVE MODE`); err != nil {
			return fmt.Errorf("failed to lock weight sets: %w", err)
		}

		var err error
		out, err = scanWeightSet(tx.QueryRow(ctx,
			`INSERT INTO weight_sets (version, skills, experience, education, certifications,
			     profile_completeness, created_by, note)
			 SELECT COALESCE(MAX(version), 0) + 1, $1, $2, $3, $4, $5, $6, $7 FROM weight_sets
			 RETURNING `+weightSetColumns,
			ws.Skills, ws.Experience, ws.Education, ws.Certifications,
			ws.ProfileCompleteness, ws.CreatedBy, ws.Note,
		))
		if err != nil {
			return fmt.Errorf("failed to append weight set: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListWeightSets returns up to limit versions, newest first.
func (db *DB) ListWeightSets(ctx context.Context, limit int) ([]types.WeightSet, error) {
	var lim any
	if limit > 0 {
		lim = limit
	}

	rows, err := db.pool.Query(ctx,
		`SELECT `+weightSetColumns+` FROM weight_sets ORDER BY version DESC LIMIT $1`, lim)
	if err != nil {
		return nil, fmt.Errorf("failed to list weight sets: %w", err)
	}
	defer rows.Close()

	var out []types.WeightSet
	for rows.Next() {
		ws, err := scanWeightSet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan weight set: %w", err)
		}
		out = append(out, *ws)
	}
	return out, rows.Err()
}
