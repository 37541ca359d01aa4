package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/rank-engine/internal/ranking"
	"github.com/jonathan/rank-engine/internal/types"
)

// SaveRankScore stores score, computed from the factors at sourceSeq, and clears the
// candidate's dirty flag if no factor write landed after sourceSeq. Both happen in one
// transaction. Stored scores are ordered by (source_seq, weight_set_version,
// computed_at); a score that does not sort after the stored one is rejected, so a
// worker holding older factors cannot overwrite a newer result whatever its clock
// says. Returns false if the score was superseded.
func (db *DB) SaveRankScore(ctx context.Context, score types.RankScore, sourceSeq int64) (bool, error) {
	breakdown, err := json.Marshal(score.Breakdown)
	if err != nil {
		return false, fmt.Errorf("failed to marshal breakdown: %w", err)
	}
	subScores, err := json.Marshal(score.SubScores)
	if err != nil {
		return false, fmt.Errorf("failed to marshal sub scores: %w", err)
	}

	saved := false
	err = db.withTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`DELETE FROM candidate_dirty WHERE candidate_id = $1 AND seq <= $2`,
			score.CandidateID, sourceSeq,
		)
		if err != nil {
			return fmt.Errorf("failed to clear dirty flag: %w", err)
		}

		tag, err := tx.Exec(ctx,
			`INSERT INTO rank_scores (candidate_id, overall, breakdown, sub_scores, tier, percentile,
			     rank_position, pool_size, weight_set_version, notes, computed_at, source_seq)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			 ON CONFLICT (candidate_id) DO UPDATE SET
			     overall = EXCLUDED.overall,
			     breakdown = EXCLUDED.breakdown,
			     sub_scores = EXCLUDED.sub_scores,
			     tier = EXCLUDED.tier,
			     percentile = EXCLUDED.percentile,
			     rank_position = EXCLUDED.rank_position,
			     pool_size = EXCLUDED.pool_size,
			     weight_set_version = EXCLUDED.weight_set_version,
			     notes = EXCLUDED.notes,
			     computed_at = EXCLUDED.computed_at,
			     source_seq = EXCLUDED.source_seq
			 WHERE (rank_scores.source_seq, rank_scores.weight_set_version, rank_scores.computed_at)
			    <= (EXCLUDED.source_seq, EXCLUDED.weight_set_version, EXCLUDED.computed_at)`,
			score.CandidateID, score.Overall, breakdown, subScores, string(score.Tier), score.Percentile,
			score.RankPosition, score.PoolSize, score.WeightSetVersion, score.Notes, score.ComputedAt, sourceSeq,
		)
		if err != nil {
			return fmt.Errorf("failed to save rank score: %w", err)
		}
		saved = tag.RowsAffected() > 0
		return nil
	})
	return saved, err
}

// GetRankScore returns the stored score, or nil if none exists.
func (db *DB) GetRankScore(ctx context.Context, candidateID uuid.UUID) (*types.RankScore, error) {
	return getRankScore(ctx, db.pool, candidateID, false)
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// getRankScore reads one score. With forShare the row stays locked against
// SaveRankScore and UpdateClassification until the transaction ends.
func getRankScore(ctx context.Context, q querier, candidateID uuid.UUID, forShare bool) (*types.RankScore, error) {
	sql := `SELECT candidate_id, overall, breakdown, sub_scores, tier, percentile,
		        rank_position, pool_size, weight_set_version, notes, computed_at
		 FROM rank_scores WHERE candidate_id = $1`
	if forShare {
		sql += ` FOR SHARE`
	}

	var (
		s                    types.RankScore
		tier                 string
		breakdown, subScores []byte
	)
	err := q.QueryRow(ctx, sql, candidateID).Scan(&s.CandidateID, &s.Overall, &breakdown, &subScores, &tier, &s.Percentile,
		&s.RankPosition, &s.PoolSize, &s.WeightSetVersion, &s.Notes, &s.ComputedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rank score: %w", err)
	}

	s.Tier = types.Tier(tier)
	if err := json.Unmarshal(breakdown, &s.Breakdown); err != nil {
		return nil, fmt.Errorf("failed to unmarshal breakdown: %w", err)
	}
	if err := json.Unmarshal(subScores, &s.SubScores); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sub scores: %w", err)
	}
	return &s, nil
}

// IsCandidateDirty reports whether the candidate has a pending dirty flag.
func (db *DB) IsCandidateDirty(ctx context.Context, candidateID uuid.UUID) (bool, error) {
	var dirty bool
	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM candidate_dirty WHERE candidate_id = $1)`, candidateID,
	).Scan(&dirty)
	if err != nil {
		return false, fmt.Errorf("failed to check dirty flag: %w", err)
	}
	return dirty, nil
}

// CountDirtyCandidates returns how many candidates await a recompute.
func (db *DB) CountDirtyCandidates(ctx context.Context) (int, error) {
	var n int
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM candidate_dirty`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count dirty candidates: %w", err)
	}
	return n, nil
}

// ListDirtyCandidates pages through candidates, ordered by ID after the cursor, that
// are flagged dirty, have no score, or were scored under an older weight version.
// A limit of zero or less returns every match.
func (db *DB) ListDirtyCandidates(ctx context.Context, activeVersion int64, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	var lim any
	if limit > 0 {
		lim = limit
	}

	rows, err := db.pool.Query(ctx,
		`SELECT c.id
		 FROM candidates c
		 LEFT JOIN candidate_dirty d ON d.candidate_id = c.id
		 LEFT JOIN rank_scores r ON r.candidate_id = c.id
		 WHERE c.id > $2
		   AND (d.candidate_id IS NOT NULL OR r.candidate_id IS NULL OR r.weight_set_version < $1)
		 ORDER BY c.id
		 LIMIT $3`,
		activeVersion, after, lim,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list dirty candidates: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan candidate id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// PoolScores returns every candidate's stored overall score.
func (db *DB) PoolScores(ctx context.Context) ([]ranking.PoolEntry, error) {
	rows, err := db.pool.Query(ctx, `SELECT candidate_id, overall FROM rank_scores`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pool scores: %w", err)
	}
	defer rows.Close()

	var entries []ranking.PoolEntry
	for rows.Next() {
		var e ranking.PoolEntry
		if err := rows.Scan(&e.CandidateID, &e.Overall); err != nil {
			return nil, fmt.Errorf("failed to scan pool score: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// UpdateClassification writes a batch-refreshed standing if the stored overall still
// equals the overall it was computed from. Returns false if the score moved on.
func (db *DB) UpdateClassification(ctx context.Context, candidateID uuid.UUID, overall float64, st ranking.Standing) (bool, error) {
	tag, err := db.pool.Exec(ctx,
		`UPDATE rank_scores
		 SET rank_position = $3, percentile = $4, pool_size = $5
		 WHERE candidate_id = $1 AND overall = ROUND($2::numeric, 1)`,
		candidateID, overall, st.RankPosition, st.Percentile, st.PoolSize,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update classification: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
