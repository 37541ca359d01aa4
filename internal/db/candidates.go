package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/rank-engine/internal/types"
)

// -----------------------------------------------------------------------------
// Dirty tracking
// -----------------------------------------------------------------------------

// markDirty bumps the candidate's factor sequence and flags it dirty at that
// sequence. It must run in the same transaction as the factor write so a
// recompute can never miss it.
func markDirty(ctx context.Context, tx pgx.Tx, candidateID uuid.UUID) error {
	var seq int64
	err := tx.QueryRow(ctx,
		`UPDATE candidates
		 SET factor_seq = nextval('candidate_dirty_seq'), updated_at = NOW()
		 WHERE id = $1
		 RETURNING factor_seq`,
		candidateID,
	).Scan(&seq)
	if err != nil {
		return fmt.Errorf("failed to touch candidate: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO candidate_dirty (candidate_id, seq)
		 VALUES ($1, $2)
		 ON CONFLICT (candidate_id) DO UPDATE SET seq = EXCLUDED.seq`,
		candidateID, seq,
	)
	if err != nil {
		return fmt.Errorf("failed to mark candidate dirty: %w", err)
	}
	return nil
}

// ensureCandidate inserts the candidate row if missing. Returns true if it was created.
func ensureCandidate(ctx context.Context, tx pgx.Tx, candidateID uuid.UUID) (bool, error) {
	var id uuid.UUID
	err := tx.QueryRow(ctx,
		`INSERT INTO candidates (id) VALUES ($1)
		 ON CONFLICT (id) DO NOTHING
		 RETURNING id`,
		candidateID,
	).Scan(&id)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to ensure candidate: %w", err)
	}
	return true, nil
}

// mutate runs fn for a candidate that is created if missing, then marks it dirty.
func (db *DB) mutate(ctx context.Context, candidateID uuid.UUID, fn func(tx pgx.Tx) error) error {
	return db.withTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := ensureCandidate(ctx, tx, candidateID); err != nil {
			return err
		}
		if err := fn(tx); err != nil {
			return err
		}
		return markDirty(ctx, tx, candidateID)
	})
}

// mutateRow runs a single-row statement and marks the candidate dirty only if a row changed.
func (db *DB) mutateRow(ctx context.Context, candidateID uuid.UUID, what, sql string, args ...any) (bool, error) {
	changed := false
	err := db.withTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			return fmt.Errorf("failed to %s: %w", what, err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		changed = true
		return markDirty(ctx, tx, candidateID)
	})
	return changed, err
}

// -----------------------------------------------------------------------------
// Candidate Methods
// -----------------------------------------------------------------------------

// EnsureCandidate registers a candidate with no factors. A new candidate is dirty
// so it gets a first score.
func (db *DB) EnsureCandidate(ctx context.Context, id uuid.UUID) error {
	return db.withTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		created, err := ensureCandidate(ctx, tx, id)
		if err != nil || !created {
			return err
		}
		return markDirty(ctx, tx, id)
	})
}

// LoadFactors reads the candidate's full factor state and its factor sequence in one
// consistent snapshot. Returns nil if the candidate is unknown.
func (db *DB) LoadFactors(ctx context.Context, id uuid.UUID) (*types.CandidateFactors, int64, error) {
	var (
		factors *types.CandidateFactors
		seq     int64
	)
	opts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	err := db.withTx(ctx, opts, func(tx pgx.Tx) error {
		var updatedAt time.Time
		err := tx.QueryRow(ctx,
			`SELECT updated_at, factor_seq FROM candidates WHERE id = $1`, id,
		).Scan(&updatedAt, &seq)
		if err == pgx.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to get candidate: %w", err)
		}

		f := &types.CandidateFactors{CandidateID: id, UpdatedAt: updatedAt}
		if f.Skills, err = loadSkills(ctx, tx, id); err != nil {
			return err
		}
		if f.Education, err = loadEducation(ctx, tx, id); err != nil {
			return err
		}
		if f.Experience, err = loadExperience(ctx, tx, id); err != nil {
			return err
		}
		if f.Certifications, err = loadCertifications(ctx, tx, id); err != nil {
			return err
		}
		if f.Profile, err = loadProfile(ctx, tx, id); err != nil {
			return err
		}
		factors = f
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return factors, seq, nil
}

func loadSkills(ctx context.Context, tx pgx.Tx, candidateID uuid.UUID) ([]types.Skill, error) {
	rows, err := tx.Query(ctx,
		`SELECT id, name, level, experience_years, verified
		 FROM candidate_skills WHERE candidate_id = $1 ORDER BY ordinal`, candidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list skills: %w", err)
	}
	defer rows.Close()

	var out []types.Skill
	for rows.Next() {
		var s types.Skill
		if err := rows.Scan(&s.ID, &s.Name, &s.Level, &s.ExperienceYears, &s.Verified); err != nil {
			return nil, fmt.Errorf("failed to scan skill: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func loadEducation(ctx context.Context, tx pgx.Tx, candidateID uuid.UUID) ([]types.Education, error) {
	rows, err := tx.Query(ctx,
		`SELECT id, degree, field, institution, institution_tier, gpa, is_current
		 FROM candidate_education WHERE candidate_id = $1 ORDER BY ordinal`, candidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list education: %w", err)
	}
	defer rows.Close()

	var out []types.Education
	for rows.Next() {
		var e types.Education
		if err := rows.Scan(&e.ID, &e.Degree, &e.Field, &e.Institution, &e.InstitutionTier, &e.GPA, &e.IsCurrent); err != nil {
			return nil, fmt.Errorf("failed to scan education: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func loadExperience(ctx context.Context, tx pgx.Tx, candidateID uuid.UUID) ([]types.Experience, error) {
	rows, err := tx.Query(ctx,
		`SELECT id, role, company, start_date, duration_months, is_current, verified
		 FROM candidate_experience WHERE candidate_id = $1 ORDER BY ordinal`, candidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list experience: %w", err)
	}
	defer rows.Close()

	var out []types.Experience
	for rows.Next() {
		var e types.Experience
		if err := rows.Scan(&e.ID, &e.Role, &e.Company, &e.StartDate, &e.DurationMonths, &e.IsCurrent, &e.Verified); err != nil {
			return nil, fmt.Errorf("failed to scan experience: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func loadCertifications(ctx context.Context, tx pgx.Tx, candidateID uuid.UUID) ([]types.Certification, error) {
	rows, err := tx.Query(ctx,
		`SELECT id, name, issuer, verified, expiry
		 FROM candidate_certifications WHERE candidate_id = $1 ORDER BY ordinal`, candidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list certifications: %w", err)
	}
	defer rows.Close()

	var out []types.Certification
	for rows.Next() {
		var c types.Certification
		if err := rows.Scan(&c.ID, &c.Name, &c.Issuer, &c.Verified, &c.Expiry); err != nil {
			return nil, fmt.Errorf("failed to scan certification: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func loadProfile(ctx context.Context, tx pgx.Tx, candidateID uuid.UUID) (types.ProfileCompleteness, error) {
	var p types.ProfileCompleteness
	err := tx.QueryRow(ctx,
		`SELECT has_resume, has_photo, bio_length, fields_filled_ratio
		 FROM candidate_profile WHERE candidate_id = $1`, candidateID,
	).Scan(&p.HasResume, &p.HasPhoto, &p.BioLength, &p.FieldsFilledRatio)
	if err == pgx.ErrNoRows {
		return types.ProfileCompleteness{}, nil
	}
	if err != nil {
		return p, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

// ReplaceFactors overwrites the candidate's full factor state in one transaction.
// Entries without an ID are assigned one.
func (db *DB) ReplaceFactors(ctx context.Context, f *types.CandidateFactors) error {
	return db.mutate(ctx, f.CandidateID, func(tx pgx.Tx) error {
		for _, table := range []string{"candidate_skills", "candidate_education", "candidate_experience", "candidate_certifications"} {
			if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE candidate_id = $1`, f.CandidateID); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		for i := range f.Skills {
			s := f.Skills[i]
			if err := insertSkill(ctx, tx, f.CandidateID, &s); err != nil {
				return err
			}
		}
		for i := range f.Education {
			e := f.Education[i]
			if err := insertEducation(ctx, tx, f.CandidateID, &e); err != nil {
				return err
			}
		}
		for i := range f.Experience {
			e := f.Experience[i]
			if err := insertExperience(ctx, tx, f.CandidateID, &e); err != nil {
				return err
			}
		}
		for i := range f.Certifications {
			c := f.Certifications[i]
			if err := insertCertification(ctx, tx, f.CandidateID, &c); err != nil {
				return err
			}
		}
		return upsertProfile(ctx, tx, f.CandidateID, f.Profile)
	})
}

func newID(id uuid.UUID) uuid.UUID {
	if id == uuid.Nil {
		return uuid.New()
	}
	return id
}

func insertSkill(ctx context.Context, tx pgx.Tx, candidateID uuid.UUID, s *types.Skill) error {
	s.ID = newID(s.ID)
	_, err := tx.Exec(ctx,
		`INSERT INTO candidate_skills (id, candidate_id, name, level, experience_years, verified)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, candidateID, s.Name, s.Level, s.ExperienceYears, s.Verified,
	)
	if err != nil {
		return fmt.Errorf("failed to insert skill: %w", err)
	}
	return nil
}

func insertEducation(ctx context.Context, tx pgx.Tx, candidateID uuid.UUID, e *types.Education) error {
	e.ID = newID(e.ID)
	_, err := tx.Exec(ctx,
		`INSERT INTO candidate_education (id, candidate_id, degree, field, institution, institution_tier, gpa, is_current)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, candidateID, e.Degree, e.Field, e.Institution, e.InstitutionTier, e.GPA, e.IsCurrent,
	)
	if err != nil {
		return fmt.Errorf("failed to insert education: %w", err)
	}
	return nil
}

func insertExperience(ctx context.Context, tx pgx.Tx, candidateID uuid.UUID, e *types.Experience) error {
	e.ID = newID(e.ID)
	_, err := tx.Exec(ctx,
		`INSERT INTO candidate_experience (id, candidate_id, role, company, start_date, duration_months, is_current, verified)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, candidateID, e.Role, e.Company, e.StartDate, e.DurationMonths, e.IsCurrent, e.Verified,
	)
	if err != nil {
		return fmt.Errorf("failed to insert experience: %w", err)
	}
	return nil
}

func insertCertification(ctx context.Context, tx pgx.Tx, candidateID uuid.UUID, c *types.Certification) error {
	c.ID = newID(c.ID)
	_, err := tx.Exec(ctx,
		`INSERT INTO candidate_certifications (id, candidate_id, name, issuer, verified, expiry)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, candidateID, c.Name, c.Issuer, c.Verified, c.Expiry,
	)
	if err != nil {
		return fmt.Errorf("failed to insert certification: %w", err)
	}
	return nil
}

func upsertProfile(ctx context.Context, tx pgx.Tx, candidateID uuid.UUID, p types.ProfileCompleteness) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO candidate_profile (candidate_id, has_resume, has_photo, bio_length, fields_filled_ratio)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (candidate_id) DO UPDATE SET
		     has_resume = $2,
		     has_photo = $3,
		     bio_length = $4,
		     fields_filled_ratio = $5`,
		candidateID, p.HasResume, p.HasPhoto, p.BioLength, p.FieldsFilledRatio,
	)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Factor Methods
// -----------------------------------------------------------------------------

// AddSkill appends a skill and assigns its ID.
func (db *DB) AddSkill(ctx context.Context, candidateID uuid.UUID, s *types.Skill) error {
	s.ID = uuid.Nil
	return db.mutate(ctx, candidateID, func(tx pgx.Tx) error {
		return insertSkill(ctx, tx, candidateID, s)
	})
}

// DeleteSkill removes a skill. Returns false if it does not exist.
func (db *DB) DeleteSkill(ctx context.Context, candidateID, skillID uuid.UUID) (bool, error) {
	return db.mutateRow(ctx, candidateID, "delete skill",
		`DELETE FROM candidate_skills WHERE id = $1 AND candidate_id = $2`, skillID, candidateID)
}

// SetSkillVerified sets a skill's verification flag.
func (db *DB) SetSkillVerified(ctx context.Context, candidateID, skillID uuid.UUID, verified bool) (bool, error) {
	return db.mutateRow(ctx, candidateID, "verify skill",
		`UPDATE candidate_skills SET verified = $3 WHERE id = $1 AND candidate_id = $2`, skillID, candidateID, verified)
}

// AddEducation appends an education entry and assigns its ID.
func (db *DB) AddEducation(ctx context.Context, candidateID uuid.UUID, e *types.Education) error {
	e.ID = uuid.Nil
	return db.mutate(ctx, candidateID, func(tx pgx.Tx) error {
		return insertEducation(ctx, tx, candidateID, e)
	})
}

// DeleteEducation removes an education entry.
func (db *DB) DeleteEducation(ctx context.Context, candidateID, educationID uuid.UUID) (bool, error) {
	return db.mutateRow(ctx, candidateID, "delete education",
		`DELETE FROM candidate_education WHERE id = $1 AND candidate_id = $2`, educationID, candidateID)
}

// AddExperience appends an experience entry and assigns its ID.
func (db *DB) AddExperience(ctx context.Context, candidateID uuid.UUID, e *types.Experience) error {
	e.ID = uuid.Nil
	return db.mutate(ctx, candidateID, func(tx pgx.Tx) error {
		return insertExperience(ctx, tx, candidateID, e)
	})
}

// DeleteExperience removes an experience entry.
func (db *DB) DeleteExperience(ctx context.Context, candidateID, experienceID uuid.UUID) (bool, error) {
	return db.mutateRow(ctx, candidateID, "delete experience",
		`DELETE FROM candidate_experience WHERE id = $1 AND candidate_id = $2`, experienceID, candidateID)
}

// SetExperienceVerified sets an experience entry's verification flag.
func (db *DB) SetExperienceVerified(ctx context.Context, candidateID, experienceID uuid.UUID, verified bool) (bool, error) {
	return db.mutateRow(ctx, candidateID, "verify experience",
		`UPDATE candidate_experience SET verified = $3 WHERE id = $1 AND candidate_id = $2`, experienceID, candidateID, verified)
}

// AddCertification appends a certification and assigns its ID.
func (db *DB) AddCertification(ctx context.Context, candidateID uuid.UUID, c *types.Certification) error {
	c.ID = uuid.Nil
	return db.mutate(ctx, candidateID, func(tx pgx.Tx) error {
		return insertCertification(ctx, tx, candidateID, c)
	})
}

// DeleteCertification removes a certification.
func (db *DB) DeleteCertification(ctx context.Context, candidateID, certID uuid.UUID) (bool, error) {
	return db.mutateRow(ctx, candidateID, "delete certification",
		`DELETE FROM candidate_certifications WHERE id = $1 AND candidate_id = $2`, certID, candidateID)
}

// SetCertificationVerified sets a certification's verification flag.
func (db *DB) SetCertificationVerified(ctx context.Context, candidateID, certID uuid.UUID, verified bool) (bool, error) {
	return db.mutateRow(ctx, candidateID, "verify certification",
		`UPDATE candidate_certifications SET verified = $3 WHERE id = $1 AND candidate_id = $2`, certID, candidateID, verified)
}

// SaveProfile replaces the candidate's profile completeness flags.
func (db *DB) SaveProfile(ctx context.Context, candidateID uuid.UUID, p types.ProfileCompleteness) error {
	return db.mutate(ctx, candidateID, func(tx pgx.Tx) error {
		return upsertProfile(ctx, tx, candidateID, p)
	})
}
