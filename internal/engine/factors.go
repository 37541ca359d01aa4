package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/rank-engine/internal/types"
)

// AddSkill validates and stores a skill.
func (e *Engine) AddSkill(ctx context.Context, candidateID uuid.UUID, s types.Skill) (*types.Skill, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if err := e.store.AddSkill(ctx, candidateID, &s); err != nil {
		return nil, fmt.Errorf("failed to add skill: %w", err)
	}
	e.notify(ctx, candidateID)
	return &s, nil
}

// DeleteSkill removes a skill.
func (e *Engine) DeleteSkill(ctx context.Context, candidateID, skillID uuid.UUID) error {
	return e.applyChange(ctx, candidateID, "skill", skillID, func() (bool, error) {
		return e.store.DeleteSkill(ctx, candidateID, skillID)
	})
}

// VerifySkill sets a skill's verification flag.
func (e *Engine) VerifySkill(ctx context.Context, candidateID, skillID uuid.UUID, verified bool) error {
	return e.applyChange(ctx, candidateID, "skill", skillID, func() (bool, error) {
		return e.store.SetSkillVerified(ctx, candidateID, skillID, verified)
	})
}

// AddEducation validates and stores an education entry.
func (e *Engine) AddEducation(ctx context.Context, candidateID uuid.UUID, ed types.Education) (*types.Education, error) {
	if err := ed.Validate(); err != nil {
		return nil, err
	}
	if err := e.store.AddEducation(ctx, candidateID, &ed); err != nil {
		return nil, fmt.Errorf("failed to add education: %w", err)
	}
	e.notify(ctx, candidateID)
	return &ed, nil
}

// DeleteEducation removes an education entry.
func (e *Engine) DeleteEducation(ctx context.Context, candidateID, educationID uuid.UUID) error {
	return e.applyChange(ctx, candidateID, "education", educationID, func() (bool, error) {
		return e.store.DeleteEducation(ctx, candidateID, educationID)
	})
}

// AddExperience validates and stores an experience entry.
func (e *Engine) AddExperience(ctx context.Context, candidateID uuid.UUID, ex types.Experience) (*types.Experience, error) {
	if err := ex.Validate(); err != nil {
		return nil, err
	}
	if err := e.store.AddExperience(ctx, candidateID, &ex); err != nil {
		return nil, fmt.Errorf("failed to add experience: %w", err)
	}
	e.notify(ctx, candidateID)
	return &ex, nil
}

// DeleteExperience removes an experience entry.
func (e *Engine) DeleteExperience(ctx context.Context, candidateID, experienceID uuid.UUID) error {
	return e.applyChange(ctx, candidateID, "experience", experienceID, func() (bool, error) {
		return e.store.DeleteExperience(ctx, candidateID, experienceID)
	})
}

// VerifyExperience sets an experience entry's verification flag.
func (e *Engine) VerifyExperience(ctx context.Context, candidateID, experienceID uuid.UUID, verified bool) error {
	return e.applyChange(ctx, candidateID, "experience", experienceID, func() (bool, error) {
		return e.store.SetExperienceVerified(ctx, candidateID, experienceID, verified)
	})
}

// AddCertification validates and stores a certification.
func (e *Engine) AddCertification(ctx context.Context, candidateID uuid.UUID, c types.Certification) (*types.Certification, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := e.store.AddCertification(ctx, candidateID, &c); err != nil {
		return nil, fmt.Errorf("failed to add certification: %w", err)
	}
	e.notify(ctx, candidateID)
	return &c, nil
}

// DeleteCertification removes a certification.
func (e *Engine) DeleteCertification(ctx context.Context, candidateID, certID uuid.UUID) error {
	return e.applyChange(ctx, candidateID, "certification", certID, func() (bool, error) {
		return e.store.DeleteCertification(ctx, candidateID, certID)
	})
}

// VerifyCertification sets a certification's verification flag.
func (e *Engine) VerifyCertification(ctx context.Context, candidateID, certID uuid.UUID, verified bool) error {
	return e.applyChange(ctx, candidateID, "certification", certID, func() (bool, error) {
		return e.store.SetCertificationVerified(ctx, candidateID, certID, verified)
	})
}

// SaveProfile validates and stores the profile completeness flags.
func (e *Engine) SaveProfile(ctx context.Context, candidateID uuid.UUID, p types.ProfileCompleteness) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := e.store.SaveProfile(ctx, candidateID, p); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	e.notify(ctx, candidateID)
	return nil
}

// applyChange runs an update or delete of an existing entry and notifies on success.
func (e *Engine) applyChange(ctx context.Context, candidateID uuid.UUID, resource string, id uuid.UUID, fn func() (bool, error)) error {
	ok, err := fn()
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", resource, err)
	}
	if !ok {
		return &NotFoundError{Resource: resource, ID: id}
	}
	e.notify(ctx, candidateID)
	return nil
}
