package memstore

import (
	"context"

	"github.com/google/uuid"
	"github.com/jonathan/rank-engine/internal/types"
)

// EnsureCandidate registers a candidate with no factors.
func (s *Store) EnsureCandidate(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.candidates[id]; !ok {
		s.candidateLocked(id).UpdatedAt = s.now()
		s.markDirtyLocked(id)
	}
	return nil
}

// ReplaceFactors overwrites the candidate's full factor state.
func (s *Store) ReplaceFactors(_ context.Context, f *types.CandidateFactors) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := copyFactors(f)
	assignIDs(c)
	c.UpdatedAt = s.now()
	s.candidates[f.CandidateID] = c
	s.markDirtyLocked(f.CandidateID)
	return nil
}

// AddSkill appends a skill and assigns its ID.
func (s *Store) AddSkill(_ context.Context, candidateID uuid.UUID, skill *types.Skill) error {
	return s.mutate(candidateID, func(f *types.CandidateFactors) bool {
		skill.ID = uuid.New()
		f.Skills = append(f.Skills, *skill)
		return true
	})
}

// DeleteSkill removes a skill. Returns false if it does not exist.
func (s *Store) DeleteSkill(_ context.Context, candidateID, skillID uuid.UUID) (bool, error) {
	return s.mutateExisting(candidateID, func(f *types.CandidateFactors) bool {
		var ok bool
		f.Skills, ok = remove(f.Skills, func(v types.Skill) bool { return v.ID == skillID })
		return ok
	})
}

// SetSkillVerified sets a skill's verification flag.
func (s *Store) SetSkillVerified(_ context.Context, candidateID, skillID uuid.UUID, verified bool) (bool, error) {
	return s.mutateExisting(candidateID, func(f *types.CandidateFactors) bool {
		for i := range f.Skills {
			if f.Skills[i].ID == skillID {
				f.Skills[i].Verified = verified
				return true
			}
		}
		return false
	})
}

// AddEducation appends an education entry and assigns its ID.
func (s *Store) AddEducation(_ context.Context, candidateID uuid.UUID, e *types.Education) error {
	return s.mutate(candidateID, func(f *types.CandidateFactors) bool {
		e.ID = uuid.New()
		f.Education = append(f.Education, *e)
		return true
	})
}

// DeleteEducation removes an education entry.
func (s *Store) DeleteEducation(_ context.Context, candidateID, educationID uuid.UUID) (bool, error) {
	return s.mutateExisting(candidateID, func(f *types.CandidateFactors) bool {
		var ok bool
		f.Education, ok = remove(f.Education, func(v types.Education) bool { return v.ID == educationID })
		return ok
	})
}

// AddExperience appends an experience entry and assigns its ID.
func (s *Store) AddExperience(_ context.Context, candidateID uuid.UUID, e *types.Experience) error {
	return s.mutate(candidateID, func(f *types.CandidateFactors) bool {
		e.ID = uuid.New()
		f.Experience = append(f.Experience, *e)
		return true
	})
}

// DeleteExperience removes an experience entry.
func (s *Store) DeleteExperience(_ context.Context, candidateID, experienceID uuid.UUID) (bool, error) {
	return s.mutateExisting(candidateID, func(f *types.CandidateFactors) bool {
		var ok bool
		f.Experience, ok = remove(f.Experience, func(v types.Experience) bool { return v.ID == experienceID })
		return ok
	})
}

// SetExperienceVerified sets an experience entry's verification flag.
func (s *Store) SetExperienceVerified(_ context.Context, candidateID, experienceID uuid.UUID, verified bool) (bool, error) {
	return s.mutateExisting(candidateID, func(f *types.CandidateFactors) bool {
		for i := range f.Experience {
			if f.Experience[i].ID == experienceID {
				f.Experience[i].Verified = verified
				return true
			}
		}
		return false
	})
}

// AddCertification appends a certification and assigns its ID.
func (s *Store) AddCertification(_ context.Context, candidateID uuid.UUID, c *types.Certification) error {
	return s.mutate(candidateID, func(f *types.CandidateFactors) bool {
		c.ID = uuid.New()
		f.Certifications = append(f.Certifications, *c)
		return true
	})
}

// DeleteCertification removes a certification.
func (s *Store) DeleteCertification(_ context.Context, candidateID, certID uuid.UUID) (bool, error) {
	return s.mutateExisting(candidateID, func(f *types.CandidateFactors) bool {
		var ok bool
		f.Certifications, ok = remove(f.Certifications, func(v types.Certification) bool { return v.ID == certID })
		return ok
	})
}

// SetCertificationVerified sets a certification's verification flag.
func (s *Store) SetCertificationVerified(_ context.Context, candidateID, certID uuid.UUID, verified bool) (bool, error) {
	return s.mutateExisting(candidateID, func(f *types.CandidateFactors) bool {
		for i := range f.Certifications {
			if f.Certifications[i].ID == certID {
				f.Certifications[i].Verified = verified
				return true
			}
		}
		return false
	})
}

// SaveProfile replaces the candidate's profile completeness flags.
func (s *Store) SaveProfile(_ context.Context, candidateID uuid.UUID, p types.ProfileCompleteness) error {
	return s.mutate(candidateID, func(f *types.CandidateFactors) bool {
		f.Profile = p
		return true
	})
}

// mutate applies fn to the candidate (creating it if needed) and marks it dirty
// under the same lock.
func (s *Store) mutate(candidateID uuid.UUID, fn func(f *types.CandidateFactors) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.candidateLocked(candidateID)
	if fn(f) {
		f.UpdatedAt = s.now()
		s.markDirtyLocked(candidateID)
	}
	return nil
}

// mutateExisting is mutate for updates that require the candidate to exist.
func (s *Store) mutateExisting(candidateID uuid.UUID, fn func(f *types.CandidateFactors) bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.candidates[candidateID]
	if !ok || !fn(f) {
		return false, nil
	}
	f.UpdatedAt = s.now()
	s.markDirtyLocked(candidateID)
	return true, nil
}

func remove[T any](items []T, match func(T) bool) ([]T, bool) {
	for i, v := range items {
		if match(v) {
			return append(items[:i:i], items[i+1:]...), true
		}
	}
	return items, false
}

func assignIDs(f *types.CandidateFactors) {
	for i := range f.Skills {
		if f.Skills[i].ID == uuid.Nil {
			f.Skills[i].ID = uuid.New()
		}
	}
	for i := range f.Education {
		if f.Education[i].ID == uuid.Nil {
			f.Education[i].ID = uuid.New()
		}
	}
	for i := range f.Experience {
		if f.Experience[i].ID == uuid.Nil {
			f.Experience[i].ID = uuid.New()
		}
	}
	for i := range f.Certifications {
		if f.Certifications[i].ID == uuid.Nil {
			f.Certifications[i].ID = uuid.New()
		}
	}
}
