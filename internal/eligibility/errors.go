package eligibility

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/rank-engine/internal/types"
)

// DeniedError is returned when an application is refused by the gate.
// It is an expected, user-facing outcome rather than a fault.
type DeniedError struct {
	Decision types.Decision
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("application denied: %s", e.Decision.Reason)
}

// RuleLockedError is returned when a rule with accepted applications is modified.
type RuleLockedError struct {
	JobID uuid.UUID
}

func (e *RuleLockedError) Error() string {
	return fmt.Sprintf("eligibility rule for job %s is locked by accepted applications", e.JobID)
}

// AlreadyAppliedError is returned when the candidate already has an accepted application.
type AlreadyAppliedError struct {
	JobID       uuid.UUID
	CandidateID uuid.UUID
}

func (e *AlreadyAppliedError) Error() string {
	return fmt.Sprintf("candidate %s has already applied to job %s", e.CandidateID, e.JobID)
}
