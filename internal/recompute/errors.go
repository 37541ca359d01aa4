package recompute

import (
	"fmt"

	"github.com/google/uuid"
)

// TransientError is returned when a recompute failed and has been scheduled for retry.
// The candidate's previous score stays visible meanwhile.
type TransientError struct {
	CandidateID uuid.UUID
	Attempt     int
	Err         error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("recompute of candidate %s failed (attempt %d): %v", e.CandidateID, e.Attempt, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}
