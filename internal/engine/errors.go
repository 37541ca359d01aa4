package engine

import (
	"fmt"

	"github.com/google/uuid"
)

// NotFoundError is returned when a candidate or factor entry does not exist.
type NotFoundError struct {
	Resource string
	ID       uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}
