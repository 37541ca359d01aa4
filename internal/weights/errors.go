package weights

import "fmt"

// ValidationError is returned when a weight proposal is rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid weight set: %s", e.Reason)
	}
	return fmt.Sprintf("invalid weight set: %s %s", e.Field, e.Reason)
}
