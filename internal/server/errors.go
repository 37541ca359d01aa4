package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/rank-engine/internal/eligibility"
	"github.com/jonathan/rank-engine/internal/engine"
	"github.com/jonathan/rank-engine/internal/recompute"
	"github.com/jonathan/rank-engine/internal/types"
	"github.com/jonathan/rank-engine/internal/weights"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validation *ErrValidation
		factors    *types.FactorValidationError
		weightSet  *weights.ValidationError
		notFound   *engine.NotFoundError
		denied     *eligibility.DeniedError
		locked     *eligibility.RuleLockedError
		applied    *eligibility.AlreadyAppliedError
		transient  *recompute.TransientError
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &factors), errors.As(err, &weightSet):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &denied):
		return http.StatusForbidden
	case errors.As(err, &locked), errors.As(err, &applied):
		return http.StatusConflict
	case errors.As(err, &transient):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorBody builds the JSON error payload for err. Internal errors are not echoed.
func errorBody(status int, err error) map[string]any {
	body := map[string]any{"error": err.Error()}
	if status == http.StatusInternalServerError {
		body["error"] = "internal server error"
		return body
	}

	var (
		factors *types.FactorValidationError
		denied  *eligibility.DeniedError
	)
	if errors.As(err, &factors) {
		body["fields"] = factors.Errors
	}
	if errors.As(err, &denied) {
		body["error"] = "application denied"
		body["reason"] = denied.Decision.Reason
		body["decision"] = denied.Decision
	}
	return body
}
