package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/jonathan/rank-engine/internal/types"
)

// applyRequest is the body of an application submission.
type applyRequest struct {
	CandidateID uuid.UUID `json:"candidate_id"`
}

func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathUUID(r, "job_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rule, err := s.engine.Gate().GetRule(r.Context(), jobID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if rule == nil {
		s.errorResponse(w, http.StatusNotFound, "job has no eligibility rule")
		return
	}
	s.jsonResponse(w, http.StatusOK, rule)
}

func (s *Server) handleSetRule(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathUUID(r, "job_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in types.EligibilityRuleInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	rule, err := s.engine.Gate().SetRule(r.Context(), jobID, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, rule)
}

// handleCanApply is the advisory check used to show or hide the apply action.
func (s *Server) handleCanApply(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathUUID(r, "job_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	candidateID, err := pathUUID(r, "candidate_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.engine.Gate().CanApply(r.Context(), candidateID, jobID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, d)
}

// handleApply re-evaluates eligibility and records the application atomically.
func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathUUID(r, "job_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req applyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.CandidateID == uuid.Nil {
		s.writeError(w, r, &ErrValidation{Field: "candidate_id", Message: "is required"})
		return
	}
	app, err := s.engine.Gate().Apply(r.Context(), req.CandidateID, jobID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, app)
}

func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathUUID(r, "job_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	apps, err := s.engine.Gate().ListApplications(r.Context(), jobID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if apps == nil {
		apps = []types.Application{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"applications": apps})
}
