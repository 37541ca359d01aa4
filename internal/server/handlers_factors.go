package server

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/jonathan/rank-engine/internal/types"
)

// verificationRequest is the body of the verification endpoints.
type verificationRequest struct {
	Verified bool `json:"verified"`
}

// addEntry decodes a factor entry, stores it and returns it with its new ID.
func addEntry[T any](s *Server, w http.ResponseWriter, r *http.Request, add func(ctx context.Context, candidateID uuid.UUID, v T) (*T, error)) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var v T
	if err := decodeJSON(w, r, &v); err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := add(r.Context(), id, v)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, out)
}

// changeEntry applies a delete or update to an existing entry.
func (s *Server) changeEntry(w http.ResponseWriter, r *http.Request, change func(ctx context.Context, candidateID, entryID uuid.UUID) error) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	entryID, err := pathUUID(r, "entry_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := change(r.Context(), id, entryID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// verifyEntry decodes a verification body and applies it to an existing entry.
func (s *Server) verifyEntry(w http.ResponseWriter, r *http.Request, verify func(ctx context.Context, candidateID, entryID uuid.UUID, verified bool) error) {
	var req verificationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.changeEntry(w, r, func(ctx context.Context, candidateID, entryID uuid.UUID) error {
		return verify(ctx, candidateID, entryID, req.Verified)
	})
}

func (s *Server) handleAddSkill(w http.ResponseWriter, r *http.Request) {
	addEntry(s, w, r, s.engine.AddSkill)
}

func (s *Server) handleDeleteSkill(w http.ResponseWriter, r *http.Request) {
	s.changeEntry(w, r, s.engine.DeleteSkill)
}

func (s *Server) handleVerifySkill(w http.ResponseWriter, r *http.Request) {
	s.verifyEntry(w, r, s.engine.VerifySkill)
}

func (s *Server) handleAddEducation(w http.ResponseWriter, r *http.Request) {
	addEntry(s, w, r, s.engine.AddEducation)
}

func (s *Server) handleDeleteEducation(w http.ResponseWriter, r *http.Request) {
	s.changeEntry(w, r, s.engine.DeleteEducation)
}

func (s *Server) handleAddExperience(w http.ResponseWriter, r *http.Request) {
	addEntry(s, w, r, s.engine.AddExperience)
}

func (s *Server) handleDeleteExperience(w http.ResponseWriter, r *http.Request) {
	s.changeEntry(w, r, s.engine.DeleteExperience)
}

func (s *Server) handleVerifyExperience(w http.ResponseWriter, r *http.Request) {
	s.verifyEntry(w, r, s.engine.VerifyExperience)
}

func (s *Server) handleAddCertification(w http.ResponseWriter, r *http.Request) {
	addEntry(s, w, r, s.engine.AddCertification)
}

func (s *Server) handleDeleteCertification(w http.ResponseWriter, r *http.Request) {
	s.changeEntry(w, r, s.engine.DeleteCertification)
}

func (s *Server) handleVerifyCertification(w http.ResponseWriter, r *http.Request) {
	s.verifyEntry(w, r, s.engine.VerifyCertification)
}

// handleSaveProfile replaces the candidate's profile completeness flags.
func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var p types.ProfileCompleteness
	if err := decodeJSON(w, r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.engine.SaveProfile(r.Context(), id, p); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, p)
}
