package server

import (
	"net/http"

	"github.com/jonathan/rank-engine/internal/types"
)

// handleRegisterCandidate creates a candidate with no factors so it receives a score.
func (s *Server) handleRegisterCandidate(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.engine.RegisterCandidate(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusAccepted, map[string]any{"candidate_id": id, "status": "dirty"})
}

// handleGetRankScore returns the stored score. It never waits for a recompute.
func (s *Server) handleGetRankScore(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	view, err := s.engine.GetRankScore(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if view == nil {
		s.errorResponse(w, http.StatusNotFound, "rank score not computed yet")
		return
	}
	s.jsonResponse(w, http.StatusOK, view)
}

// handleRecompute recomputes the candidate synchronously.
func (s *Server) handleRecompute(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	score, err := s.engine.RecomputeNow(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if score == nil {
		// Another worker holds the candidate; the queued recompute will pick up.
		s.jsonResponse(w, http.StatusAccepted, map[string]any{"candidate_id": id, "status": "recomputing"})
		return
	}
	s.jsonResponse(w, http.StatusOK, score)
}

func (s *Server) handleGetFactors(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	f, err := s.engine.GetFactors(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if f == nil {
		s.errorResponse(w, http.StatusNotFound, "candidate not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, f)
}

// handleReplaceFactors overwrites the candidate's full factor document.
func (s *Server) handleReplaceFactors(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var f types.CandidateFactors
	if err := decodeJSON(w, r, &f); err != nil {
		s.writeError(w, r, err)
		return
	}
	f.CandidateID = id
	if err := s.engine.ReplaceFactors(r.Context(), &f); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusAccepted, map[string]any{"candidate_id": id, "status": "dirty"})
}
