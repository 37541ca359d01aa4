package server

import (
	"net/http"
	"strconv"

	"github.com/jonathan/rank-engine/internal/server/middleware"
	"github.com/jonathan/rank-engine/internal/types"
)

const maxHistoryLimit = 500

func (s *Server) handleActiveWeights(w http.ResponseWriter, r *http.Request) {
	ws, err := s.engine.Weights().Active(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, ws)
}

func (s *Server) handleWeightHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxHistoryLimit {
			s.writeError(w, r, &ErrValidation{Field: "limit", Message: "must be between 1 and 500"})
			return
		}
		limit = n
	}
	history, err := s.engine.Weights().History(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"weight_sets": history})
}

// handleProposeWeights validates and activates a new weight set. A rejected
// proposal leaves the prior weights active.
func (s *Server) handleProposeWeights(w http.ResponseWriter, r *http.Request) {
	var p types.WeightProposal
	if err := decodeJSON(w, r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	if p.CreatedBy == "" {
		p.CreatedBy = middleware.Actor(r)
	}
	ws, err := s.engine.Weights().Propose(r.Context(), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, ws)
}
