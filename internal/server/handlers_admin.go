package server

import "net/http"

// handleSweep recomputes every dirty or outdated candidate before responding.
func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.Coordinator().SweepInline(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if res.Skipped {
		status = http.StatusAccepted
	}
	s.jsonResponse(w, status, res)
}

// handleRefreshPool rebuilds the pool snapshot and reclassifies every candidate.
func (s *Server) handleRefreshPool(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.Coordinator().RefreshPool(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, res)
}
