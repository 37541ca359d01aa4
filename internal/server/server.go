// Package server provides the HTTP REST API for the rank engine.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/rank-engine/internal/engine"
	"github.com/jonathan/rank-engine/internal/server/middleware"
	"github.com/jonathan/rank-engine/internal/server/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxBodyBytes bounds request payloads.
const maxBodyBytes = 1 << 20

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	engine      *engine.Engine
	health      HealthChecker
	rateLimiter *ratelimit.Limiter
	logger      *slog.Logger
}

// Config holds server configuration
type Config struct {
	Port       int
	AdminToken string
	// RateLimit configures request limits. Nil uses ratelimit.DefaultConfig.
	RateLimit *ratelimit.Config
	// Gatherer serves /metrics. Nil uses the default Prometheus registry.
	Gatherer prometheus.Gatherer
	// Health is checked by /health. May be nil.
	Health HealthChecker
	Logger *slog.Logger
}

// New creates a new server instance
func New(cfg Config, eng *engine.Engine) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		engine:      eng,
		health:      cfg.Health,
		rateLimiter: ratelimit.NewLimiter(cfg.RateLimit),
		logger:      logger,
	}
	admin := middleware.RequireAdminToken(cfg.AdminToken)

	// Setup router
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// Candidate score and factors
	mux.HandleFunc("PUT /candidates/{id}", s.handleRegisterCandidate)
	mux.HandleFunc("GET /candidates/{id}/rank-score", s.handleGetRankScore)
	mux.HandleFunc("POST /candidates/{id}/recompute", s.handleRecompute)
	mux.HandleFunc("GET /candidates/{id}/factors", s.handleGetFactors)
	mux.HandleFunc("PUT /candidates/{id}/factors", s.handleReplaceFactors)

	// Factor mutations
	mux.HandleFunc("POST /candidates/{id}/skills", s.handleAddSkill)
	mux.HandleFunc("DELETE /candidates/{id}/skills/{entry_id}", s.handleDeleteSkill)
	mux.HandleFunc("PUT /candidates/{id}/skills/{entry_id}/verification", s.handleVerifySkill)
	mux.HandleFunc("POST /candidates/{id}/education", s.handleAddEducation)
	mux.HandleFunc("DELETE /candidates/{id}/education/{entry_id}", s.handleDeleteEducation)
	mux.HandleFunc("POST /candidates/{id}/experience", s.handleAddExperience)
	mux.HandleFunc("DELETE /candidates/{id}/experience/{entry_id}", s.handleDeleteExperience)
	mux.HandleFunc("PUT /candidates/{id}/experience/{entry_id}/verification", s.handleVerifyExperience)
	mux.HandleFunc("POST /candidates/{id}/certifications", s.handleAddCertification)
	mux.HandleFunc("DELETE /candidates/{id}/certifications/{entry_id}", s.handleDeleteCertification)
	mux.HandleFunc("PUT /candidates/{id}/certifications/{entry_id}/verification", s.handleVerifyCertification)
	mux.HandleFunc("PUT /candidates/{id}/profile", s.handleSaveProfile)

	// Weights
	mux.HandleFunc("GET /weights/active", s.handleActiveWeights)
	mux.HandleFunc("GET /weights/history", s.handleWeightHistory)
	mux.Handle("POST /weights", admin(http.HandlerFunc(s.handleProposeWeights)))

	// Eligibility
	mux.HandleFunc("GET /jobs/{job_id}/eligibility-rule", s.handleGetRule)
	mux.HandleFunc("PUT /jobs/{job_id}/eligibility-rule", s.handleSetRule)
	mux.HandleFunc("GET /jobs/{job_id}/eligibility/{candidate_id}", s.handleCanApply)
	mux.HandleFunc("POST /jobs/{job_id}/applications", s.handleApply)
	mux.HandleFunc("GET /jobs/{job_id}/applications", s.handleListApplications)

	// Admin triggers
	mux.Handle("POST /admin/sweep", admin(http.HandlerFunc(s.handleSweep)))
	mux.Handle("POST /admin/refresh-pool", admin(http.HandlerFunc(s.handleRefreshPool)))

	// Create HTTP server
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withRateLimit(s.withLogging(s.withCORS(mux))),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // sweeps run inline on the admin route
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the root handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	defer s.rateLimiter.Stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+middleware.ActorHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"remote_addr", r.RemoteAddr,
			"duration_seconds", time.Since(start).Seconds())
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(clientID(r), r.URL.Path, r.Method)
		if info.Limit > 0 {
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
		}
		if !allowed {
			retry := int(info.RetryAfter.Seconds()) + 1
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			s.logger.Warn("rate limit exceeded", "path", r.URL.Path, "method", r.Method, "limit", info.Limit)
			s.jsonResponse(w, http.StatusTooManyRequests, map[string]any{
				"error":       "rate_limit_exceeded",
				"retry_after": retry,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientID extracts the client identifier (IP address) from the request.
func clientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.health.Ping(ctx); err != nil {
			s.logger.Warn("health check failed", "error", err)
			s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", "error", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// writeError maps err to a status and writes it. Internal errors are logged.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	s.jsonResponse(w, status, errorBody(status, err))
}

// decodeJSON reads a bounded JSON body into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &ErrValidation{Field: "body", Message: err.Error()}
	}
	return nil
}

// pathUUID parses a UUID path value.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, &ErrValidation{Field: name, Message: "must be a UUID"}
	}
	return id, nil
}
