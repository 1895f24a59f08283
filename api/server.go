// Package api provides the HTTP API server for the planning pipeline.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"infra-planner/db/clickhouse"
	"infra-planner/internal/planner"
)

// Server is the HTTP API server.
type Server struct {
	httpServer *http.Server
	planner    *planner.Service
	store      *clickhouse.Store
	logger     *slog.Logger
	config     *Config
}

// Config holds server configuration.
type Config struct {
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestSize int64
	CORSOrigins    []string
}

// DefaultConfig returns default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Port:           8080,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   60 * time.Second,
		MaxRequestSize: 1 * 1024 * 1024, // 1MB
		CORSOrigins:    []string{"*"},
	}
}

// NewServer creates a new API server. The ClickHouse store is optional; when
// nil, readiness only reflects the in-memory catalog and the snapshots
// endpoint is disabled.
func NewServer(svc *planner.Service, store *clickhouse.Store, logger *slog.Logger, config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	return &Server{
		planner: svc,
		store:   store,
		logger:  logger,
		config:  config,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.HandleFunc("/api/v1/plan", s.handlePlan)
	mux.HandleFunc("/api/v1/snapshots", s.handleListSnapshots)

	handler := s.corsMiddleware(s.loggingMiddleware(mux))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("API server starting", "port", s.config.Port)
	return s.httpServer.ListenAndServe()
}

// StartWithGracefulShutdown starts the server and drains it on SIGINT or
// SIGTERM.
func (s *Server) StartWithGracefulShutdown() error {
	errChan := make(chan error, 1)
	go func() {
		if err := s.Start(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case <-quit:
		s.logger.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(ctx)
	}
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.New().String()
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote", r.RemoteAddr,
			"duration", time.Since(start).String(),
		)
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		allowed := false
		for _, o := range s.config.CORSOrigins {
			if o == "*" || o == origin {
				allowed = true
				break
			}
		}

		if allowed {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "86400")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// HEALTH ENDPOINTS
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "1.0.0",
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			s.jsonError(w, http.StatusServiceUnavailable, "catalog store not ready")
			return
		}
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

// =============================================================================
// PLAN ENDPOINT
// =============================================================================

// PlanRequest is the API request for infrastructure planning.
type PlanRequest struct {
	RequestText *string `json:"request_text"`
	SessionID   string  `json:"session_id,omitempty"`
}

// PlanResponse is the API response for infrastructure planning.
type PlanResponse struct {
	Content             string            `json:"content"`
	Confidence          float64           `json:"confidence"`
	CostEstimate        string            `json:"cost_estimate"`
	TerraformCode       map[string]string `json:"terraform_code"`
	ReasoningSteps      []string          `json:"reasoning_steps"`
	ImplementationSteps []string          `json:"implementation_steps"`
	SessionID           string            `json:"session_id"`
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxRequestSize)

	var req PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	// request_text must be present and a string; empty string is valid.
	if req.RequestText == nil {
		s.jsonError(w, http.StatusBadRequest, "request_text is required")
		return
	}

	result, err := s.planner.Plan(*req.RequestText, req.SessionID)
	if err != nil {
		s.logger.Error("planning failed", "error", err)
		s.jsonError(w, http.StatusInternalServerError, fmt.Sprintf("planning failed: %v", err))
		return
	}

	s.jsonResponse(w, http.StatusOK, PlanResponse{
		Content:             result.Content,
		Confidence:          result.Confidence,
		CostEstimate:        result.CostEstimate.StringFixed(2),
		TerraformCode:       result.TerraformCode,
		ReasoningSteps:      result.ReasoningSteps,
		ImplementationSteps: result.ImplementationSteps,
		SessionID:           result.SessionID,
	})
}

// =============================================================================
// SNAPSHOT ENDPOINT
// =============================================================================

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.store == nil {
		s.jsonError(w, http.StatusNotImplemented, "catalog store not configured")
		return
	}

	source := r.URL.Query().Get("source")
	if source == "" {
		source = "aws-pricing-api"
	}

	snapshots, err := s.store.ListSnapshots(r.Context(), source)
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list snapshots: %v", err))
		return
	}

	type SnapshotResponse struct {
		ID        string `json:"id"`
		Source    string `json:"source"`
		Hash      string `json:"hash"`
		RateCount int    `json:"rate_count"`
		IsActive  bool   `json:"is_active"`
		FetchedAt string `json:"fetched_at"`
		CreatedAt string `json:"created_at"`
	}

	resp := make([]SnapshotResponse, len(snapshots))
	for i, snap := range snapshots {
		hash := snap.Hash
		if len(hash) > 16 {
			hash = hash[:16] + "..."
		}
		resp[i] = SnapshotResponse{
			ID:        snap.ID.String(),
			Source:    snap.Source,
			Hash:      hash,
			RateCount: snap.RateCount,
			IsActive:  snap.IsActive,
			FetchedAt: snap.FetchedAt.Format(time.RFC3339),
			CreatedAt: snap.CreatedAt.Format(time.RFC3339),
		}
	}

	s.jsonResponse(w, http.StatusOK, resp)
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{
		"error": message,
	})
}
