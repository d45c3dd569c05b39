// Package httpapi exposes the search pipeline over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"jobfinder/internal/model"
	"jobfinder/internal/pipeline"
)

// Searcher runs a full search. Satisfied by *pipeline.Pipeline.
type Searcher interface {
	Search(ctx context.Context, req model.JobRequirement) ([]model.JobResult, error)
}

// Prober answers the diagnostic connectivity check. Satisfied by *ai.Analyzer.
type Prober interface {
	TestConnection(ctx context.Context) bool
}

// Server holds the handler dependencies.
type Server struct {
	searcher Searcher
	prober   Prober
	// SaveArtifact persists the ranked results after a successful search.
	// Optional; failures are logged, never surfaced to the caller.
	SaveArtifact func(position string, results []model.JobResult) (string, error)
	logger       *slog.Logger
}

// NewServer wires the handlers.
func NewServer(searcher Searcher, prober Prober, logger *slog.Logger) *Server {
	return &Server{searcher: searcher, prober: prober, logger: logger}
}

// Routes returns the API handler.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/search-jobs/", s.handleSearchJobs)
	mux.HandleFunc("/test-ollama/", s.handleTestOllama)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

func (s *Server) handleSearchJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req model.JobRequirement
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.Position == "" {
		writeError(w, http.StatusBadRequest, "position is required")
		return
	}
	for _, src := range req.Sources {
		if !model.KnownSource(src) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown source %q", src))
			return
		}
	}

	s.logger.Info("search request", "position", req.Position, "location", req.Location, "sources", req.Sources)

	results, err := s.searcher.Search(r.Context(), req)
	if err != nil {
		if errors.Is(err, pipeline.ErrAnalyzerUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "inference endpoint unavailable")
			return
		}
		s.logger.Error("search failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if s.SaveArtifact != nil {
		if path, err := s.SaveArtifact(req.Position, results); err != nil {
			s.logger.Error("saving artifact failed", "error", err)
		} else if path != "" {
			s.logger.Info("artifact saved", "path", path)
		}
	}

	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleTestOllama(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.prober.TestConnection(r.Context()) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "up"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "down"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
