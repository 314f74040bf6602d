// Package server provides the HTTP server: health, pipeline state, tuning,
// profiles and the live result stream.
package server

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/ayusman/handput/internal/app"
	"github.com/ayusman/handput/internal/config"
	"github.com/ayusman/handput/internal/overlay"
	"github.com/ayusman/handput/internal/server/api"
	"github.com/ayusman/handput/internal/store"
)

// Pipeline is the part of the application the server reads and controls.
type Pipeline interface {
	Latest() (app.Result, bool)
	Status() app.Status
	IsEnabled() bool
	SetEnabled(bool)
	Tuning() config.Tuning
	SetTuning(config.Tuning) error
}

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Pipeline  Pipeline
	Hub       *Hub
}

// Server represents the HTTP server for the application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Pipeline != nil {
		s.mux.HandleFunc("/api/state", s.handleState)
		s.mux.HandleFunc("/api/tuning", s.handleTuning)
	}

	if s.config.Hub != nil {
		s.mux.Handle("/api/results", s.config.Hub)
	}

	if s.config.Store != nil {
		var applier api.TuningApplier
		if s.config.Pipeline != nil {
			applier = s.config.Pipeline
		}
		profiles := api.NewProfileHandler(s.config.Store, applier)
		s.mux.Handle("/api/profiles", profiles)
		s.mux.Handle("/api/profiles/", profiles)
		s.mux.Handle("/api/alerts", api.NewAlertHandler(s.config.Store))
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.Hub != nil {
		response["clients"] = s.config.Hub.Clients()
	}

	writeJSON(w, http.StatusOK, response)
}

type stateResponse struct {
	Status  app.Status     `json:"status"`
	Enabled bool           `json:"enabled"`
	Result  *app.Result    `json:"result,omitempty"`
	Overlay *overlay.Model `json:"overlay,omitempty"`
}

type stateRequest struct {
	Enabled *bool `json:"enabled"`
}

// handleState handles GET and PUT requests to /api/state. GET returns the
// latest result with its overlay; PUT toggles processing.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	p := s.config.Pipeline

	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var req stateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if req.Enabled == nil {
			writeError(w, http.StatusBadRequest, "enabled is required")
			return
		}
		p.SetEnabled(*req.Enabled)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := stateResponse{Status: p.Status(), Enabled: p.IsEnabled()}
	if res, ok := p.Latest(); ok {
		model := overlay.Build(res.Snapshot, res.Gesture, res.Distance)
		response.Result = &res
		response.Overlay = &model
	}

	writeJSON(w, http.StatusOK, response)
}

// maxTuningBody caps PUT /api/tuning bodies.
const maxTuningBody = 1 << 20

// handleTuning handles GET and PUT requests to /api/tuning. A PUT body is a
// merge patch over the current tuning, applied without being stored.
func (s *Server) handleTuning(w http.ResponseWriter, r *http.Request) {
	p := s.config.Pipeline

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, p.Tuning())
	case http.MethodPut:
		body, err := io.ReadAll(io.LimitReader(r.Body, maxTuningBody))
		if err != nil {
			writeError(w, http.StatusBadRequest, "Failed to read body")
			return
		}
		t, err := p.Tuning().Patch(body)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := p.SetTuning(t); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, p.Tuning())
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
