package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/ayusman/handput/internal/config"
	"github.com/ayusman/handput/internal/store"
)

// ProfileHandler handles HTTP requests for tuning profile resources.
type ProfileHandler struct {
	store   *store.Store
	applier TuningApplier
}

// NewProfileHandler creates a ProfileHandler. applier may be nil, in which
// case activating a profile only records the selection.
func NewProfileHandler(s *store.Store, applier TuningApplier) *ProfileHandler {
	return &ProfileHandler{store: s, applier: applier}
}

// ServeHTTP routes /api/profiles, /api/profiles/{id} and
// /api/profiles/{id}/activate.
func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/profiles")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if path == "active" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.active(w, r)
		return
	}

	id, action, _ := strings.Cut(path, "/")
	switch action {
	case "":
		switch r.Method {
		case http.MethodGet:
			h.get(w, r, id)
		case http.MethodPut:
			h.update(w, r, id)
		case http.MethodDelete:
			h.delete(w, r, id)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case "activate":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.activate(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

// Request and response types

type profileRequest struct {
	Name string `json:"name"`
	// Tuning is decoded over the defaults, so it may be partial.
	Tuning json.RawMessage `json:"tuning"`
}

type profileResponse struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Tuning    config.Tuning `json:"tuning"`
	CreatedAt string        `json:"created_at"`
	UpdatedAt string        `json:"updated_at"`
}

type listProfilesResponse struct {
	Profiles []profileResponse `json:"profiles"`
}

func toProfileResponse(p *store.Profile) profileResponse {
	return profileResponse{
		ID:        p.ID,
		Name:      p.Name,
		Tuning:    p.Tuning,
		CreatedAt: formatTime(p.CreatedAt),
		UpdatedAt: formatTime(p.UpdatedAt),
	}
}

func parseTuning(raw json.RawMessage) (config.Tuning, error) {
	if len(raw) == 0 {
		return config.Default(), nil
	}
	return config.Parse(raw)
}

// list handles GET /api/profiles.
func (h *ProfileHandler) list(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.store.Profiles().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list profiles")
		return
	}

	response := listProfilesResponse{
		Profiles: make([]profileResponse, 0, len(profiles)),
	}
	for _, p := range profiles {
		response.Profiles = append(response.Profiles, toProfileResponse(p))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/profiles/{id}.
func (h *ProfileHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.store.Profiles().GetByID(id)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProfileResponse(p))
}

// active handles GET /api/profiles/active.
func (h *ProfileHandler) active(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.Profiles().Active()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "No active profile")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get active profile")
		return
	}

	writeJSON(w, http.StatusOK, toProfileResponse(p))
}

// create handles POST /api/profiles.
func (h *ProfileHandler) create(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}

	tuning, err := parseTuning(req.Tuning)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.store.Profiles().GetByName(req.Name); err == nil {
		writeError(w, http.StatusConflict, "Profile name already exists")
		return
	}

	p := &store.Profile{Name: req.Name, Tuning: tuning}
	if err := h.store.Profiles().Create(p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create profile")
		return
	}

	writeJSON(w, http.StatusCreated, toProfileResponse(p))
}

// update handles PUT /api/profiles/{id}. Omitted fields keep their values.
func (h *ProfileHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.store.Profiles().GetByID(id)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name != "" {
		p.Name = req.Name
	}
	if len(req.Tuning) > 0 {
		tuning, err := p.Tuning.Patch(req.Tuning)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		p.Tuning = tuning
	}

	if err := h.store.Profiles().Update(p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	if h.applier != nil && h.isActive(p.ID) {
		if err := h.applier.SetTuning(p.Tuning); err != nil {
			log.Printf("Failed to apply updated profile %s: %v", p.ID, err)
		}
	}

	writeJSON(w, http.StatusOK, toProfileResponse(p))
}

// delete handles DELETE /api/profiles/{id}.
func (h *ProfileHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Profiles().Delete(id); err != nil {
		h.writeLookupError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// activate handles POST /api/profiles/{id}/activate. The profile's tuning
// is applied to the pipeline before the selection is stored.
func (h *ProfileHandler) activate(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.store.Profiles().GetByID(id)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}

	if h.applier != nil {
		if err := h.applier.SetTuning(p.Tuning); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
	}

	if err := h.store.Profiles().SetActive(p.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to activate profile")
		return
	}

	log.Printf("Activated tuning profile %q", p.Name)
	writeJSON(w, http.StatusOK, toProfileResponse(p))
}

func (h *ProfileHandler) isActive(id string) bool {
	active, err := h.store.Profiles().Active()
	return err == nil && active.ID == id
}

func (h *ProfileHandler) writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Profile not found")
		return
	}
	writeError(w, http.StatusInternalServerError, "Failed to access profile")
}
