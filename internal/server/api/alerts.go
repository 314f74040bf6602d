package api

import (
	"net/http"
	"strconv"

	"github.com/ayusman/handput/internal/store"
)

// AlertHandler serves the alert log.
type AlertHandler struct {
	store *store.Store
}

// NewAlertHandler creates an AlertHandler with the given store.
func NewAlertHandler(s *store.Store) *AlertHandler {
	return &AlertHandler{store: s}
}

type alertResponse struct {
	ID        int64  `json:"id"`
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Detail    string `json:"detail,omitempty"`
	CreatedAt string `json:"created_at"`
}

type listAlertsResponse struct {
	Alerts []alertResponse `json:"alerts"`
}

// ServeHTTP handles GET /api/alerts?limit=N.
func (h *AlertHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	alerts, err := h.store.Alerts().Recent(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list alerts")
		return
	}

	response := listAlertsResponse{Alerts: make([]alertResponse, 0, len(alerts))}
	for _, a := range alerts {
		response.Alerts = append(response.Alerts, alertResponse{
			ID:        a.ID,
			Kind:      a.Kind,
			Message:   a.Message,
			Detail:    a.Detail,
			CreatedAt: formatTime(a.CreatedAt),
		})
	}

	writeJSON(w, http.StatusOK, response)
}
