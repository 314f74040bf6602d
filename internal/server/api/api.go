// Package api provides HTTP API handlers for tuning profiles and the alert log.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/handput/internal/config"
)

// TuningApplier applies a tuning to the running pipeline.
type TuningApplier interface {
	SetTuning(config.Tuning) error
}

type errorResponse struct {
	Error string `json:"error"`
}

const timeFormat = "2006-01-02T15:04:05Z07:00"

func formatTime(t time.Time) string {
	return t.Format(timeFormat)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
