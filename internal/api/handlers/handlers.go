package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/padsapp/pads-be/internal/services"
	"github.com/rs/zerolog/log"
)

// writeJSON encodes v as the response body.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeServiceError maps a service failure onto an HTTP status. The
// services already collapse permission denials into not-found, so no
// extra care is needed here to avoid leaking existence.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		http.Error(w, "Invalid input", http.StatusBadRequest)
	case errors.Is(err, services.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, services.ErrConflict):
		http.Error(w, "Already exists", http.StatusConflict)
	case errors.Is(err, services.ErrStateDenied):
		http.Error(w, "Not allowed in the timer's current state", http.StatusConflict)
	default:
		log.Error().Err(err).Msg("Unexpected service error")
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}
