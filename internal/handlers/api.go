package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/SUSHANT-M-GIT/SIH/internal/services"
)

// ListJSON handles GET /api/v1/complaints
// Same data as the dashboard, for scripted clients sharing the session cookie.
func (p *Portal) ListJSON(w http.ResponseWriter, r *http.Request) {
	_, ws, ok := p.current(r)
	if !ok {
		respondError(w, http.StatusInternalServerError, "Session unavailable")
		return
	}

	state, err := ws.list.Load(r.Context())
	if errors.Is(err, services.ErrRedirectLogin) {
		respondError(w, http.StatusUnauthorized, "Login required")
		return
	}
	if state.Status == services.ListFailed {
		respondJSON(w, http.StatusBadGateway, state)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

// DetailJSON handles GET /api/v1/complaints/{complaintId}
func (p *Portal) DetailJSON(w http.ResponseWriter, r *http.Request) {
	_, ws, ok := p.current(r)
	if !ok {
		respondError(w, http.StatusInternalServerError, "Session unavailable")
		return
	}

	state, err := ws.detail.Load(r.Context(), chi.URLParam(r, "complaintId"))
	if errors.Is(err, services.ErrRedirectList) {
		respondError(w, http.StatusBadRequest, "Complaint id required")
		return
	}
	if state.Error != "" {
		respondJSON(w, http.StatusBadGateway, state)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

// Helper: respond with JSON
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Helper: respond with error
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
