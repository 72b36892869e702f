// Package debug serves the optional debug listener: Prometheus metrics plus
// liveness and readiness probes. It is only started when a listen address is
// configured.
package debug

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"jobctl/internal/health"
)

// Handler contains the probe endpoints.
type Handler struct {
	health *health.Checker
}

// NewHandler creates a handler over the given checker.
func NewHandler(checker *health.Checker) *Handler {
	return &Handler{health: checker}
}

// Livez handles GET /livez. Returns 200 if the process is alive; never
// touches dependencies.
func (h *Handler) Livez(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.health.Liveness(r.Context()))
}

// Readyz handles GET /readyz. Returns 503 when any wired provider backend is
// unreachable.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	response := h.health.Readiness(r.Context())

	status := http.StatusOK
	if !response.IsHealthy() {
		status = http.StatusServiceUnavailable
	}
	h.writeJSON(w, status, response)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
