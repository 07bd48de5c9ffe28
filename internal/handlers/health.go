package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/SUSHANT-M-GIT/SIH/internal/models"
	"github.com/SUSHANT-M-GIT/SIH/internal/services"
)

const version = "1.0.0"

var startTime = time.Now()

// ProbeSource reports the last known state of the complaint service.
type ProbeSource interface {
	Last() services.ProbeResult
}

// HealthHandler provides health check endpoints
type HealthHandler struct {
	probe  ProbeSource
	logger *zap.SugaredLogger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(probe ProbeSource, logger *zap.SugaredLogger) *HealthHandler {
	return &HealthHandler{probe: probe, logger: logger}
}

// Check handles GET /api/v1/health (liveness probe)
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.HealthStatus{
		Status:  "ok",
		Version: version,
		Uptime:  time.Since(startTime).String(),
	})
}

// Ready handles GET /api/v1/health/ready (readiness probe). It reports the
// background probe's last result instead of calling the service inline.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	last := h.probe.Last()
	if last.CheckedAt.IsZero() || !last.Reachable {
		remote := "unreachable"
		if last.CheckedAt.IsZero() {
			remote = "unknown"
		}
		status := models.HealthStatus{
			Status:  "not ready",
			Version: version,
			Remote:  remote,
		}
		if !last.CheckedAt.IsZero() {
			status.LastProbe = &last.CheckedAt
		}
		respondJSON(w, http.StatusServiceUnavailable, status)
		return
	}

	respondJSON(w, http.StatusOK, models.HealthStatus{
		Status:    "ready",
		Version:   version,
		Uptime:    time.Since(startTime).String(),
		Remote:    "reachable",
		LastProbe: &last.CheckedAt,
	})
}
