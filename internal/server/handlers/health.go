package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// HealthHandler answers liveness probes
type HealthHandler struct {
	logger *slog.Logger
	pinger Pinger
}

// Pinger reports whether the storage backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewHealthHandler creates the health check handler
func NewHealthHandler(logger *slog.Logger, pinger Pinger) *HealthHandler {
	return &HealthHandler{
		logger: logger,
		pinger: pinger,
	}
}

// HealthResponse is the health check body
type HealthResponse struct {
	Status string `json:"status"`
}

// Health handles GET /api/v1/health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.pinger != nil {
		if err := h.pinger.Ping(ctx); err != nil {
			h.logger.ErrorContext(ctx, "storage unreachable", slog.Any("error", err))
			sendJSON(h.logger, w, HealthResponse{Status: "degraded"}, http.StatusServiceUnavailable)
			return
		}
	}

	sendJSON(h.logger, w, HealthResponse{Status: "ok"}, http.StatusOK)
}
