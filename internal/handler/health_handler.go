package handler

import (
	"context"
	"log/slog"
	"net/http"
)

type pinger interface {
	Health(ctx context.Context) error
}

type HealthHandler struct {
	db pinger
}

func NewHealthHandler(db pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Health(r.Context()); err != nil {
		slog.Warn("health check failed", "error", err)
		writeSuccess(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"}, nil)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]string{"status": "ok"}, nil)
}
