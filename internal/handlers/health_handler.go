package handlers

import (
	"context"
	"net/http"
	"time"
)

type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type HealthHandler struct {
	index  HealthChecker
	logger Logger
}

func NewHealthHandler(index HealthChecker, logger Logger) *HealthHandler {
	return &HealthHandler{index: index, logger: logger}
}

// Health reports liveness and whether the vector index answers. The
// process is considered up either way; a failing index yields 503.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := map[string]string{"status": "ok", "vector_index": "ok"}
	code := http.StatusOK
	if err := h.index.HealthCheck(ctx); err != nil {
		h.logger.Warn("vector index health check failed", "error", err)
		status["status"] = "degraded"
		status["vector_index"] = err.Error()
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}
