package sandbox

import (
	"afribook/pkg/contracts"
	httputil "afribook/pkg/http"
	"afribook/pkg/logger"
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
)

type HealthResponse struct {
	Status string `json:"status"`
	Agents string `json:"agents,omitempty"`
}

type HealthHandler struct {
	checker contracts.ReadinessChecker
	log     *logger.Logger
}

func NewHealthHandler(checker contracts.ReadinessChecker, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		checker: checker,
		log:     log,
	}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httputil.WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok"}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Health", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, body := http.StatusOK, HealthResponse{Status: "ready", Agents: "ok"}
	if err := h.checker.Ready(ctx); err != nil {
		h.log.Error("Readiness check failed", "error", err, "path", r.URL.Path)
		status, body = http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Agents: "error"}
	}

	if err := httputil.WriteJSON(w, status, body); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Ready", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) RegisterRoutes(router *httprouter.Router, prefix string) {
	router.GET(prefix+"/health", h.Health)
	router.GET(prefix+"/ready", h.Ready)
}
