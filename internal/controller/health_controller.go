package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/cassiomorais/paygate/internal/service"
	"github.com/redis/go-redis/v9"
)

type HealthController struct {
	svc   *service.GatewayService
	redis redis.UniversalClient
}

// NewHealthController creates a HealthController. redis is nil when the rate
// limiter keeps its counters in memory.
func NewHealthController(svc *service.GatewayService, redis redis.UniversalClient) *HealthController {
	return &HealthController{svc: svc, redis: redis}
}

func (h *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"gateways":  h.svc.Stats().AvailableGateways,
		"timestamp": time.Now().UTC(),
	})
}

func (h *HealthController) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func (h *HealthController) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.redis.Ping(ctx).Err(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"reason": "redis unavailable",
			})
			return
		}
	}

	if h.svc.Stats().TotalGateways == 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "no payment gateways configured",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
