package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/library/api/transport"
	"github.com/fastygo/library/internal/infrastructure/monitor"
	"github.com/fastygo/library/pkg/httpcontext"
)

// HealthSource reports the last observed dependency status.
type HealthSource interface {
	GetStatus() monitor.Status
}

type HealthHandler struct {
	baseHandler
	monitor HealthSource
}

func NewHealthHandler(mon HealthSource, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		monitor:     mon,
	}
}

// @Summary Health check
// @Tags health
// @Router /health [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	status := h.monitor.GetStatus()
	services := map[string]interface{}{
		"store": map[string]interface{}{
			"driver": status.StoreDriver,
			"online": status.Store,
		},
	}
	if status.RedisEnabled {
		services["redis"] = status.Redis
	}
	payload := map[string]interface{}{
		"timestamp": time.Now().UTC(),
		"lastCheck": status.LastCheck,
		"services":  services,
	}

	if status.Healthy() {
		h.respondSuccess(ctx, http.StatusOK, payload)
		return
	}
	h.respondJSON(ctx, http.StatusServiceUnavailable, transport.NewError("DEGRADED", "dependencies unhealthy", payload))
}
