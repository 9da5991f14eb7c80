package handlers

import (
	"context"
	"time"

	"github.com/fasthttp/router"
	xhttp "github.com/nimasrn/invite-gateway/pkg/http"
	"github.com/nimasrn/invite-gateway/pkg/logger"
)

const healthTimeout = 2 * time.Second

type HealthService interface {
	Check(ctx context.Context) error
}

type HealthHandler struct {
	svc HealthService
}

func RegisterHealthRoutes(g *router.Group, h *HealthHandler) {
	g.GET("/health", h.GetHealth)
}

func NewHealthHandler(svc HealthService) *HealthHandler {
	return &HealthHandler{
		svc: svc,
	}
}

func (h *HealthHandler) GetHealth(ctx *xhttp.RequestCtx) {
	c, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	if err := h.svc.Check(c); err != nil {
		logger.Warn("health check failed", "error", err)
		ctx.SetStatusCode(xhttp.StatusServiceUnavailable)
		ctx.SetBodyString(err.Error())
		return
	}
	ctx.SetBodyString("success")
}
