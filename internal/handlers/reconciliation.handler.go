package handlers

import (
	"context"
	"time"

	"github.com/fasthttp/router"
	"github.com/nimasrn/invite-gateway/internal/model"
	xhttp "github.com/nimasrn/invite-gateway/pkg/http"
	"github.com/nimasrn/invite-gateway/pkg/logger"
)

type ReconciliationService interface {
	HandleNotification(ctx context.Context, n model.Notification) model.NotificationOutcome
	ResolvePayment(ctx context.Context, reference string) (*model.PaymentStatus, error)
}

const defaultNotificationTimeout = 10 * time.Second

type ReconciliationHandler struct {
	svc                 ReconciliationService
	notificationTimeout time.Duration
}

func RegisterReconciliationRoutes(g *router.Group, h *ReconciliationHandler) {
	g.POST("/webhook", h.Webhook)
	g.GET("/status-compra/{external_reference}", h.PaymentStatus)
}

// NewReconciliationHandler bounds each notification by notificationTimeout,
// which must stay below the server request timeout so the webhook still
// answers 200 when storage or the gateway stall.
func NewReconciliationHandler(svc ReconciliationService, notificationTimeout time.Duration) *ReconciliationHandler {
	if notificationTimeout <= 0 {
		notificationTimeout = defaultNotificationTimeout
	}
	return &ReconciliationHandler{
		svc:                 svc,
		notificationTimeout: notificationTimeout,
	}
}

// Webhook always answers 200 so the gateway stops redelivering; failures
// are logged by the service.
func (h *ReconciliationHandler) Webhook(ctx *xhttp.RequestCtx) {
	n := model.ParseNotification(ctx.PostBody(), func(key string) string {
		return query(ctx, key)
	})
	c, cancel := context.WithTimeout(ctx, h.notificationTimeout)
	defer cancel()

	outcome := h.svc.HandleNotification(c, n)
	logger.Debug("webhook handled", "type", n.Type, "data_id", n.DataID, "outcome", outcome)

	writeJSON(ctx, xhttp.StatusOK, map[string]string{"status": "ok"})
}

func (h *ReconciliationHandler) PaymentStatus(ctx *xhttp.RequestCtx) {
	ref := pathParam(ctx, "external_reference")
	if ref == "" {
		writeError(ctx, xhttp.StatusBadRequest, "external_reference is required")
		return
	}

	status, err := h.svc.ResolvePayment(ctx, ref)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, status)
}
