package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/nimasrn/invite-gateway/internal/model"
	xhttp "github.com/nimasrn/invite-gateway/pkg/http"
)

type PurchaseService interface {
	CreatePurchase(ctx context.Context, req model.PurchaseCreateRequest) (*model.Purchase, error)
	GetPurchase(ctx context.Context, idOrReference string) (*model.Purchase, error)
}

type PurchaseHandler struct {
	svc PurchaseService
}

func RegisterPurchaseRoutes(g *router.Group, h *PurchaseHandler) {
	g.POST("/iniciar-compra", h.CreatePurchase)
	g.GET("/purchase/{id}", h.GetPurchase)
}

func NewPurchaseHandler(svc PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{
		svc: svc,
	}
}

func (h *PurchaseHandler) CreatePurchase(ctx *xhttp.RequestCtx) {
	var req model.PurchaseCreateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	p, err := h.svc.CreatePurchase(ctx, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}

	writeJSON(ctx, xhttp.StatusCreated, model.PurchaseCreated{
		PurchaseID:        p.ID.String(),
		Amount:            p.TotalAmount,
		ExternalReference: p.ExternalReference,
		PreferenceID:      p.PreferenceID,
	})
}

func (h *PurchaseHandler) GetPurchase(ctx *xhttp.RequestCtx) {
	p, err := h.svc.GetPurchase(ctx, pathParam(ctx, "id"))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, p)
}
