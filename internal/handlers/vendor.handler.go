package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/nimasrn/invite-gateway/internal/model"
	xhttp "github.com/nimasrn/invite-gateway/pkg/http"
)

type VendorService interface {
	RecordSale(ctx context.Context, req model.VendorSaleRequest) (*model.VendorSale, error)
}

type VendorHandler struct {
	svc VendorService
}

func RegisterVendorRoutes(g *router.Group, h *VendorHandler) {
	g.POST("/registrar-venda", h.RecordSale)
}

func NewVendorHandler(svc VendorService) *VendorHandler {
	return &VendorHandler{
		svc: svc,
	}
}

func (h *VendorHandler) RecordSale(ctx *xhttp.RequestCtx) {
	var req model.VendorSaleRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	sale, err := h.svc.RecordSale(ctx, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, sale)
}
