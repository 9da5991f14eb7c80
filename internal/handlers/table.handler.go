package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/nimasrn/invite-gateway/internal/model"
	xhttp "github.com/nimasrn/invite-gateway/pkg/http"
)

type TableService interface {
	List(ctx context.Context) ([]*model.Table, error)
	ListAvailable(ctx context.Context, tableType string) ([]*model.Table, error)
	Reserve(ctx context.Context, tableID int64, purchaseRef string) (*model.Reservation, error)
}

type TableHandler struct {
	svc TableService
}

func RegisterTableRoutes(g *router.Group, h *TableHandler) {
	g.GET("/tables", h.List)
	g.GET("/tables/available", h.ListAvailable)
	g.POST("/tables/{id}/reserve", h.Reserve)
	g.POST("/select-table", h.SelectTable)
}

func NewTableHandler(svc TableService) *TableHandler {
	return &TableHandler{
		svc: svc,
	}
}

func (h *TableHandler) List(ctx *xhttp.RequestCtx) {
	tables, err := h.svc.List(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, tables)
}

func (h *TableHandler) ListAvailable(ctx *xhttp.RequestCtx) {
	tables, err := h.svc.ListAvailable(ctx, query(ctx, "type"))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, tables)
}

func (h *TableHandler) Reserve(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid table id")
		return
	}

	var req model.ReserveRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	h.reserve(ctx, id, req.PurchaseRef())
}

// SelectTable is the checkout form's variant with the table id in the body.
func (h *TableHandler) SelectTable(ctx *xhttp.RequestCtx) {
	var req model.ReserveRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.TableID <= 0 {
		writeError(ctx, xhttp.StatusBadRequest, "tableId is required")
		return
	}
	h.reserve(ctx, req.TableID, req.PurchaseRef())
}

func (h *TableHandler) reserve(ctx *xhttp.RequestCtx, tableID int64, purchaseRef string) {
	if purchaseRef == "" {
		writeError(ctx, xhttp.StatusBadRequest, "purchase_id is required")
		return
	}

	r, err := h.svc.Reserve(ctx, tableID, purchaseRef)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, r)
}
