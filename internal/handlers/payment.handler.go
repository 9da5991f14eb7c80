package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/nimasrn/invite-gateway/internal/model"
	xhttp "github.com/nimasrn/invite-gateway/pkg/http"
)

type PaymentService interface {
	CreatePayment(ctx context.Context, method model.PaymentMethod, req model.PaymentCreateRequest) (*model.PaymentResult, error)
}

type PaymentHandler struct {
	svc PaymentService
}

func RegisterPaymentRoutes(g *router.Group, h *PaymentHandler) {
	g.POST("/criar-pagamento-cartao-credito", h.create(model.PaymentMethodCreditCard))
	g.POST("/criar-pagamento-cartao-debito", h.create(model.PaymentMethodDebitCard))
	g.POST("/criar-pagamento-pix", h.create(model.PaymentMethodPix))
}

func NewPaymentHandler(svc PaymentService) *PaymentHandler {
	return &PaymentHandler{
		svc: svc,
	}
}

func (h *PaymentHandler) create(method model.PaymentMethod) xhttp.RequestHandler {
	return func(ctx *xhttp.RequestCtx) {
		var req model.PaymentCreateRequest
		if err := readJSON(ctx, &req); err != nil {
			writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}

		res, err := h.svc.CreatePayment(ctx, method, req)
		if err != nil {
			writeServiceError(ctx, err)
			return
		}
		writeJSON(ctx, xhttp.StatusCreated, res)
	}
}
