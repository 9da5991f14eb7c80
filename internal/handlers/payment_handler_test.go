package handlers

import (
	"fmt"
	"testing"

	"github.com/fasthttp/router"
	"github.com/nimasrn/invite-gateway/internal/model"
	xhttp "github.com/nimasrn/invite-gateway/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

const pixBody = `{"payment_method_id":"pix","transaction_amount":25,"payer":{"email":"ana@example.com"},"external_reference":"ref-1"}`

func TestPaymentHandler_Routes(t *testing.T) {
	cases := []struct {
		path   string
		method model.PaymentMethod
	}{
		{"/api/criar-pagamento-cartao-credito", model.PaymentMethodCreditCard},
		{"/api/criar-pagamento-cartao-debito", model.PaymentMethodDebitCard},
		{"/api/criar-pagamento-pix", model.PaymentMethodPix},
	}
	for _, c := range cases {
		t.Run(string(c.method), func(t *testing.T) {
			svc := new(MockPaymentService)
			svc.On("CreatePayment", mock.Anything, c.method, mock.MatchedBy(func(r model.PaymentCreateRequest) bool {
				return r.ExternalReference == "ref-1" && r.TransactionAmount == 25
			})).Return(&model.PaymentResult{PaymentID: "1001", Status: "pending"}, nil).Once()

			r := router.New()
			RegisterPaymentRoutes(r.Group("/api"), NewPaymentHandler(svc))

			ctx := setupTestContext("POST", c.path, []byte(pixBody))
			r.Handler(ctx)

			assert.Equal(t, xhttp.StatusCreated, ctx.Response.StatusCode())
			var got model.PaymentResult
			decodeBody(t, ctx, &got)
			assert.Equal(t, "1001", got.PaymentID)
			svc.AssertExpectations(t)
		})
	}
}

func TestPaymentHandler_Pix(t *testing.T) {
	svc := new(MockPaymentService)
	svc.On("CreatePayment", mock.Anything, model.PaymentMethodPix, mock.Anything).Return(&model.PaymentResult{
		PaymentID:    "1001",
		Status:       "pending",
		QRCode:       "000201",
		QRCodeBase64: "iVBOR",
	}, nil)

	ctx := setupTestContext("POST", "/api/criar-pagamento-pix", []byte(pixBody))
	NewPaymentHandler(svc).create(model.PaymentMethodPix)(ctx)

	var got map[string]string
	decodeBody(t, ctx, &got)
	assert.Equal(t, "000201", got["qr_code"])
	assert.Equal(t, "iVBOR", got["qr_code_base64"])
}

func TestPaymentHandler_Errors(t *testing.T) {
	t.Run("gateway down", func(t *testing.T) {
		svc := new(MockPaymentService)
		svc.On("CreatePayment", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("create pix payment: %w: status 503", model.ErrGatewayUnavailable))

		ctx := setupTestContext("POST", "/api/criar-pagamento-pix", []byte(pixBody))
		NewPaymentHandler(svc).create(model.PaymentMethodPix)(ctx)

		assert.Equal(t, xhttp.StatusBadGateway, ctx.Response.StatusCode())
		assert.Equal(t, "payment gateway unavailable", errorBody(t, ctx))
	})

	t.Run("amount mismatch", func(t *testing.T) {
		svc := new(MockPaymentService)
		svc.On("CreatePayment", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("%w: transaction_amount 10.00 does not match purchase total 25.00", model.ErrValidation))

		ctx := setupTestContext("POST", "/api/criar-pagamento-pix", []byte(pixBody))
		NewPaymentHandler(svc).create(model.PaymentMethodPix)(ctx)
		assert.Equal(t, xhttp.StatusBadRequest, ctx.Response.StatusCode())
	})

	t.Run("bad json", func(t *testing.T) {
		svc := new(MockPaymentService)
		ctx := setupTestContext("POST", "/api/criar-pagamento-pix", []byte(`[]`))
		NewPaymentHandler(svc).create(model.PaymentMethodPix)(ctx)
		assert.Equal(t, xhttp.StatusBadRequest, ctx.Response.StatusCode())
		svc.AssertNotCalled(t, "CreatePayment", mock.Anything, mock.Anything, mock.Anything)
	})
}
