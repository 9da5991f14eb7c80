package handlers

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/nimasrn/invite-gateway/internal/model"
	xhttp "github.com/nimasrn/invite-gateway/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestVendorHandler_RecordSale(t *testing.T) {
	t.Run("recorded", func(t *testing.T) {
		svc := new(MockVendorService)
		svc.On("RecordSale", mock.Anything, mock.MatchedBy(func(r model.VendorSaleRequest) bool {
			return r.VendorCode == "joao" && r.PaymentID == "555" && r.Amount() == 4500
		})).Return(&model.VendorSale{ID: uuid.New(), VendorCode: "joao", Amount: 4500}, nil)

		ctx := setupTestContext("POST", "/api/registrar-venda", []byte(
			`{"vendedor":"joao","id":"555","external_reference":"ref-1","status":"approved","transaction_amount":45}`))
		NewVendorHandler(svc).RecordSale(ctx)

		assert.Equal(t, xhttp.StatusCreated, ctx.Response.StatusCode())
		var got model.VendorSale
		decodeBody(t, ctx, &got)
		assert.Equal(t, int64(4500), got.Amount)
		svc.AssertExpectations(t)
	})

	t.Run("missing vendor", func(t *testing.T) {
		svc := new(MockVendorService)
		svc.On("RecordSale", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("%w: VendorCode failed on required", model.ErrValidation))

		ctx := setupTestContext("POST", "/api/registrar-venda", []byte(`{"external_reference":"ref-1"}`))
		NewVendorHandler(svc).RecordSale(ctx)
		assert.Equal(t, xhttp.StatusBadRequest, ctx.Response.StatusCode())
	})
}
