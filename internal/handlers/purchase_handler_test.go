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

func TestPurchaseHandler_CreatePurchase(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc := new(MockPurchaseService)
		h := NewPurchaseHandler(svc)
		id := uuid.New()
		pref := "pref-1"

		svc.On("CreatePurchase", mock.Anything, mock.MatchedBy(func(r model.PurchaseCreateRequest) bool {
			return r.Name == "Ana" && r.InviteType == model.InviteCasal && r.Mesa && r.VendorCode == "joao"
		})).Return(&model.Purchase{ID: id, ExternalReference: "ref-1", TotalAmount: 6000, PreferenceID: &pref}, nil)

		ctx := setupTestContext("POST", "/api/iniciar-compra", []byte(`{
			"nome":"Ana","sobrenome":"Souza","telefone":"(11) 98765-4321",
			"conviteType":"casal","mesa":true,"estacionamento":false,"vendedor":"joao"}`))
		h.CreatePurchase(ctx)

		assert.Equal(t, xhttp.StatusCreated, ctx.Response.StatusCode())
		var got model.PurchaseCreated
		decodeBody(t, ctx, &got)
		assert.Equal(t, id.String(), got.PurchaseID)
		assert.Equal(t, int64(6000), got.Amount)
		assert.Equal(t, "ref-1", got.ExternalReference)
		assert.Equal(t, "pref-1", *got.PreferenceID)
		svc.AssertExpectations(t)
	})

	t.Run("invalid json", func(t *testing.T) {
		svc := new(MockPurchaseService)
		ctx := setupTestContext("POST", "/api/iniciar-compra", []byte(`{`))
		NewPurchaseHandler(svc).CreatePurchase(ctx)

		assert.Equal(t, xhttp.StatusBadRequest, ctx.Response.StatusCode())
		assert.Contains(t, errorBody(t, ctx), "invalid JSON")
		svc.AssertNotCalled(t, "CreatePurchase", mock.Anything, mock.Anything)
	})

	t.Run("validation error", func(t *testing.T) {
		svc := new(MockPurchaseService)
		svc.On("CreatePurchase", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("%w: invalid phone", model.ErrValidation))

		ctx := setupTestContext("POST", "/api/iniciar-compra", []byte(`{"telefone":"1"}`))
		NewPurchaseHandler(svc).CreatePurchase(ctx)

		assert.Equal(t, xhttp.StatusBadRequest, ctx.Response.StatusCode())
		assert.Contains(t, errorBody(t, ctx), "invalid phone")
	})

	t.Run("duplicate reference", func(t *testing.T) {
		svc := new(MockPurchaseService)
		svc.On("CreatePurchase", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("%w: external_reference already exists", model.ErrConflict))

		ctx := setupTestContext("POST", "/api/iniciar-compra", []byte(`{}`))
		NewPurchaseHandler(svc).CreatePurchase(ctx)
		assert.Equal(t, xhttp.StatusConflict, ctx.Response.StatusCode())
	})
}

func TestPurchaseHandler_GetPurchase(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		svc := new(MockPurchaseService)
		svc.On("GetPurchase", mock.Anything, "ref-1").
			Return(&model.Purchase{ExternalReference: "ref-1", Status: model.PurchaseStatusApproved}, nil)

		ctx := setupTestContext("GET", "/api/purchase/ref-1", nil)
		ctx.SetUserValue("id", "ref-1")
		NewPurchaseHandler(svc).GetPurchase(ctx)

		assert.Equal(t, xhttp.StatusOK, ctx.Response.StatusCode())
		var got model.Purchase
		decodeBody(t, ctx, &got)
		assert.Equal(t, model.PurchaseStatusApproved, got.Status)
	})

	t.Run("not found", func(t *testing.T) {
		svc := new(MockPurchaseService)
		svc.On("GetPurchase", mock.Anything, "nope").Return(nil, fmt.Errorf("purchase %w", model.ErrNotFound))

		ctx := setupTestContext("GET", "/api/purchase/nope", nil)
		ctx.SetUserValue("id", "nope")
		NewPurchaseHandler(svc).GetPurchase(ctx)
		assert.Equal(t, xhttp.StatusNotFound, ctx.Response.StatusCode())
	})
}

func TestWriteServiceError(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("x: %w", model.ErrValidation), xhttp.StatusBadRequest},
		{fmt.Errorf("x: %w", model.ErrNotFound), xhttp.StatusNotFound},
		{fmt.Errorf("x: %w", model.ErrConflict), xhttp.StatusConflict},
		{fmt.Errorf("x: %w", model.ErrGatewayUnavailable), xhttp.StatusBadGateway},
		{fmt.Errorf("x: %w: disk full", model.ErrPersistence), xhttp.StatusInternalServerError},
		{fmt.Errorf("unexpected"), xhttp.StatusInternalServerError},
	}
	for _, c := range cases {
		ctx := setupTestContext("GET", "/", nil)
		writeServiceError(ctx, c.err)
		assert.Equal(t, c.status, ctx.Response.StatusCode(), c.err.Error())
		assert.Equal(t, "application/json; charset=utf-8", string(ctx.Response.Header.ContentType()))
	}

	ctx := setupTestContext("GET", "/", nil)
	writeServiceError(ctx, fmt.Errorf("%w: pq: password authentication failed", model.ErrPersistence))
	assert.Equal(t, "internal error", errorBody(t, ctx), "storage details are not leaked")
}
