package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/nimasrn/invite-gateway/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func pixRequest(ref string, amount float64) model.PaymentCreateRequest {
	return model.PaymentCreateRequest{
		PaymentMethodID:   "pix",
		TransactionAmount: amount,
		Payer:             model.Payer{Email: "ana@example.com"},
		ExternalReference: ref,
	}
}

func TestPaymentService_CreatePix(t *testing.T) {
	st := newTestStack(t)
	ctx := context.Background()
	p := st.createPurchase(t, model.PurchaseCreateRequest{})
	svc := NewPaymentService(st.purchases, st.gateway, PaymentDefaults{NotificationURL: "https://api.example.com/webhook"})

	st.gateway.On("CreatePayment", mock.Anything, mock.MatchedBy(func(r *model.PaymentCreateRequest) bool {
		return r.NotificationURL == "https://api.example.com/webhook" && r.Description == "Convite unitário"
	}), mock.AnythingOfType("string")).Return(&model.GatewayPayment{
		ID:                "1001",
		Status:            "pending",
		ExternalReference: p.ExternalReference,
		QRCode:            "000201...",
		QRCodeBase64:      "iVBORw0KGgo=",
		TicketURL:         "https://gateway.example.com/ticket/1001",
		Raw:               []byte(`{"id":1001,"status":"pending"}`),
	}, nil).Once()

	result, err := svc.CreatePayment(ctx, model.PaymentMethodPix, pixRequest(p.ExternalReference, 25))
	require.NoError(t, err)
	assert.Equal(t, "1001", result.PaymentID)
	assert.Equal(t, "pending", result.Status)
	assert.Equal(t, "000201...", result.QRCode)
	assert.Equal(t, "iVBORw0KGgo=", result.QRCodeBase64)
	assert.NotEmpty(t, result.TicketURL)

	got, err := st.ledger.GetPurchase(ctx, p.ExternalReference)
	require.NoError(t, err)
	require.NotNil(t, got.PaymentID)
	assert.Equal(t, "1001", *got.PaymentID)
	assert.JSONEq(t, `{"id":1001,"status":"pending"}`, string(got.PaymentDetails))
	st.gateway.AssertExpectations(t)
}

func TestPaymentService_CreateCard(t *testing.T) {
	st := newTestStack(t)
	ctx := context.Background()
	p := st.createPurchase(t, model.PurchaseCreateRequest{Estacionamento: true})
	svc := NewPaymentService(st.purchases, st.gateway, PaymentDefaults{StatementDescriptor: "CONVITES"})

	var keys []string
	st.gateway.On("CreatePayment", mock.Anything, mock.MatchedBy(func(r *model.PaymentCreateRequest) bool {
		return r.StatementDescriptor == "CONVITES" && r.Token == "tok_123"
	}), mock.AnythingOfType("string")).Run(func(args mock.Arguments) {
		keys = append(keys, args.String(2))
	}).Return(&model.GatewayPayment{ID: "2002", Status: "approved", ExternalReference: p.ExternalReference, QRCode: "ignored"}, nil).Twice()

	req := model.PaymentCreateRequest{
		PaymentMethodID:   "visa",
		TransactionAmount: 45,
		Payer:             model.Payer{Email: "ana@example.com"},
		ExternalReference: p.ExternalReference,
		Token:             "tok_123",
		Installments:      1,
	}
	result, err := svc.CreatePayment(ctx, model.PaymentMethodCreditCard, req)
	require.NoError(t, err)
	assert.Equal(t, "approved", result.Status)
	assert.Empty(t, result.QRCode)

	_, err = svc.CreatePayment(ctx, model.PaymentMethodCreditCard, req)
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.NotEqual(t, keys[0], keys[1])

	got, err := st.ledger.GetPurchase(ctx, p.ExternalReference)
	require.NoError(t, err)
	assert.Equal(t, model.PurchaseStatusApproved, got.Status)
}

func TestPaymentService_CreatePayment_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("amount mismatch", func(t *testing.T) {
		st := newTestStack(t)
		p := st.createPurchase(t, model.PurchaseCreateRequest{})
		svc := NewPaymentService(st.purchases, st.gateway, PaymentDefaults{NotificationURL: "https://n"})

		_, err := svc.CreatePayment(ctx, model.PaymentMethodPix, pixRequest(p.ExternalReference, 10))
		assert.True(t, errors.Is(err, model.ErrValidation))
		assert.Empty(t, st.gateway.Calls)
	})

	t.Run("missing card token", func(t *testing.T) {
		st := newTestStack(t)
		p := st.createPurchase(t, model.PurchaseCreateRequest{})
		svc := NewPaymentService(st.purchases, st.gateway, PaymentDefaults{StatementDescriptor: "CONVITES"})

		req := pixRequest(p.ExternalReference, 25)
		req.PaymentMethodID = "master"
		_, err := svc.CreatePayment(ctx, model.PaymentMethodDebitCard, req)
		assert.True(t, errors.Is(err, model.ErrValidation))
	})

	t.Run("unknown purchase", func(t *testing.T) {
		st := newTestStack(t)
		svc := NewPaymentService(st.purchases, st.gateway, PaymentDefaults{NotificationURL: "https://n"})

		_, err := svc.CreatePayment(ctx, model.PaymentMethodPix, pixRequest("missing-ref", 25))
		assert.True(t, errors.Is(err, model.ErrNotFound))
		assert.Empty(t, st.gateway.Calls)
	})

	t.Run("gateway failure leaves purchase untouched", func(t *testing.T) {
		st := newTestStack(t)
		p := st.createPurchase(t, model.PurchaseCreateRequest{})
		svc := NewPaymentService(st.purchases, st.gateway, PaymentDefaults{NotificationURL: "https://n"})
		st.gateway.On("CreatePayment", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("%w: status 500", model.ErrGatewayUnavailable)).Once()

		_, err := svc.CreatePayment(ctx, model.PaymentMethodPix, pixRequest(p.ExternalReference, 25))
		assert.True(t, errors.Is(err, model.ErrGatewayUnavailable))

		got, err := st.ledger.GetPurchase(ctx, p.ExternalReference)
		require.NoError(t, err)
		assert.Equal(t, model.PurchaseStatusPending, got.Status)
		assert.Nil(t, got.PaymentID)
	})
}
