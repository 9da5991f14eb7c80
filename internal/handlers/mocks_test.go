package handlers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/nimasrn/invite-gateway/internal/model"
	xhttp "github.com/nimasrn/invite-gateway/pkg/http"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

type MockPurchaseService struct {
	mock.Mock
}

func (m *MockPurchaseService) CreatePurchase(ctx context.Context, req model.PurchaseCreateRequest) (*model.Purchase, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Purchase), args.Error(1)
}

func (m *MockPurchaseService) GetPurchase(ctx context.Context, idOrReference string) (*model.Purchase, error) {
	args := m.Called(ctx, idOrReference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Purchase), args.Error(1)
}

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) CreatePayment(ctx context.Context, method model.PaymentMethod, req model.PaymentCreateRequest) (*model.PaymentResult, error) {
	args := m.Called(ctx, method, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentResult), args.Error(1)
}

type MockReconciliationService struct {
	mock.Mock
}

func (m *MockReconciliationService) HandleNotification(ctx context.Context, n model.Notification) model.NotificationOutcome {
	return m.Called(ctx, n).Get(0).(model.NotificationOutcome)
}

func (m *MockReconciliationService) ResolvePayment(ctx context.Context, reference string) (*model.PaymentStatus, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentStatus), args.Error(1)
}

type MockTableService struct {
	mock.Mock
}

func (m *MockTableService) List(ctx context.Context) ([]*model.Table, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Table), args.Error(1)
}

func (m *MockTableService) ListAvailable(ctx context.Context, tableType string) ([]*model.Table, error) {
	args := m.Called(ctx, tableType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Table), args.Error(1)
}

func (m *MockTableService) Reserve(ctx context.Context, tableID int64, purchaseRef string) (*model.Reservation, error) {
	args := m.Called(ctx, tableID, purchaseRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Reservation), args.Error(1)
}

type MockVendorService struct {
	mock.Mock
}

func (m *MockVendorService) RecordSale(ctx context.Context, req model.VendorSaleRequest) (*model.VendorSale, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VendorSale), args.Error(1)
}

type MockHealthService struct {
	mock.Mock
}

func (m *MockHealthService) Check(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// setupTestContext initializes the ctx with fasthttp's fake server so that
// handlers deriving a context.Context from it can call Done and Deadline.
func setupTestContext(method, path string, body []byte) *xhttp.RequestCtx {
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(path)
	if body != nil {
		req.SetBody(body)
	}
	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&req, nil, nil)
	return ctx
}

func decodeBody(t *testing.T, ctx *xhttp.RequestCtx, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), dst))
}

func errorBody(t *testing.T, ctx *xhttp.RequestCtx) string {
	t.Helper()
	var body map[string]string
	decodeBody(t, ctx, &body)
	return body["error"]
}
