package services

import (
	"context"
	"testing"

	"github.com/nimasrn/invite-gateway/internal/model"
	"github.com/nimasrn/invite-gateway/internal/repository"
	"github.com/nimasrn/invite-gateway/pkg/pg"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) CreatePayment(ctx context.Context, req *model.PaymentCreateRequest, key string) (*model.GatewayPayment, error) {
	args := m.Called(ctx, req, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.GatewayPayment), args.Error(1)
}

func (m *MockPaymentGateway) GetPayment(ctx context.Context, paymentID string) (*model.GatewayPayment, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.GatewayPayment), args.Error(1)
}

func (m *MockPaymentGateway) SearchPayments(ctx context.Context, ref string) ([]*model.GatewayPayment, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.GatewayPayment), args.Error(1)
}

func (m *MockPaymentGateway) CreatePreference(ctx context.Context, req *model.PreferenceRequest) (*model.Preference, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Preference), args.Error(1)
}

type MockSaleRecorder struct {
	mock.Mock
}

func (m *MockSaleRecorder) RecordApprovedSale(ctx context.Context, p *model.Purchase) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishJSON(ctx context.Context, data interface{}, metadata map[string]string) (string, error) {
	args := m.Called(ctx, data, metadata)
	return args.String(0), args.Error(1)
}

type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// testStack wires the real repositories on sqlite with a mocked gateway.
type testStack struct {
	db           *pg.DB
	purchases    *repository.PurchaseRepository
	tables       *repository.TableRepository
	reservations *repository.ReservationRepository
	vendors      *repository.VendorRepository
	gateway      *MockPaymentGateway
	ledger       *PurchaseService
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	db := repository.SetupTestDB(t)
	s := &testStack{
		db:           db,
		purchases:    repository.NewPurchaseRepository(db),
		tables:       repository.NewTableRepository(db),
		reservations: repository.NewReservationRepository(db),
		vendors:      repository.NewVendorRepository(db),
		gateway:      new(MockPaymentGateway),
	}
	s.ledger = NewPurchaseService(s.purchases, s.gateway, PreferenceConfig{})
	return s
}

func (s *testStack) createPurchase(t *testing.T, req model.PurchaseCreateRequest) *model.Purchase {
	t.Helper()
	if req.Phone == "" {
		req.Phone = "(11) 98765-4321"
	}
	if req.InviteType == "" {
		req.InviteType = model.InviteUnitario
	}
	p, err := s.ledger.CreatePurchase(context.Background(), req)
	require.NoError(t, err)
	return p
}
