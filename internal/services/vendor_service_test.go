package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/nimasrn/invite-gateway/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestVendorService_RecordSale(t *testing.T) {
	st := newTestStack(t)
	ctx := context.Background()
	svc := NewVendorService(st.vendors, st.db)

	for _, amount := range []float64{45, 60.5} {
		sale, err := svc.RecordSale(ctx, model.VendorSaleRequest{
			VendorCode:        "  carla ",
			PaymentID:         "123",
			ExternalReference: "ref-" + uuid.NewString()[:8],
			Status:            "approved",
			TransactionAmount: amount,
		})
		require.NoError(t, err)
		assert.Equal(t, "carla", sale.VendorCode)
		assert.NotEqual(t, uuid.Nil, sale.ID)
	}

	v, err := st.vendors.GetVendor(ctx, "carla")
	require.NoError(t, err)
	assert.Equal(t, int64(2), v.SalesCount)
	assert.Equal(t, int64(10550), v.TotalAmount)

	sales, err := st.vendors.ListSales(ctx, "carla")
	require.NoError(t, err)
	assert.Len(t, sales, 2)
}

func TestVendorService_RecordSale_Validation(t *testing.T) {
	st := newTestStack(t)
	svc := NewVendorService(st.vendors, st.db)

	_, err := svc.RecordSale(context.Background(), model.VendorSaleRequest{VendorCode: "  ", ExternalReference: "ref-1"})
	assert.True(t, errors.Is(err, model.ErrValidation))

	_, err = svc.RecordSale(context.Background(), model.VendorSaleRequest{VendorCode: "carla"})
	assert.True(t, errors.Is(err, model.ErrValidation))

	_, err = st.vendors.GetVendor(context.Background(), "carla")
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestQueuedSaleRecorder(t *testing.T) {
	pub := new(MockPublisher)
	code, pid := "joao", "555"
	p := &model.Purchase{
		ID:                uuid.New(),
		ExternalReference: "ref-queued",
		TotalAmount:       4500,
		Status:            model.PurchaseStatusApproved,
		VendorCode:        &code,
		PaymentID:         &pid,
	}

	var published model.SaleEvent
	pub.On("PublishJSON", mock.Anything, mock.AnythingOfType("model.SaleEvent"), mock.Anything).
		Run(func(args mock.Arguments) {
			published = args.Get(1).(model.SaleEvent)
			assert.Equal(t, published.EventID, args.Get(2).(map[string]string)["event_id"])
		}).Return("1-0", nil).Once()

	require.NoError(t, NewQueuedSaleRecorder(pub).RecordApprovedSale(context.Background(), p))
	assert.NotEmpty(t, published.EventID)
	assert.Equal(t, "joao", published.Sale.VendorCode)
	assert.Equal(t, "555", published.Sale.PaymentID)
	assert.Equal(t, int64(4500), published.Sale.Amount())
	assert.Equal(t, p.ID, *published.Sale.PurchaseID)

	pub.On("PublishJSON", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("redis down")).Once()
	assert.Error(t, NewQueuedSaleRecorder(pub).RecordApprovedSale(context.Background(), p))
	pub.AssertExpectations(t)
}
