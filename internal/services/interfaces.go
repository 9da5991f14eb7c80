package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/invite-gateway/internal/model"
)

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type PurchaseRepository interface {
	Create(ctx context.Context, p *model.Purchase) (*model.Purchase, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Purchase, error)
	GetByReference(ctx context.Context, ref string) (*model.Purchase, error)
	ApplyPaymentUpdate(ctx context.Context, ref string, u model.PaymentUpdate) (*model.Purchase, error)
	SetPreferenceID(ctx context.Context, id uuid.UUID, preferenceID string) error
	ListPending(ctx context.Context, createdBefore time.Time, limit int) ([]*model.Purchase, error)
	ListApprovedWithoutSale(ctx context.Context, updatedBefore time.Time, limit int) ([]*model.Purchase, error)
}

type TableRepository interface {
	List(ctx context.Context) ([]*model.Table, error)
	ListByStatus(ctx context.Context, status model.TableStatus, tableType model.TableType) ([]*model.Table, error)
	GetByID(ctx context.Context, id int64) (*model.Table, error)
	MarkReserved(ctx context.Context, id int64) error
}

type ReservationRepository interface {
	Create(ctx context.Context, r *model.Reservation) (*model.Reservation, error)
}

type VendorRepository interface {
	AppendSale(ctx context.Context, s *model.VendorSale) (*model.VendorSale, error)
	IncrementStats(ctx context.Context, code string, amount int64) error
}

type PaymentGateway interface {
	CreatePayment(ctx context.Context, req *model.PaymentCreateRequest, idempotencyKey string) (*model.GatewayPayment, error)
	GetPayment(ctx context.Context, paymentID string) (*model.GatewayPayment, error)
	SearchPayments(ctx context.Context, externalReference string) ([]*model.GatewayPayment, error)
	CreatePreference(ctx context.Context, req *model.PreferenceRequest) (*model.Preference, error)
}

// PurchaseLookup resolves a purchase by external reference or id.
type PurchaseLookup interface {
	GetPurchase(ctx context.Context, idOrReference string) (*model.Purchase, error)
}

// SaleRecorder is told about every purchase that turned approved while
// carrying a vendor code.
type SaleRecorder interface {
	RecordApprovedSale(ctx context.Context, p *model.Purchase) error
}
