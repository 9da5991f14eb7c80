package model

import (
	"time"

	"github.com/google/uuid"
)

// VendorSale is an append-only record of a sale attributed to a vendor.
type VendorSale struct {
	ID                uuid.UUID  `json:"id"`
	VendorCode        string     `json:"vendedor"`
	PurchaseID        *uuid.UUID `json:"purchase_id,omitempty"`
	ExternalReference string     `json:"external_reference"`
	PaymentID         string     `json:"payment_id"`
	Status            string     `json:"status"`
	Amount            int64      `json:"amount"`
	CreatedAt         time.Time  `json:"created_at"`
}

type Vendor struct {
	Code        string    `json:"code"`
	SalesCount  int64     `json:"sales_count"`
	TotalAmount int64     `json:"total_amount"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// VendorSaleRequest is posted by the payment status screen when a sale was
// made through a vendor link. TransactionAmount is in BRL.
type VendorSaleRequest struct {
	VendorCode        string     `json:"vendedor" validate:"required"`
	PaymentID         string     `json:"id"`
	ExternalReference string     `json:"external_reference" validate:"required"`
	Status            string     `json:"status"`
	TransactionAmount float64    `json:"transaction_amount" validate:"gte=0"`
	PurchaseID        *uuid.UUID `json:"purchase_id,omitempty"`
}

func (r *VendorSaleRequest) Validate() error {
	return validateStruct(r)
}

func (r *VendorSaleRequest) Amount() int64 {
	return AmountToCents(r.TransactionAmount)
}

// SaleRequestFromPurchase builds the sale for an approved purchase.
func SaleRequestFromPurchase(p *Purchase) VendorSaleRequest {
	req := VendorSaleRequest{
		ExternalReference: p.ExternalReference,
		Status:            string(p.Status),
		TransactionAmount: CentsToAmount(p.TotalAmount),
	}
	if p.VendorCode != nil {
		req.VendorCode = *p.VendorCode
	}
	if p.PaymentID != nil {
		req.PaymentID = *p.PaymentID
	}
	id := p.ID
	req.PurchaseID = &id
	return req
}

// SaleEvent carries a vendor sale through the queue. EventID is the
// idempotency key on the consumer side.
type SaleEvent struct {
	EventID    string            `json:"event_id"`
	Sale       VendorSaleRequest `json:"sale"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// PurchaseApprovedEvent is broadcast once a vendor sale has been recorded.
type PurchaseApprovedEvent struct {
	EventID           string     `json:"event_id"`
	PurchaseID        *uuid.UUID `json:"purchase_id,omitempty"`
	ExternalReference string     `json:"external_reference"`
	PaymentID         string     `json:"payment_id"`
	VendorCode        string     `json:"vendedor"`
	Amount            int64      `json:"amount"`
	ApprovedAt        time.Time  `json:"approved_at"`
}
