package fixtures

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/invite-gateway/internal/model"
)

var (
	TableRegular = model.Table{
		ID:       1,
		Number:   49,
		Type:     model.TableTypeRegular,
		Capacity: 4,
		Location: "salao",
		Status:   model.TableStatusAvailable,
	}

	TableRegularReserved = model.Table{
		ID:       2,
		Number:   37,
		Type:     model.TableTypeRegular,
		Capacity: 4,
		Location: "salao",
		Status:   model.TableStatusReserved,
	}

	TableCamarote = model.Table{
		ID:       3,
		Number:   1,
		Type:     model.TableTypeCamarote,
		Capacity: 8,
		Location: "camarote",
		Status:   model.TableStatusAvailable,
	}
)

func Tables() []model.Table {
	return []model.Table{TableRegular, TableRegularReserved, TableCamarote}
}

func NewPurchaseCreateRequest(inviteType model.InviteType, mesa, estacionamento bool) model.PurchaseCreateRequest {
	return model.PurchaseCreateRequest{
		Name:           "Maria",
		Surname:        "Silva",
		Phone:          "(11) 98765-4321",
		InviteType:     inviteType,
		Mesa:           mesa,
		Estacionamento: estacionamento,
	}
}

func PurchaseCreateRequestWithVendor(vendor string) model.PurchaseCreateRequest {
	req := NewPurchaseCreateRequest(model.InviteCasal, true, false)
	req.VendorCode = vendor
	return req
}

func NewTestPurchase(inviteType model.InviteType, mesa, estacionamento bool) *model.Purchase {
	now := time.Now().UTC()
	return &model.Purchase{
		ID:                uuid.New(),
		ExternalReference: NewReference(),
		Name:              "Maria",
		Surname:           "Silva",
		Phone:             "11987654321",
		InviteType:        inviteType,
		Mesa:              mesa,
		Estacionamento:    estacionamento,
		TotalAmount:       model.ComputeTotal(inviteType, mesa, estacionamento),
		Status:            model.PurchaseStatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func NewReference() string {
	return "ref-" + uuid.NewString()[:13]
}

func PixPaymentRequest(reference string, amount float64) model.PaymentCreateRequest {
	return model.PaymentCreateRequest{
		PaymentMethodID:   "pix",
		TransactionAmount: amount,
		Payer:             model.Payer{Email: "maria@example.com"},
		ExternalReference: reference,
	}
}

func CardPaymentRequest(reference string, amount float64) model.PaymentCreateRequest {
	return model.PaymentCreateRequest{
		PaymentMethodID:   "visa",
		TransactionAmount: amount,
		Payer:             model.Payer{Email: "maria@example.com"},
		ExternalReference: reference,
		Token:             "card-token-123",
		Installments:      1,
	}
}

// PaymentJSON renders a provider payment resource.
func PaymentJSON(id string, status model.PurchaseStatus, reference string) string {
	return fmt.Sprintf(`{"id":%s,"status":%q,"external_reference":%q,"transaction_amount":65}`, id, status, reference)
}

// WebhookBody is the payment notification the provider posts.
func WebhookBody(paymentID string) string {
	return fmt.Sprintf(`{"action":"payment.updated","type":"payment","data":{"id":%q}}`, paymentID)
}

var (
	ValidPhones = []string{
		"(11) 98765-4321",
		"11987654321",
		"11 8765-4321",
		"(21)3456-7890",
	}

	InvalidPhones = []string{
		"",
		"123",
		"+55 11 98765-4321",
		"abc",
	}

	ValidReferences = []string{
		"abc123",
		"ref_2026-01",
		"A",
	}

	InvalidReferences = []string{
		"",
		"has space",
		"semi;colon",
	}
)
