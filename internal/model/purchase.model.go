package model

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

type InviteType string

const (
	InviteUnitario InviteType = "unitario"
	InviteCasal    InviteType = "casal"
)

// Prices in cents.
const (
	PriceUnitario     int64 = 2500
	PriceCasal        int64 = 4000
	FeeMesa           int64 = 2000
	FeeEstacionamento int64 = 2000
)

func (t InviteType) Valid() bool {
	return t == InviteUnitario || t == InviteCasal
}

func (t InviteType) BasePrice() int64 {
	switch t {
	case InviteUnitario:
		return PriceUnitario
	case InviteCasal:
		return PriceCasal
	}
	return 0
}

func (t InviteType) Title() string {
	if t == InviteCasal {
		return "Convite casal"
	}
	return "Convite unitário"
}

// PurchaseStatus mirrors the gateway's payment status. Values coming from the
// gateway are stored verbatim, so the constants are not exhaustive.
type PurchaseStatus string

const (
	PurchaseStatusPending     PurchaseStatus = "pending"
	PurchaseStatusApproved    PurchaseStatus = "approved"
	PurchaseStatusRejected    PurchaseStatus = "rejected"
	PurchaseStatusCancelled   PurchaseStatus = "cancelled"
	PurchaseStatusInProcess   PurchaseStatus = "in_process"
	PurchaseStatusRefunded    PurchaseStatus = "refunded"
	PurchaseStatusChargedBack PurchaseStatus = "charged_back"
)

type Purchase struct {
	ID                uuid.UUID       `json:"id"`
	ExternalReference string          `json:"external_reference"`
	Name              string          `json:"nome"`
	Surname           string          `json:"sobrenome"`
	Phone             string          `json:"telefone"`
	InviteType        InviteType      `json:"invite_type"`
	Mesa              bool            `json:"mesa"`
	Estacionamento    bool            `json:"estacionamento"`
	TotalAmount       int64           `json:"total_amount"`
	Status            PurchaseStatus  `json:"status"`
	PaymentID         *string         `json:"payment_id,omitempty"`
	PaymentDetails    json.RawMessage `json:"payment_details,omitempty"`
	VendorCode        *string         `json:"vendor_code,omitempty"`
	PreferenceID      *string         `json:"preference_id,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (p *Purchase) HasVendor() bool {
	return p.VendorCode != nil && *p.VendorCode != ""
}

// PurchaseCreateRequest uses the field names the checkout form posts.
type PurchaseCreateRequest struct {
	Name              string     `json:"nome"`
	Surname           string     `json:"sobrenome"`
	Phone             string     `json:"telefone"`
	InviteType        InviteType `json:"conviteType"`
	Mesa              bool       `json:"mesa"`
	Estacionamento    bool       `json:"estacionamento"`
	ExternalReference string     `json:"external_reference,omitempty"`
	VendorCode        string     `json:"vendedor,omitempty"`
}

func (r PurchaseCreateRequest) Validate() error {
	if !ValidPhone(r.Phone) {
		return validationError("invalid phone %q", r.Phone)
	}
	if !r.InviteType.Valid() {
		return validationError("unknown invite type %q", r.InviteType)
	}
	if r.ExternalReference != "" && !ValidReference(r.ExternalReference) {
		return validationError("invalid external_reference %q", r.ExternalReference)
	}
	return nil
}

// Total is base(invite_type) plus a flat fee for each add-on.
func (r PurchaseCreateRequest) Total() int64 {
	return ComputeTotal(r.InviteType, r.Mesa, r.Estacionamento)
}

func ComputeTotal(t InviteType, mesa, estacionamento bool) int64 {
	total := t.BasePrice()
	if mesa {
		total += FeeMesa
	}
	if estacionamento {
		total += FeeEstacionamento
	}
	return total
}

// PaymentUpdate overwrites the gateway-owned fields of a purchase.
type PaymentUpdate struct {
	PaymentID string
	Status    PurchaseStatus
	Details   json.RawMessage
}

// PurchaseCreated is the body returned by the create endpoint.
type PurchaseCreated struct {
	PurchaseID        string  `json:"purchase_id"`
	Amount            int64   `json:"amount"`
	ExternalReference string  `json:"external_reference"`
	PreferenceID      *string `json:"preference_id,omitempty"`
}

var (
	phonePattern     = regexp.MustCompile(`^\(?\d{2}\)?\s?\d{4,5}-?\d{4}$`)
	referencePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	nonDigit         = regexp.MustCompile(`\D`)
)

// ValidPhone accepts a two digit area code followed by a 4-5 digit prefix and
// a 4 digit suffix, with optional parentheses, space and dash.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(strings.TrimSpace(phone))
}

func NormalizePhone(phone string) string {
	return nonDigit.ReplaceAllString(phone, "")
}

func ValidReference(ref string) bool {
	return referencePattern.MatchString(ref)
}
