package model

import "encoding/json"

type PaymentMethod string

const (
	PaymentMethodCreditCard PaymentMethod = "credit_card"
	PaymentMethodDebitCard  PaymentMethod = "debit_card"
	PaymentMethodPix        PaymentMethod = "pix"
)

func (m PaymentMethod) IsCard() bool {
	return m == PaymentMethodCreditCard || m == PaymentMethodDebitCard
}

type Identification struct {
	Type   string `json:"type,omitempty"`
	Number string `json:"number,omitempty"`
}

type Payer struct {
	Email          string          `json:"email" validate:"required,email"`
	FirstName      string          `json:"first_name,omitempty"`
	LastName       string          `json:"last_name,omitempty"`
	Identification *Identification `json:"identification,omitempty"`
}

// PaymentCreateRequest is the payment_data posted by the checkout brick plus
// the purchase reference. Card and pix specific fields are checked by Validate.
type PaymentCreateRequest struct {
	PaymentMethodID     string  `json:"payment_method_id" validate:"required"`
	TransactionAmount   float64 `json:"transaction_amount" validate:"gt=0"`
	Payer               Payer   `json:"payer"`
	ExternalReference   string  `json:"external_reference" validate:"required"`
	Token               string  `json:"token,omitempty"`
	Installments        int     `json:"installments,omitempty" validate:"gte=0"`
	IssuerID            string  `json:"issuer_id,omitempty"`
	Description         string  `json:"description,omitempty"`
	StatementDescriptor string  `json:"statement_descriptor,omitempty"`
	NotificationURL     string  `json:"notification_url,omitempty"`
}

func (r *PaymentCreateRequest) Validate(method PaymentMethod) error {
	if err := validateStruct(r); err != nil {
		return err
	}
	switch {
	case method.IsCard():
		if r.Token == "" {
			return validationError("token is required for %s", method)
		}
		if r.StatementDescriptor == "" {
			return validationError("statement_descriptor is required for %s", method)
		}
	case method == PaymentMethodPix:
		if r.NotificationURL == "" {
			return validationError("notification_url is required for pix")
		}
	default:
		return validationError("unknown payment method %q", method)
	}
	return nil
}

// PaymentResult is returned to the client after a payment was created.
type PaymentResult struct {
	PaymentID    string `json:"payment_id"`
	Status       string `json:"status"`
	QRCode       string `json:"qr_code,omitempty"`
	QRCodeBase64 string `json:"qr_code_base64,omitempty"`
	TicketURL    string `json:"ticket_url,omitempty"`
}

// PaymentStatus is the answer of the status poll.
type PaymentStatus struct {
	PaymentID string `json:"payment_id"`
	Status    string `json:"status"`
}

// GatewayPayment is what the client extracts from a gateway payment document.
// Raw keeps the full document so it can be stored as payment_details.
type GatewayPayment struct {
	ID                string
	Status            string
	ExternalReference string
	QRCode            string
	QRCodeBase64      string
	TicketURL         string
	Raw               json.RawMessage
}

func (p *GatewayPayment) Update() PaymentUpdate {
	return PaymentUpdate{
		PaymentID: p.ID,
		Status:    PurchaseStatus(p.Status),
		Details:   p.Raw,
	}
}

type PreferenceItem struct {
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id"`
}

type BackURLs struct {
	Success string `json:"success,omitempty"`
	Failure string `json:"failure,omitempty"`
	Pending string `json:"pending,omitempty"`
}

type PreferenceRequest struct {
	Items             []PreferenceItem `json:"items"`
	BackURLs          BackURLs         `json:"back_urls"`
	AutoReturn        string           `json:"auto_return,omitempty"`
	ExternalReference string           `json:"external_reference"`
	NotificationURL   string           `json:"notification_url,omitempty"`
}

type Preference struct {
	ID        string
	InitPoint string
}
