package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/nimasrn/invite-gateway/internal/model"
	"github.com/nimasrn/invite-gateway/pkg/logger"
)

// PaymentDefaults fill in request fields the checkout may leave empty.
type PaymentDefaults struct {
	StatementDescriptor string
	NotificationURL     string
}

type PaymentService struct {
	purchases PurchaseRepository
	gateway   PaymentGateway
	defaults  PaymentDefaults
}

func NewPaymentService(purchases PurchaseRepository, gateway PaymentGateway, defaults PaymentDefaults) *PaymentService {
	return &PaymentService{
		purchases: purchases,
		gateway:   gateway,
		defaults:  defaults,
	}
}

func (s *PaymentService) CreatePayment(ctx context.Context, method model.PaymentMethod, req model.PaymentCreateRequest) (*model.PaymentResult, error) {
	if method.IsCard() && req.StatementDescriptor == "" {
		req.StatementDescriptor = s.defaults.StatementDescriptor
	}
	if method == model.PaymentMethodPix && req.NotificationURL == "" {
		req.NotificationURL = s.defaults.NotificationURL
	}
	if err := req.Validate(method); err != nil {
		return nil, err
	}

	p, err := s.purchases.GetByReference(ctx, req.ExternalReference)
	if err != nil {
		return nil, err
	}
	if cents := model.AmountToCents(req.TransactionAmount); cents != p.TotalAmount {
		return nil, fmt.Errorf("%w: transaction_amount %.2f does not match purchase total %.2f",
			model.ErrValidation, req.TransactionAmount, model.CentsToAmount(p.TotalAmount))
	}
	if req.Description == "" {
		req.Description = p.InviteType.Title()
	}

	payment, err := s.gateway.CreatePayment(ctx, &req, uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("create %s payment: %w", method, err)
	}

	if _, err := s.purchases.ApplyPaymentUpdate(ctx, p.ExternalReference, payment.Update()); err != nil {
		return nil, fmt.Errorf("store payment %s: %w", payment.ID, err)
	}

	logger.Info("payment stored", "method", method, "payment_id", payment.ID, "status", payment.Status, "external_reference", p.ExternalReference)

	result := &model.PaymentResult{
		PaymentID: payment.ID,
		Status:    payment.Status,
	}
	if method == model.PaymentMethodPix {
		result.QRCode = payment.QRCode
		result.QRCodeBase64 = payment.QRCodeBase64
		result.TicketURL = payment.TicketURL
	}
	return result, nil
}
