package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/invite-gateway/internal/model"
	"github.com/nimasrn/invite-gateway/pkg/logger"
	"github.com/nimasrn/invite-gateway/pkg/prom"
)

type VendorService struct {
	repo VendorRepository
	tx   Transactor
}

func NewVendorService(repo VendorRepository, tx Transactor) *VendorService {
	return &VendorService{
		repo: repo,
		tx:   tx,
	}
}

// RecordSale appends the sale and bumps the vendor's counters atomically.
func (s *VendorService) RecordSale(ctx context.Context, req model.VendorSaleRequest) (*model.VendorSale, error) {
	req.VendorCode = strings.TrimSpace(req.VendorCode)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sale := &model.VendorSale{
		VendorCode:        req.VendorCode,
		PurchaseID:        req.PurchaseID,
		ExternalReference: req.ExternalReference,
		PaymentID:         req.PaymentID,
		Status:            req.Status,
		Amount:            req.Amount(),
	}

	var recorded *model.VendorSale
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		created, err := s.repo.AppendSale(ctx, sale)
		if err != nil {
			return err
		}
		if err := s.repo.IncrementStats(ctx, sale.VendorCode, sale.Amount); err != nil {
			return err
		}
		recorded = created
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("record vendor sale: %w", err)
	}

	prom.IncVendorSale("recorded")
	logger.Info("vendor sale recorded", "vendor", recorded.VendorCode, "external_reference", recorded.ExternalReference, "amount", recorded.Amount)
	return recorded, nil
}

func (s *VendorService) RecordApprovedSale(ctx context.Context, p *model.Purchase) error {
	_, err := s.RecordSale(ctx, model.SaleRequestFromPurchase(p))
	return err
}

type SalePublisher interface {
	PublishJSON(ctx context.Context, data interface{}, metadata map[string]string) (string, error)
}

// QueuedSaleRecorder hands approved sales to the processor through the queue
// instead of writing them inline.
type QueuedSaleRecorder struct {
	publisher SalePublisher
}

func NewQueuedSaleRecorder(publisher SalePublisher) *QueuedSaleRecorder {
	return &QueuedSaleRecorder{publisher: publisher}
}

func (r *QueuedSaleRecorder) RecordApprovedSale(ctx context.Context, p *model.Purchase) error {
	event := model.SaleEvent{
		EventID:    uuid.NewString(),
		Sale:       model.SaleRequestFromPurchase(p),
		OccurredAt: time.Now().UTC(),
	}
	id, err := r.publisher.PublishJSON(ctx, event, map[string]string{"event_id": event.EventID})
	if err != nil {
		return fmt.Errorf("publish sale event: %w", err)
	}

	prom.IncVendorSale("queued")
	logger.Debug("vendor sale queued", "event_id", event.EventID, "stream_id", id, "vendor", event.Sale.VendorCode)
	return nil
}
