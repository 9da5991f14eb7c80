package processor

import (
	"context"
	"errors"
	"time"

	"github.com/nimasrn/invite-gateway/internal/model"
	"github.com/nimasrn/invite-gateway/internal/queue"
	"github.com/nimasrn/invite-gateway/pkg/logger"
	"github.com/nimasrn/invite-gateway/pkg/prom"
)

type SaleWriter interface {
	RecordSale(ctx context.Context, req model.VendorSaleRequest) (*model.VendorSale, error)
}

type EventPublisher interface {
	PublishJSON(ctx context.Context, event any) error
}

// SaleEventProcessor records queued vendor sales exactly once per event id.
type SaleEventProcessor struct {
	sales       SaleWriter
	idempotency *IdempotencyService
	publisher   EventPublisher
}

func NewSaleEventProcessor(sales SaleWriter, idempotency *IdempotencyService, publisher EventPublisher) *SaleEventProcessor {
	return &SaleEventProcessor{
		sales:       sales,
		idempotency: idempotency,
		publisher:   publisher,
	}
}

func (p *SaleEventProcessor) GetType() string {
	return "vendor_sale"
}

// Process returns nil for anything that must not be retried so the queue
// acks it.
func (p *SaleEventProcessor) Process(ctx context.Context, msg *queue.Message) error {
	var event model.SaleEvent
	if err := msg.Decode(&event); err != nil || event.EventID == "" {
		logger.Error("discarding malformed sale event", "stream_id", msg.ID, "error", err)
		prom.IncProcessorEvent("invalid")
		return nil
	}

	pc, err := p.idempotency.AcquireProcessingLock(ctx, event.EventID)
	switch {
	case errors.Is(err, ErrAlreadyProcessed):
		logger.Info("sale event already processed", "event_id", event.EventID)
		prom.IncProcessorEvent("duplicate")
		return nil
	case errors.Is(err, ErrMaxRetriesExceeded):
		logger.Error("sale event gave up", "event_id", event.EventID, "error", err)
		prom.IncProcessorEvent("exhausted")
		return nil
	case err != nil:
		return err
	}
	defer func() {
		_ = p.idempotency.ReleaseLock(ctx, pc)
	}()

	sale, err := p.sales.RecordSale(ctx, event.Sale)
	if err != nil {
		if errors.Is(err, model.ErrValidation) {
			logger.Error("sale event rejected", "event_id", event.EventID, "error", err)
			_ = p.idempotency.MarkSuccess(ctx, pc)
			prom.IncProcessorEvent("invalid")
			return nil
		}
		_ = p.idempotency.MarkFailure(ctx, pc, err)
		prom.IncProcessorEvent("failed")
		return err
	}

	if err := p.idempotency.MarkSuccess(ctx, pc); err != nil {
		logger.Error("sale recorded but not marked processed", "event_id", event.EventID, "error", err)
	}
	prom.IncProcessorEvent("recorded")

	p.announce(ctx, event, sale)
	return nil
}

// announce is best effort: the sale is already stored.
func (p *SaleEventProcessor) announce(ctx context.Context, event model.SaleEvent, sale *model.VendorSale) {
	if p.publisher == nil {
		return
	}
	approved := model.PurchaseApprovedEvent{
		EventID:           event.EventID,
		PurchaseID:        sale.PurchaseID,
		ExternalReference: sale.ExternalReference,
		PaymentID:         sale.PaymentID,
		VendorCode:        sale.VendorCode,
		Amount:            sale.Amount,
		ApprovedAt:        time.Now().UTC(),
	}
	if err := p.publisher.PublishJSON(ctx, approved); err != nil {
		logger.Warn("purchase.approved not published", "event_id", event.EventID, "error", err)
	}
}
