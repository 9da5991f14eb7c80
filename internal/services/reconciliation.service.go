package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nimasrn/invite-gateway/internal/model"
	"github.com/nimasrn/invite-gateway/pkg/logger"
	"github.com/nimasrn/invite-gateway/pkg/prom"
	"github.com/tidwall/gjson"
)

var ErrPaymentIDNotFound = fmt.Errorf("payment id %w", model.ErrNotFound)

// ReconciliationService keeps purchase status in line with the gateway, from
// webhooks (push), status polls (pull) and the pending sweep.
type ReconciliationService struct {
	purchases PurchaseRepository
	lookup    PurchaseLookup
	gateway   PaymentGateway
	sales     SaleRecorder
}

func NewReconciliationService(purchases PurchaseRepository, lookup PurchaseLookup, gateway PaymentGateway, sales SaleRecorder) *ReconciliationService {
	return &ReconciliationService{
		purchases: purchases,
		lookup:    lookup,
		gateway:   gateway,
		sales:     sales,
	}
}

// HandleNotification applies one gateway callback. It never fails: the
// caller always acknowledges, the outcome is only logged and counted.
func (s *ReconciliationService) HandleNotification(ctx context.Context, n model.Notification) model.NotificationOutcome {
	outcome := s.handleNotification(ctx, n)
	prom.IncWebhookNotification(string(outcome))
	return outcome
}

func (s *ReconciliationService) handleNotification(ctx context.Context, n model.Notification) model.NotificationOutcome {
	if !n.IsPayment() {
		logger.Debug("webhook ignored", "type", n.Type, "data_id", n.DataID)
		return model.OutcomeIgnored
	}

	payment, err := s.gateway.GetPayment(ctx, n.DataID)
	if err != nil {
		logger.Warn("webhook payment fetch failed", "payment_id", n.DataID, "error", err)
		return model.OutcomeFetchFailed
	}
	if payment.ExternalReference == "" {
		logger.Warn("webhook payment without external reference", "payment_id", payment.ID)
		return model.OutcomeUncorrelated
	}

	p, err := s.purchases.ApplyPaymentUpdate(ctx, payment.ExternalReference, payment.Update())
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Warn("webhook for unknown purchase", "payment_id", payment.ID, "external_reference", payment.ExternalReference)
			return model.OutcomeUnknownReference
		}
		logger.Error("webhook update failed", "payment_id", payment.ID, "external_reference", payment.ExternalReference, "error", err)
		return model.OutcomePersistFailed
	}

	logger.Info("purchase reconciled", "external_reference", p.ExternalReference, "payment_id", payment.ID, "status", p.Status)

	if err := s.recordSale(ctx, p); err != nil {
		logger.Error("vendor sale not recorded", "external_reference", p.ExternalReference, "error", err)
		return model.OutcomeSaleFailed
	}
	return model.OutcomeApplied
}

// ResolvePayment answers the status poll. A cached payment id is served
// without calling the gateway.
func (s *ReconciliationService) ResolvePayment(ctx context.Context, reference string) (*model.PaymentStatus, error) {
	p, err := s.lookup.GetPurchase(ctx, reference)
	if err != nil {
		return nil, err
	}

	if p.PaymentID != nil && *p.PaymentID != "" {
		return &model.PaymentStatus{PaymentID: *p.PaymentID, Status: string(p.Status)}, nil
	}

	results, err := s.gateway.SearchPayments(ctx, p.ExternalReference)
	if err != nil {
		return nil, fmt.Errorf("search payments for %s: %w", p.ExternalReference, err)
	}

	if len(results) > 0 {
		latest := results[0]
		if _, err := s.purchases.ApplyPaymentUpdate(ctx, p.ExternalReference, latest.Update()); err != nil {
			return nil, fmt.Errorf("store payment %s: %w", latest.ID, err)
		}
		return &model.PaymentStatus{PaymentID: latest.ID, Status: latest.Status}, nil
	}

	if id := gjson.GetBytes(p.PaymentDetails, "id").String(); id != "" {
		return &model.PaymentStatus{PaymentID: id, Status: string(p.Status)}, nil
	}

	return nil, ErrPaymentIDNotFound
}

// SyncPending re-checks pending purchases older than olderThan and returns how
// many changed status. It then records vendor sales for approved purchases
// that never got one, such as card payments approved at creation or
// approvals found by a status poll whose webhook was lost.
func (s *ReconciliationService) SyncPending(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	pending, err := s.purchases.ListPending(ctx, cutoff, limit)
	if err != nil {
		return 0, err
	}

	handled := make(map[string]struct{}, len(pending))
	updated := 0
	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return updated, err
		}

		latest, err := s.latestPayment(ctx, p)
		if err != nil {
			logger.Warn("sweep: payment lookup failed", "external_reference", p.ExternalReference, "error", err)
			continue
		}
		if latest == nil || latest.Status == string(p.Status) {
			continue
		}

		u, err := s.purchases.ApplyPaymentUpdate(ctx, p.ExternalReference, latest.Update())
		if err != nil {
			logger.Warn("sweep: update failed", "external_reference", p.ExternalReference, "error", err)
			continue
		}
		updated++
		handled[u.ExternalReference] = struct{}{}
		logger.Info("sweep: purchase reconciled", "external_reference", u.ExternalReference, "status", u.Status)

		if err := s.recordSale(ctx, u); err != nil {
			logger.Error("sweep: vendor sale not recorded", "external_reference", u.ExternalReference, "error", err)
		}
	}

	prom.AddSweepUpdated(updated)
	if ctx.Err() == nil {
		s.backfillSales(ctx, cutoff, limit, handled)
	}
	return updated, nil
}

func (s *ReconciliationService) backfillSales(ctx context.Context, cutoff time.Time, limit int, skip map[string]struct{}) {
	if s.sales == nil {
		return
	}
	missing, err := s.purchases.ListApprovedWithoutSale(ctx, cutoff, limit)
	if err != nil {
		logger.Warn("sweep: listing approved purchases failed", "error", err)
		return
	}
	for _, p := range missing {
		if ctx.Err() != nil {
			return
		}
		if _, ok := skip[p.ExternalReference]; ok {
			continue
		}
		if err := s.recordSale(ctx, p); err != nil {
			logger.Error("sweep: vendor sale not recorded", "external_reference", p.ExternalReference, "error", err)
			continue
		}
		logger.Info("sweep: missing vendor sale recorded", "external_reference", p.ExternalReference, "vendor", *p.VendorCode)
	}
}

func (s *ReconciliationService) latestPayment(ctx context.Context, p *model.Purchase) (*model.GatewayPayment, error) {
	if p.PaymentID != nil && *p.PaymentID != "" {
		return s.gateway.GetPayment(ctx, *p.PaymentID)
	}
	results, err := s.gateway.SearchPayments(ctx, p.ExternalReference)
	if err != nil || len(results) == 0 {
		return nil, err
	}
	return results[0], nil
}

// recordSale has no duplicate suppression: a replayed approval records the
// sale again.
func (s *ReconciliationService) recordSale(ctx context.Context, p *model.Purchase) error {
	if s.sales == nil || p.Status != model.PurchaseStatusApproved || !p.HasVendor() {
		return nil
	}
	return s.sales.RecordApprovedSale(ctx, p)
}
