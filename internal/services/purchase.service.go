package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/nimasrn/invite-gateway/internal/model"
	"github.com/nimasrn/invite-gateway/pkg/logger"
	"github.com/nimasrn/invite-gateway/pkg/prom"
)

// PreferenceConfig controls the optional checkout preference created with
// every purchase.
type PreferenceConfig struct {
	Enabled         bool
	FrontendURL     string
	NotificationURL string
}

type PurchaseService struct {
	repo       PurchaseRepository
	gateway    PaymentGateway
	preference PreferenceConfig
}

func NewPurchaseService(repo PurchaseRepository, gateway PaymentGateway, preference PreferenceConfig) *PurchaseService {
	return &PurchaseService{
		repo:       repo,
		gateway:    gateway,
		preference: preference,
	}
}

func (s *PurchaseService) CreatePurchase(ctx context.Context, req model.PurchaseCreateRequest) (*model.Purchase, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	ref := req.ExternalReference
	if ref == "" {
		ref = id.String()
	}

	p := &model.Purchase{
		ID:                id,
		ExternalReference: ref,
		Name:              strings.TrimSpace(req.Name),
		Surname:           strings.TrimSpace(req.Surname),
		Phone:             model.NormalizePhone(req.Phone),
		InviteType:        req.InviteType,
		Mesa:              req.Mesa,
		Estacionamento:    req.Estacionamento,
		TotalAmount:       req.Total(),
		Status:            model.PurchaseStatusPending,
	}
	if code := strings.TrimSpace(req.VendorCode); code != "" {
		p.VendorCode = &code
	}

	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create purchase: %w", err)
	}

	prom.IncPurchaseCreated(string(created.InviteType))
	logger.Info("purchase created", "purchase_id", created.ID, "external_reference", created.ExternalReference, "amount", created.TotalAmount)

	if s.preference.Enabled && s.gateway != nil {
		s.attachPreference(ctx, created)
	}

	return created, nil
}

// attachPreference is best effort, the purchase exists either way.
func (s *PurchaseService) attachPreference(ctx context.Context, p *model.Purchase) {
	req := &model.PreferenceRequest{
		Items: []model.PreferenceItem{{
			Title:      p.InviteType.Title(),
			Quantity:   1,
			UnitPrice:  model.CentsToAmount(p.TotalAmount),
			CurrencyID: "BRL",
		}},
		AutoReturn:        "approved",
		ExternalReference: p.ExternalReference,
		NotificationURL:   s.preference.NotificationURL,
	}
	if base := strings.TrimRight(s.preference.FrontendURL, "/"); base != "" {
		req.BackURLs = model.BackURLs{
			Success: base + "/success",
			Failure: base + "/failure",
			Pending: base + "/pending",
		}
	}

	pref, err := s.gateway.CreatePreference(ctx, req)
	if err != nil {
		logger.Warn("failed to create checkout preference", "purchase_id", p.ID, "error", err)
		return
	}
	if err := s.repo.SetPreferenceID(ctx, p.ID, pref.ID); err != nil {
		logger.Warn("failed to store checkout preference", "purchase_id", p.ID, "preference_id", pref.ID, "error", err)
		return
	}
	p.PreferenceID = &pref.ID
}

// GetPurchase tries the external reference first and then the primary id.
func (s *PurchaseService) GetPurchase(ctx context.Context, idOrReference string) (*model.Purchase, error) {
	idOrReference = strings.TrimSpace(idOrReference)

	if model.ValidReference(idOrReference) {
		p, err := s.repo.GetByReference(ctx, idOrReference)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
	}

	id, err := uuid.Parse(idOrReference)
	if err != nil {
		return nil, fmt.Errorf("purchase %q: %w", idOrReference, model.ErrNotFound)
	}
	return s.repo.GetByID(ctx, id)
}
