package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/invite-gateway/internal/model"
	"github.com/nimasrn/invite-gateway/pkg/pg"
	"gorm.io/gorm"
)

type PurchaseRepository struct {
	*pg.DB
}

func NewPurchaseRepository(db *pg.DB) *PurchaseRepository {
	return &PurchaseRepository{
		db,
	}
}

func (r *PurchaseRepository) Create(ctx context.Context, p *model.Purchase) (*model.Purchase, error) {
	entity := toPurchaseEntity(p)

	if err := r.Write(ctx).Create(entity).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateReference
		}
		return nil, persistErr("create purchase", err)
	}

	return toPurchaseModel(entity), nil
}

func (r *PurchaseRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Purchase, error) {
	var entity PurchaseEntity
	err := r.Read(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if isNotFound(err) {
			return nil, ErrPurchaseNotFound
		}
		return nil, persistErr("get purchase", err)
	}
	return toPurchaseModel(&entity), nil
}

func (r *PurchaseRepository) GetByReference(ctx context.Context, ref string) (*model.Purchase, error) {
	var entity PurchaseEntity
	err := r.Read(ctx).Where("external_reference = ?", ref).First(&entity).Error
	if err != nil {
		if isNotFound(err) {
			return nil, ErrPurchaseNotFound
		}
		return nil, persistErr("get purchase by reference", err)
	}
	return toPurchaseModel(&entity), nil
}

// ApplyPaymentUpdate overwrites status, payment_id and payment_details of the
// purchase matching ref and returns the row as stored. Concurrent writers
// are last-writer-wins.
func (r *PurchaseRepository) ApplyPaymentUpdate(ctx context.Context, ref string, u model.PaymentUpdate) (*model.Purchase, error) {
	var updated *model.Purchase
	err := r.WithinTransaction(ctx, func(ctx context.Context) error {
		res := r.Write(ctx).
			Model(&PurchaseEntity{}).
			Where("external_reference = ?", ref).
			Updates(map[string]any{
				"status":          string(u.Status),
				"payment_id":      optionalString(u.PaymentID),
				"payment_details": rawToText(u.Details),
				"updated_at":      time.Now().UTC(),
			})
		if res.Error != nil {
			return persistErr("apply payment update", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrPurchaseNotFound
		}

		p, err := r.GetByReference(ctx, ref)
		if err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *PurchaseRepository) SetPreferenceID(ctx context.Context, id uuid.UUID, preferenceID string) error {
	res := r.Write(ctx).
		Model(&PurchaseEntity{}).
		Where("id = ?", id).
		Update("preference_id", preferenceID)
	if res.Error != nil {
		return persistErr("set preference id", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrPurchaseNotFound
	}
	return nil
}

// ListPending returns pending purchases created before the cutoff, oldest first.
func (r *PurchaseRepository) ListPending(ctx context.Context, createdBefore time.Time, limit int) ([]*model.Purchase, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	var entities []*PurchaseEntity
	err := r.Read(ctx).
		Where("status = ? AND created_at < ?", string(model.PurchaseStatusPending), createdBefore.UTC()).
		Order("created_at ASC").
		Limit(limit).
		Find(&entities).Error
	if err != nil {
		return nil, persistErr("list pending purchases", err)
	}
	return toPurchaseModels(entities), nil
}

// ListApprovedWithoutSale returns approved purchases carrying a vendor code
// that have no vendor_sales row and were last updated before the cutoff.
func (r *PurchaseRepository) ListApprovedWithoutSale(ctx context.Context, updatedBefore time.Time, limit int) ([]*model.Purchase, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	var entities []*PurchaseEntity
	err := r.Read(ctx).
		Where("status = ? AND vendor_code IS NOT NULL AND vendor_code <> '' AND updated_at < ?",
			string(model.PurchaseStatusApproved), updatedBefore.UTC()).
		Where("NOT EXISTS (SELECT 1 FROM vendor_sales WHERE vendor_sales.external_reference = purchases.external_reference)").
		Order("updated_at ASC").
		Limit(limit).
		Find(&entities).Error
	if err != nil {
		return nil, persistErr("list approved purchases without sale", err)
	}
	return toPurchaseModels(entities), nil
}
