package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/invite-gateway/internal/model"
	"github.com/nimasrn/invite-gateway/pkg/pg"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VendorRepository struct {
	*pg.DB
}

func NewVendorRepository(db *pg.DB) *VendorRepository {
	return &VendorRepository{
		db,
	}
}

func (r *VendorRepository) AppendSale(ctx context.Context, s *model.VendorSale) (*model.VendorSale, error) {
	entity := toVendorSaleEntity(s)
	if entity.ID == uuid.Nil {
		entity.ID = uuid.New()
	}
	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, persistErr("append vendor sale", err)
	}
	return toVendorSaleModel(entity), nil
}

// IncrementStats upserts the vendor row, adding one sale and amount cents.
func (r *VendorRepository) IncrementStats(ctx context.Context, code string, amount int64) error {
	now := time.Now().UTC()
	entity := &VendorEntity{
		Code:        code,
		SalesCount:  1,
		TotalAmount: amount,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := r.Write(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "code"}},
			DoUpdates: clause.Assignments(map[string]any{
				"sales_count":  gorm.Expr("vendors.sales_count + ?", 1),
				"total_amount": gorm.Expr("vendors.total_amount + ?", amount),
				"updated_at":   now,
			}),
		}).
		Create(entity).Error
	if err != nil {
		return persistErr("increment vendor stats", err)
	}
	return nil
}

func (r *VendorRepository) GetVendor(ctx context.Context, code string) (*model.Vendor, error) {
	var entity VendorEntity
	if err := r.Read(ctx).Where("code = ?", code).First(&entity).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrVendorNotFound
		}
		return nil, persistErr("get vendor", err)
	}
	return toVendorModel(&entity), nil
}

func (r *VendorRepository) ListSales(ctx context.Context, code string) ([]*model.VendorSale, error) {
	var entities []*VendorSaleEntity
	if err := r.Read(ctx).Where("vendor_code = ?", code).Order("created_at ASC").Find(&entities).Error; err != nil {
		return nil, persistErr("list vendor sales", err)
	}
	out := make([]*model.VendorSale, len(entities))
	for i, e := range entities {
		out[i] = toVendorSaleModel(e)
	}
	return out, nil
}
