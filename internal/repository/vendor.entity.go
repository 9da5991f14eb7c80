package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/invite-gateway/internal/model"
)

type VendorSaleEntity struct {
	ID                uuid.UUID  `gorm:"primaryKey;type:uuid;column:id"`
	VendorCode        string     `gorm:"column:vendor_code;not null;index"`
	PurchaseID        *uuid.UUID `gorm:"column:purchase_id;type:uuid"`
	ExternalReference string     `gorm:"column:external_reference;not null;index"`
	PaymentID         string     `gorm:"column:payment_id"`
	Status            string     `gorm:"column:status"`
	Amount            int64      `gorm:"column:amount;not null"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (VendorSaleEntity) TableName() string {
	return "vendor_sales"
}

type VendorEntity struct {
	Code        string    `gorm:"primaryKey;column:code"`
	SalesCount  int64     `gorm:"column:sales_count;not null;default:0"`
	TotalAmount int64     `gorm:"column:total_amount;not null;default:0"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (VendorEntity) TableName() string {
	return "vendors"
}

func toVendorSaleEntity(s *model.VendorSale) *VendorSaleEntity {
	return &VendorSaleEntity{
		ID:                s.ID,
		VendorCode:        s.VendorCode,
		PurchaseID:        s.PurchaseID,
		ExternalReference: s.ExternalReference,
		PaymentID:         s.PaymentID,
		Status:            s.Status,
		Amount:            s.Amount,
		CreatedAt:         s.CreatedAt,
	}
}

func toVendorSaleModel(e *VendorSaleEntity) *model.VendorSale {
	return &model.VendorSale{
		ID:                e.ID,
		VendorCode:        e.VendorCode,
		PurchaseID:        e.PurchaseID,
		ExternalReference: e.ExternalReference,
		PaymentID:         e.PaymentID,
		Status:            e.Status,
		Amount:            e.Amount,
		CreatedAt:         e.CreatedAt,
	}
}

func toVendorModel(e *VendorEntity) *model.Vendor {
	return &model.Vendor{
		Code:        e.Code,
		SalesCount:  e.SalesCount,
		TotalAmount: e.TotalAmount,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}
