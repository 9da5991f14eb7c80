package repository

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/invite-gateway/internal/model"
)

type PurchaseEntity struct {
	ID                uuid.UUID `gorm:"primaryKey;type:uuid;column:id"`
	ExternalReference string    `gorm:"column:external_reference;not null;uniqueIndex"`
	Name              string    `gorm:"column:name;not null"`
	Surname           string    `gorm:"column:surname;not null"`
	Phone             string    `gorm:"column:phone;not null"`
	InviteType        string    `gorm:"column:invite_type;not null"`
	Mesa              bool      `gorm:"column:mesa;not null;default:false"`
	Estacionamento    bool      `gorm:"column:estacionamento;not null;default:false"`
	TotalAmount       int64     `gorm:"column:total_amount;not null"`
	Status            string    `gorm:"column:status;not null;default:pending;index"`
	PaymentID         *string   `gorm:"column:payment_id"`
	PaymentDetails    *string   `gorm:"column:payment_details;type:jsonb"`
	VendorCode        *string   `gorm:"column:vendor_code;index"`
	PreferenceID      *string   `gorm:"column:preference_id"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (PurchaseEntity) TableName() string {
	return "purchases"
}

func toPurchaseEntity(p *model.Purchase) *PurchaseEntity {
	if p == nil {
		return nil
	}
	return &PurchaseEntity{
		ID:                p.ID,
		ExternalReference: p.ExternalReference,
		Name:              p.Name,
		Surname:           p.Surname,
		Phone:             p.Phone,
		InviteType:        string(p.InviteType),
		Mesa:              p.Mesa,
		Estacionamento:    p.Estacionamento,
		TotalAmount:       p.TotalAmount,
		Status:            string(p.Status),
		PaymentID:         p.PaymentID,
		PaymentDetails:    rawToText(p.PaymentDetails),
		VendorCode:        p.VendorCode,
		PreferenceID:      p.PreferenceID,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func toPurchaseModel(e *PurchaseEntity) *model.Purchase {
	if e == nil {
		return nil
	}
	p := &model.Purchase{
		ID:                e.ID,
		ExternalReference: e.ExternalReference,
		Name:              e.Name,
		Surname:           e.Surname,
		Phone:             e.Phone,
		InviteType:        model.InviteType(e.InviteType),
		Mesa:              e.Mesa,
		Estacionamento:    e.Estacionamento,
		TotalAmount:       e.TotalAmount,
		Status:            model.PurchaseStatus(e.Status),
		PaymentID:         e.PaymentID,
		VendorCode:        e.VendorCode,
		PreferenceID:      e.PreferenceID,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
	}
	if e.PaymentDetails != nil {
		p.PaymentDetails = json.RawMessage(*e.PaymentDetails)
	}
	return p
}

func toPurchaseModels(entities []*PurchaseEntity) []*model.Purchase {
	models := make([]*model.Purchase, len(entities))
	for i, e := range entities {
		models[i] = toPurchaseModel(e)
	}
	return models
}

func rawToText(raw json.RawMessage) *string {
	if len(raw) == 0 {
		return nil
	}
	s := string(raw)
	return &s
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
