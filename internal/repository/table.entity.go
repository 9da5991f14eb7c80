package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/invite-gateway/internal/model"
)

type TableEntity struct {
	ID       int64  `gorm:"primaryKey;autoIncrement;column:id"`
	Number   int    `gorm:"column:number;not null;uniqueIndex"`
	Type     string `gorm:"column:type;not null;index"`
	Capacity int    `gorm:"column:capacity;not null"`
	Location string `gorm:"column:location"`
	Status   string `gorm:"column:status;not null;default:available;index"`
}

func (TableEntity) TableName() string {
	return "tables"
}

func toTableEntity(t *model.Table) *TableEntity {
	return &TableEntity{
		ID:       t.ID,
		Number:   t.Number,
		Type:     string(t.Type),
		Capacity: t.Capacity,
		Location: t.Location,
		Status:   string(t.Status),
	}
}

func toTableModel(e *TableEntity) *model.Table {
	return &model.Table{
		ID:       e.ID,
		Number:   e.Number,
		Type:     model.TableType(e.Type),
		Capacity: e.Capacity,
		Location: e.Location,
		Status:   model.TableStatus(e.Status),
	}
}

func toTableModels(entities []*TableEntity) []*model.Table {
	models := make([]*model.Table, len(entities))
	for i, e := range entities {
		models[i] = toTableModel(e)
	}
	return models
}

type ReservationEntity struct {
	ID         uuid.UUID `gorm:"primaryKey;type:uuid;column:id"`
	TableID    int64     `gorm:"column:table_id;not null;index"`
	PurchaseID uuid.UUID `gorm:"column:purchase_id;type:uuid;not null;index"`
	Status     string    `gorm:"column:status;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (ReservationEntity) TableName() string {
	return "reservations"
}

func toReservationEntity(r *model.Reservation) *ReservationEntity {
	return &ReservationEntity{
		ID:         r.ID,
		TableID:    r.TableID,
		PurchaseID: r.PurchaseID,
		Status:     r.Status,
		CreatedAt:  r.CreatedAt,
	}
}

func toReservationModel(e *ReservationEntity) *model.Reservation {
	return &model.Reservation{
		ID:         e.ID,
		TableID:    e.TableID,
		PurchaseID: e.PurchaseID,
		Status:     e.Status,
		CreatedAt:  e.CreatedAt,
	}
}
