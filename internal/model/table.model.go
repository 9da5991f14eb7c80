package model

import (
	"time"

	"github.com/google/uuid"
)

type TableType string

const (
	TableTypeRegular  TableType = "regular"
	TableTypeCamarote TableType = "camarote"
)

func (t TableType) Valid() bool {
	return t == TableTypeRegular || t == TableTypeCamarote
}

type TableStatus string

const (
	TableStatusAvailable TableStatus = "available"
	TableStatusReserved  TableStatus = "reserved"
	TableStatusOccupied  TableStatus = "occupied"
)

type Table struct {
	ID       int64       `json:"id"`
	Number   int         `json:"number"`
	Type     TableType   `json:"type"`
	Capacity int         `json:"capacity"`
	Location string      `json:"location"`
	Status   TableStatus `json:"status"`
}

const ReservationStatusActive = "active"

type Reservation struct {
	ID         uuid.UUID `json:"id"`
	TableID    int64     `json:"table_id"`
	PurchaseID uuid.UUID `json:"purchase_id"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// ReserveRequest accepts both the REST body {purchase_id} and the checkout
// form body {tableId, purchaseId}.
type ReserveRequest struct {
	TableID         int64  `json:"tableId"`
	PurchaseID      string `json:"purchaseId"`
	PurchaseIDSnake string `json:"purchase_id"`
}

func (r ReserveRequest) PurchaseRef() string {
	if r.PurchaseID != "" {
		return r.PurchaseID
	}
	return r.PurchaseIDSnake
}
