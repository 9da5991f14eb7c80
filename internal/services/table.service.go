package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/nimasrn/invite-gateway/internal/model"
	"github.com/nimasrn/invite-gateway/internal/repository"
	"github.com/nimasrn/invite-gateway/pkg/logger"
	"github.com/nimasrn/invite-gateway/pkg/prom"
)

type TableService struct {
	tables       TableRepository
	reservations ReservationRepository
	lookup       PurchaseLookup
	tx           Transactor
}

func NewTableService(tables TableRepository, reservations ReservationRepository, lookup PurchaseLookup, tx Transactor) *TableService {
	return &TableService{
		tables:       tables,
		reservations: reservations,
		lookup:       lookup,
		tx:           tx,
	}
}

func (s *TableService) List(ctx context.Context) ([]*model.Table, error) {
	return s.tables.List(ctx)
}

// ListAvailable returns available tables, all types when tableType is empty.
func (s *TableService) ListAvailable(ctx context.Context, tableType string) ([]*model.Table, error) {
	t := model.TableType(tableType)
	if t != "" && !t.Valid() {
		return nil, fmt.Errorf("%w: unknown table type %q", model.ErrValidation, tableType)
	}
	return s.tables.ListByStatus(ctx, model.TableStatusAvailable, t)
}

// Reserve flips the table to reserved and records the reservation in one
// transaction. Of two concurrent calls for the same table exactly one wins,
// the other gets a conflict.
func (s *TableService) Reserve(ctx context.Context, tableID int64, purchaseRef string) (*model.Reservation, error) {
	var reservation *model.Reservation
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		p, err := s.lookup.GetPurchase(ctx, purchaseRef)
		if err != nil {
			return err
		}

		t, err := s.tables.GetByID(ctx, tableID)
		if err != nil {
			return err
		}
		if t.Status != model.TableStatusAvailable {
			return repository.ErrTableUnavailable
		}

		if err := s.tables.MarkReserved(ctx, tableID); err != nil {
			return err
		}

		reservation, err = s.reservations.Create(ctx, &model.Reservation{
			TableID:    tableID,
			PurchaseID: p.ID,
			Status:     model.ReservationStatusActive,
		})
		return err
	})

	switch {
	case err == nil:
		prom.IncTableReservation("reserved")
		logger.Info("table reserved", "table_id", tableID, "purchase_id", reservation.PurchaseID)
		return reservation, nil
	case errors.Is(err, model.ErrConflict):
		prom.IncTableReservation("conflict")
	default:
		prom.IncTableReservation("error")
	}
	return nil, err
}
