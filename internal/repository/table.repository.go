package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/nimasrn/invite-gateway/internal/model"
	"github.com/nimasrn/invite-gateway/pkg/pg"
)

type TableRepository struct {
	*pg.DB
}

func NewTableRepository(db *pg.DB) *TableRepository {
	return &TableRepository{
		db,
	}
}

func (r *TableRepository) Create(ctx context.Context, t *model.Table) (*model.Table, error) {
	entity := toTableEntity(t)
	if entity.Status == "" {
		entity.Status = string(model.TableStatusAvailable)
	}
	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, persistErr("create table", err)
	}
	return toTableModel(entity), nil
}

func (r *TableRepository) List(ctx context.Context) ([]*model.Table, error) {
	var entities []*TableEntity
	if err := r.Read(ctx).Order("number ASC").Find(&entities).Error; err != nil {
		return nil, persistErr("list tables", err)
	}
	return toTableModels(entities), nil
}

// ListByStatus filters on status and, when tableType is not empty, on type.
func (r *TableRepository) ListByStatus(ctx context.Context, status model.TableStatus, tableType model.TableType) ([]*model.Table, error) {
	q := r.Read(ctx).Where("status = ?", string(status))
	if tableType != "" {
		q = q.Where("type = ?", string(tableType))
	}

	var entities []*TableEntity
	if err := q.Order("number ASC").Find(&entities).Error; err != nil {
		return nil, persistErr("list tables by status", err)
	}
	return toTableModels(entities), nil
}

func (r *TableRepository) GetByID(ctx context.Context, id int64) (*model.Table, error) {
	var entity TableEntity
	if err := r.Read(ctx).Where("id = ?", id).First(&entity).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrTableNotFound
		}
		return nil, persistErr("get table", err)
	}
	return toTableModel(&entity), nil
}

// MarkReserved flips an available table to reserved. It is the only way a
// table leaves the available state; when another caller won the race no row
// matches and ErrTableUnavailable is returned.
func (r *TableRepository) MarkReserved(ctx context.Context, id int64) error {
	res := r.Write(ctx).
		Model(&TableEntity{}).
		Where("id = ? AND status = ?", id, string(model.TableStatusAvailable)).
		Update("status", string(model.TableStatusReserved))
	if res.Error != nil {
		return persistErr("reserve table", res.Error)
	}
	if res.RowsAffected != 1 {
		return ErrTableUnavailable
	}
	return nil
}

type ReservationRepository struct {
	*pg.DB
}

func NewReservationRepository(db *pg.DB) *ReservationRepository {
	return &ReservationRepository{
		db,
	}
}

func (r *ReservationRepository) Create(ctx context.Context, res *model.Reservation) (*model.Reservation, error) {
	entity := toReservationEntity(res)
	if entity.ID == uuid.Nil {
		entity.ID = uuid.New()
	}
	if entity.Status == "" {
		entity.Status = model.ReservationStatusActive
	}
	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, persistErr("create reservation", err)
	}
	return toReservationModel(entity), nil
}

func (r *ReservationRepository) ListByTable(ctx context.Context, tableID int64) ([]*model.Reservation, error) {
	var entities []*ReservationEntity
	if err := r.Read(ctx).Where("table_id = ?", tableID).Order("created_at ASC").Find(&entities).Error; err != nil {
		return nil, persistErr("list reservations", err)
	}
	out := make([]*model.Reservation, len(entities))
	for i, e := range entities {
		out[i] = toReservationModel(e)
	}
	return out, nil
}
