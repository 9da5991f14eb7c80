package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/nimasrn/invite-gateway/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTables(t *testing.T, repo *TableRepository) []*model.Table {
	t.Helper()
	ctx := context.Background()
	specs := []model.Table{
		{Number: 1, Type: model.TableTypeRegular, Capacity: 4, Location: "salão"},
		{Number: 2, Type: model.TableTypeRegular, Capacity: 6, Location: "salão"},
		{Number: 10, Type: model.TableTypeCamarote, Capacity: 8, Location: "mezanino"},
	}
	out := make([]*model.Table, 0, len(specs))
	for i := range specs {
		created, err := repo.Create(ctx, &specs[i])
		require.NoError(t, err)
		out = append(out, created)
	}
	return out
}

func TestTableRepository_List(t *testing.T) {
	repo := NewTableRepository(SetupTestDB(t))
	ctx := context.Background()
	tables := seedTables(t, repo)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, 1, all[0].Number)

	camarotes, err := repo.ListByStatus(ctx, model.TableStatusAvailable, model.TableTypeCamarote)
	require.NoError(t, err)
	require.Len(t, camarotes, 1)
	assert.Equal(t, tables[2].ID, camarotes[0].ID)

	require.NoError(t, repo.MarkReserved(ctx, tables[0].ID))
	available, err := repo.ListByStatus(ctx, model.TableStatusAvailable, "")
	require.NoError(t, err)
	assert.Len(t, available, 2)
}

func TestTableRepository_MarkReserved(t *testing.T) {
	repo := NewTableRepository(SetupTestDB(t))
	ctx := context.Background()
	tables := seedTables(t, repo)

	require.NoError(t, repo.MarkReserved(ctx, tables[1].ID))

	got, err := repo.GetByID(ctx, tables[1].ID)
	require.NoError(t, err)
	assert.Equal(t, model.TableStatusReserved, got.Status)

	err = repo.MarkReserved(ctx, tables[1].ID)
	assert.ErrorIs(t, err, ErrTableUnavailable)
	assert.True(t, errors.Is(err, model.ErrConflict))

	_, err = repo.GetByID(ctx, 9999)
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestTableRepository_MarkReservedConcurrent(t *testing.T) {
	repo := NewTableRepository(SetupTestDB(t))
	ctx := context.Background()
	tables := seedTables(t, repo)

	const racers = 8
	var wg sync.WaitGroup
	results := make(chan error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- repo.MarkReserved(ctx, tables[0].ID)
		}()
	}
	wg.Wait()
	close(results)

	var wins, conflicts int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrTableUnavailable):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, racers-1, conflicts)
}

func TestReservationRepository_Create(t *testing.T) {
	db := SetupTestDB(t)
	tables := seedTables(t, NewTableRepository(db))
	repo := NewReservationRepository(db)
	ctx := context.Background()

	purchaseID := uuid.New()
	created, err := repo.Create(ctx, &model.Reservation{TableID: tables[0].ID, PurchaseID: purchaseID})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, model.ReservationStatusActive, created.Status)

	list, err := repo.ListByTable(ctx, tables[0].ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, purchaseID, list[0].PurchaseID)
}
