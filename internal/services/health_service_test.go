package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestHealthService_Check(t *testing.T) {
	t.Run("all healthy", func(t *testing.T) {
		db, rdb := new(MockPinger), new(MockPinger)
		db.On("Ping", mock.Anything).Return(nil)
		rdb.On("Ping", mock.Anything).Return(nil)

		assert.NoError(t, NewHealthService(db, rdb).Check(context.Background()))
	})

	t.Run("reports every failing dependency", func(t *testing.T) {
		db, rdb := new(MockPinger), new(MockPinger)
		dbErr := errors.New("connection refused")
		db.On("Ping", mock.Anything).Return(dbErr)
		rdb.On("Ping", mock.Anything).Return(errors.New("i/o timeout"))

		err := NewHealthService(db, rdb).Check(context.Background())
		assert.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "postgres")
		assert.Contains(t, err.Error(), "redis")
	})

	t.Run("redis is optional", func(t *testing.T) {
		db := new(MockPinger)
		db.On("Ping", mock.Anything).Return(nil)
		assert.NoError(t, NewHealthService(db, nil).Check(context.Background()))
	})
}
