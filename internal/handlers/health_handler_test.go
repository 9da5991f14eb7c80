package handlers

import (
	"context"
	"errors"
	"testing"

	xhttp "github.com/nimasrn/invite-gateway/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestHealthHandler_GetHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		svc := new(MockHealthService)
		svc.On("Check", mock.MatchedBy(func(c context.Context) bool {
			_, ok := c.Deadline()
			return ok
		})).Return(nil)

		ctx := setupTestContext("GET", "/api/health", nil)
		NewHealthHandler(svc).GetHealth(ctx)

		assert.Equal(t, xhttp.StatusOK, ctx.Response.StatusCode())
		assert.Equal(t, "success", string(ctx.Response.Body()))
	})

	t.Run("unhealthy", func(t *testing.T) {
		svc := new(MockHealthService)
		svc.On("Check", mock.Anything).Return(errors.New("postgres: connection refused"))

		ctx := setupTestContext("GET", "/api/health", nil)
		NewHealthHandler(svc).GetHealth(ctx)

		assert.Equal(t, xhttp.StatusServiceUnavailable, ctx.Response.StatusCode())
		assert.Contains(t, string(ctx.Response.Body()), "postgres")
	})
}
