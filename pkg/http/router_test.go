package xhttp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"
)

func TestCreateDefaultRouter(t *testing.T) {
	r := CreateDefaultRouter()
	r.GET("/api/tables", func(ctx *RequestCtx) { ctx.SetStatusCode(StatusOK) })

	tests := []struct {
		name   string
		method string
		path   string
		code   int
		body   string
	}{
		{name: "matched", method: fasthttp.MethodGet, path: "/api/tables", code: StatusOK},
		{name: "unknown path", method: fasthttp.MethodGet, path: "/api/nope", code: StatusNotFound, body: `{"error":"route not found"}`},
		{name: "wrong method", method: fasthttp.MethodDelete, path: "/api/tables", code: StatusMethodNotAllowed, body: `{"error":"method not allowed"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := newCtx(tt.method, tt.path)
			r.Handler(ctx)

			assert.Equal(t, tt.code, ctx.Response.StatusCode())
			if tt.body != "" {
				assert.JSONEq(t, tt.body, string(ctx.Response.Body()))
				assert.Equal(t, "application/json", string(ctx.Response.Header.ContentType()))
			}
		})
	}
}

func TestEngine_DoRoutingOrder(t *testing.T) {
	var order []string
	mark := func(name string) MiddlewareFunc {
		return func(next RequestHandler) RequestHandler {
			return func(ctx *RequestCtx) {
				order = append(order, name)
				next(ctx)
			}
		}
	}

	e := NewServer(DefaultServerOption)
	e.Router = CreateDefaultRouter()
	e.GET("/ping", func(ctx *RequestCtx) { order = append(order, "handler") })
	e.Use(mark("outer"))
	e.Use(mark("inner"))
	assert.NoError(t, e.DoRouting())

	e.Server.Handler(newCtx(fasthttp.MethodGet, "/ping"))
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}
