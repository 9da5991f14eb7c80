package xhttp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"
)

func newCtx(method, path string) *fasthttp.RequestCtx {
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(path)
	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&req, nil, nil)
	return ctx
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	called := false
	h := CORSMiddleware("")(func(ctx *RequestCtx) { called = true })

	ctx := newCtx(fasthttp.MethodOptions, "/api/iniciar-compra")
	h(ctx)

	assert.False(t, called)
	assert.Equal(t, StatusNoContent, ctx.Response.StatusCode())
	assert.Equal(t, "*", string(ctx.Response.Header.Peek("Access-Control-Allow-Origin")))
}

func TestCORSMiddleware_PassesThrough(t *testing.T) {
	h := CORSMiddleware("https://convites.example")(func(ctx *RequestCtx) { ctx.SetStatusCode(StatusOK) })

	ctx := newCtx(fasthttp.MethodGet, "/api/tables")
	h(ctx)

	assert.Equal(t, StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "https://convites.example", string(ctx.Response.Header.Peek("Access-Control-Allow-Origin")))
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	h := RequestIDMiddleware(func(ctx *RequestCtx) { seen = requestID(ctx) })

	ctx := newCtx(fasthttp.MethodGet, "/api/tables")
	h(ctx)
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, string(ctx.Response.Header.Peek(HeaderRequestID)))

	ctx = newCtx(fasthttp.MethodGet, "/api/tables")
	ctx.Request.Header.Set(HeaderRequestID, "abc-123")
	h(ctx)
	assert.Equal(t, "abc-123", seen)
}

func TestRecoverMiddleware(t *testing.T) {
	h := RecoverMiddleware(func(ctx *RequestCtx) { panic("boom") })
	ctx := newCtx(fasthttp.MethodGet, "/api/tables")
	assert.NotPanics(t, func() { h(ctx) })
	assert.Equal(t, StatusInternalServerError, ctx.Response.StatusCode())
}
