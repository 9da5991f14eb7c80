package xhttp

import (
	"github.com/fasthttp/router"
)

type Router = router.Router
type Group = router.Group

// CreateDefaultRouter returns the router the api mounts its groups on.
// OPTIONS preflights are left to CORSMiddleware; unknown paths and methods
// get the same {"error": ...} body the handlers write.
func CreateDefaultRouter() *Router {
	r := router.New()
	r.RedirectTrailingSlash = true
	r.SaveMatchedRoutePath = true
	r.HandleOPTIONS = false
	r.HandleMethodNotAllowed = true
	r.NotFound = NotFoundHandler
	r.MethodNotAllowed = MethodNotAllowedHandler
	return r
}

func NotFoundHandler(ctx *RequestCtx) {
	writeRouteError(ctx, StatusNotFound, "route not found")
}

func MethodNotAllowedHandler(ctx *RequestCtx) {
	writeRouteError(ctx, StatusMethodNotAllowed, "method not allowed")
}

func writeRouteError(ctx *RequestCtx, code int, msg string) {
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(code)
	ctx.SetBodyString(`{"error":"` + msg + `"}`)
}
