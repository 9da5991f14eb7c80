package xhttp

import (
	"net"
	"os"
	"os/signal"
	"reflect"
	"runtime"
	"syscall"
	"time"

	"github.com/fasthttp/router"
	"github.com/nimasrn/invite-gateway/pkg/logger"
	"github.com/valyala/fasthttp"
)

// DefaultServerOption suits a JSON api behind a load balancer: small bodies,
// short read/write windows and keep-alive for the payment provider's webhook
// bursts.
var DefaultServerOption = ServerOption{
	Handler:               NotFoundHandler,
	Name:                  "invite-gateway",
	IdleTimeout:           10 * time.Second,
	MaxIdleWorkerDuration: time.Minute,
	TCPKeepalivePeriod:    120 * time.Minute, // linux default
	MaxRequestBodySize:    1 << 20,
	ReadBufferSize:        4 << 10, // also the max header size
	WriteBufferSize:       4 << 10,
	ReadTimeout:           2500 * time.Millisecond,
	WriteTimeout:          2500 * time.Millisecond,
	Concurrency:           10_000,
	MaxConnsPerIP:         1_000,
	ErrorHandler: func(ctx *RequestCtx, err error) {
		ctx.Logger().Printf("[xhttp] error: %s", err)
		writeRouteError(ctx, StatusBadRequest, "malformed request")
	},
	TCPKeepalive:                 true,
	DisablePreParseMultipartForm: true,
	LogAllErrors:                 true,
	NoDefaultServerHeader:        true,
	NoDefaultDate:                true,
	CloseOnShutdown:              true,
	Logger:                       logger.GetLogger(),
}

type Server = fasthttp.Server

type ServerOption struct {
	Handler      RequestHandler
	ErrorHandler func(ctx *RequestCtx, err error)
	Name         string

	IdleTimeout           time.Duration
	MaxIdleWorkerDuration time.Duration
	TCPKeepalivePeriod    time.Duration
	MaxRequestBodySize    int
	ReadBufferSize        int
	WriteBufferSize       int
	ReadTimeout           time.Duration
	WriteTimeout          time.Duration
	Concurrency           int
	MaxConnsPerIP         int
	MaxRequestsPerConn    int

	DisableKeepalive             bool
	TCPKeepalive                 bool
	DisablePreParseMultipartForm bool
	LogAllErrors                 bool
	NoDefaultServerHeader        bool
	NoDefaultDate                bool
	CloseOnShutdown              bool
	Logger                       logger.Logger
}

type Engine struct {
	*Router
	*Server
	middle []MiddlewareFunc
}

func newServer(o ServerOption) *fasthttp.Server {
	return &fasthttp.Server{
		Handler:                      o.Handler,
		ErrorHandler:                 o.ErrorHandler,
		Name:                         o.Name,
		Concurrency:                  o.Concurrency,
		ReadBufferSize:               o.ReadBufferSize,
		WriteBufferSize:              o.WriteBufferSize,
		ReadTimeout:                  o.ReadTimeout,
		WriteTimeout:                 o.WriteTimeout,
		IdleTimeout:                  o.IdleTimeout,
		MaxConnsPerIP:                o.MaxConnsPerIP,
		MaxRequestsPerConn:           o.MaxRequestsPerConn,
		MaxIdleWorkerDuration:        o.MaxIdleWorkerDuration,
		TCPKeepalivePeriod:           o.TCPKeepalivePeriod,
		MaxRequestBodySize:           o.MaxRequestBodySize,
		DisableKeepalive:             o.DisableKeepalive,
		TCPKeepalive:                 o.TCPKeepalive,
		DisablePreParseMultipartForm: o.DisablePreParseMultipartForm,
		LogAllErrors:                 o.LogAllErrors,
		NoDefaultServerHeader:        o.NoDefaultServerHeader,
		NoDefaultDate:                o.NoDefaultDate,
		CloseOnShutdown:              o.CloseOnShutdown,
		Logger:                       o.Logger,
	}
}

func NewServer(options ServerOption) *Engine {
	return &Engine{
		Server: newServer(options),
		Router: router.New(),
	}
}

func (e *Engine) ListenAndServe(addr string) error {
	if err := e.DoRouting(); err != nil {
		return err
	}
	e.Server.Logger.Printf("[xhttp] server is listening on %s", addr)
	return e.Server.ListenAndServe(addr)
}

// Serve runs the engine on an existing listener.
func (e *Engine) Serve(ln net.Listener) error {
	if err := e.DoRouting(); err != nil {
		return err
	}
	return e.Server.Serve(ln)
}

// DoRouting installs the router behind the registered middlewares. The first
// middleware passed to Use ends up outermost.
func (e *Engine) DoRouting() error {
	for method, routes := range e.Router.List() {
		for _, r := range routes {
			e.Server.Logger.Printf("[xhttp] route %s %s", method, r)
		}
	}
	h := e.Router.Handler
	for i := len(e.middle) - 1; i >= 0; i-- {
		m := e.middle[i]
		h = m(h)
		e.Server.Logger.Printf("[xhttp] middleware %d registered - %s", i+1, runtime.FuncForPC(reflect.ValueOf(m).Pointer()).Name())
	}
	e.Server.Handler = h
	return nil
}

// CloseOnSignal shuts the server down on SIGINT, SIGTERM or SIGQUIT.
func (e *Engine) CloseOnSignal() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig
		e.Shutdown()
	}()
}

func (e *Engine) Use(middleware MiddlewareFunc) {
	e.middle = append(e.middle, middleware)
}

// Shutdown waits for in-flight requests, then closes the listener.
func (e *Engine) Shutdown() {
	e.Server.Logger.Printf("[xhttp] server is shutting down, pid: %d", os.Getpid())
	if err := e.Server.Shutdown(); err != nil {
		e.Server.Logger.Printf("[xhttp] error while shutting down: %v", err)
	}
}
