// Package chain runs an ordered list of handlers against one request,
// handing each handler an explicit continuation to pass control forward.
//
//	c := chain.New(middleware.BasicAuth(v, realm), chain.Terminal(home))
//	d.Run(w, r, c)
//	// BasicAuth runs first; home runs only if BasicAuth calls next().
package chain

import (
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Overruns counts continuations invoked after the last handler already ran.
var Overruns = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "memoria",
	Subsystem: "chain",
	Name:      "overruns_total",
	Help:      "Continuations invoked past the end of a handler chain.",
})

// Next advances execution to the following handler in the chain.
type Next func()

// Handler is a chain member. It either writes a terminal response or
// calls next to let the chain proceed, never both.
type Handler interface {
	ServeChain(w http.ResponseWriter, r *http.Request, next Next)
}

// HandlerFunc adapts an ordinary function to a Handler.
type HandlerFunc func(w http.ResponseWriter, r *http.Request, next Next)

// ServeChain calls f(w, r, next).
func (f HandlerFunc) ServeChain(w http.ResponseWriter, r *http.Request, next Next) {
	f(w, r, next)
}

// Terminal lifts a plain http.Handler into a chain member that always
// writes a response and never calls next.
func Terminal(h http.Handler) Handler {
	return HandlerFunc(func(w http.ResponseWriter, r *http.Request, _ Next) {
		h.ServeHTTP(w, r)
	})
}

// Chain is an ordered, immutable list of handlers for one route.
type Chain struct {
	handlers []Handler
}

// New builds a Chain. It panics if handlers is empty or contains nil,
// since routes are wired once at startup.
func New(handlers ...Handler) Chain {
	if len(handlers) == 0 {
		panic("chain: New called with no handlers")
	}
	for _, h := range handlers {
		if h == nil {
			panic("chain: nil handler passed to New")
		}
	}
	return Chain{handlers: append([]Handler(nil), handlers...)}
}

// Len returns the number of handlers in the chain.
func (c Chain) Len() int {
	return len(c.handlers)
}

// Dispatcher executes chains. It holds no per-request state.
type Dispatcher struct {
	logger *slog.Logger
}

// NewDispatcher returns a Dispatcher that reports chain misuse to logger.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{logger: logger}
}

// Run invokes the first handler of c. Each handler receives a one-shot
// continuation bound to the next position. Calling next after the last
// handler logs a diagnostic and writes nothing to w.
//
// Panics raised by handlers are not recovered here; wrap the mounted
// handler with middleware.Recover.
func (d *Dispatcher) Run(w http.ResponseWriter, r *http.Request, c Chain) {
	d.run(w, r, c, 0)
}

func (d *Dispatcher) run(w http.ResponseWriter, r *http.Request, c Chain, pos int) {
	if pos >= len(c.handlers) {
		Overruns.Inc()
		d.logger.Warn("next called past end of chain",
			"chain_len", len(c.handlers),
			"method", r.Method,
			"path", r.URL.Path,
		)
		return
	}

	var called atomic.Bool
	next := func() {
		if called.Swap(true) {
			d.logger.Warn("next called more than once",
				"position", pos,
				"method", r.Method,
				"path", r.URL.Path,
			)
			return
		}
		d.run(w, r, c, pos+1)
	}
	c.handlers[pos].ServeChain(w, r, next)
}

// Handler mounts c as an http.Handler.
func (d *Dispatcher) Handler(c Chain) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d.Run(w, r, c)
	})
}
