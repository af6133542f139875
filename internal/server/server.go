// Package server configures and runs the HTTP server.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/menezmethod/memoria/internal/auth"
	"github.com/menezmethod/memoria/internal/chain"
	"github.com/menezmethod/memoria/internal/config"
	"github.com/menezmethod/memoria/internal/handler"
	"github.com/menezmethod/memoria/internal/middleware"
)

// New creates a configured *http.Server with all routes and middleware wired.
func New(cfg config.Config, store handler.Store, v auth.Verifier, logger *slog.Logger) *http.Server {
	rl := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	stop := make(chan struct{})
	go rl.RunCleanup(stop)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      Routes(cfg, store, v, rl, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
	srv.RegisterOnShutdown(func() { close(stop) })
	return srv
}

// Routes builds the request router.
//
// Every route is wrapped, outermost first, in RequestID → Recover →
// Metrics → Logging. Protected routes then run the handler chain
// BasicAuth → RateLimit → page, so nothing reaches a page without
// passing the Authenticator.
func Routes(cfg config.Config, store handler.Store, v auth.Verifier, rl *middleware.RateLimiter, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	d := chain.NewDispatcher(logger)

	gate := middleware.BasicAuth(v, cfg.Auth.Realm)
	limit := middleware.RateLimit(rl)

	wrap := func(h http.Handler) http.Handler {
		return middleware.Chain(h,
			middleware.RequestID(),
			middleware.Recover(logger),
			middleware.Metrics(),
			middleware.Logging(logger),
		)
	}
	protected := func(h http.Handler) http.Handler {
		return wrap(d.Handler(chain.New(gate, limit, chain.Terminal(h))))
	}

	// Health, version and metrics: no auth required.
	mux.Handle("GET /health", wrap(handler.Health()))
	mux.Handle("GET /version", wrap(handler.VersionInfo()))
	mux.Handle("GET /metrics", promhttp.Handler())

	// Pages.
	mux.Handle("GET /{$}", protected(handler.Home(store, logger)))
	mux.Handle("GET /memory/{id}", protected(handler.MemoryPage(store, logger)))
	mux.Handle("POST /create-memory", protected(handler.CreateMemory(store, logger)))

	// JSON API.
	mux.Handle("GET /api/memories", protected(handler.ListMemories(store, logger)))
	mux.Handle("GET /api/memories/{id}", protected(handler.GetMemory(store, logger)))

	mux.Handle("/", wrap(handler.NotFound()))

	return mux
}

// Shutdown gracefully shuts down the server with the given context.
func Shutdown(ctx context.Context, srv *http.Server, logger *slog.Logger) {
	logger.Info("shutting down server")
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "err", err)
	}
}
