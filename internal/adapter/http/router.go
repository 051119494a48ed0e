package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/upiledger/internal/adapter/http/handler"
	"github.com/iho/upiledger/internal/adapter/http/middleware"
	"github.com/iho/upiledger/internal/infrastructure/metrics"
	"github.com/iho/upiledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AuthHandler         *handler.AuthHandler
	AccountHandler      *handler.AccountHandler
	TransferHandler     *handler.TransferHandler
	MoneyRequestHandler *handler.MoneyRequestHandler
	LedgerHandler       *handler.LedgerHandler
	HealthHandler       *handler.HealthHandler

	// TokenVerifier enables authentication. When nil every API route is
	// open and requests are not tied to a user.
	TokenVerifier middleware.TokenVerifier

	// IdempotencyStore enables Idempotency-Key handling on POST routes.
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration

	Logger   zerolog.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Metrics(cfg.Metrics))

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	authEnabled := cfg.TokenVerifier != nil
	operatorOnly := func(next http.Handler) http.Handler { return next }
	if authEnabled {
		operatorOnly = middleware.RequireOperator
	}

	var idempotent func(http.Handler) http.Handler
	if cfg.IdempotencyStore != nil {
		idempotent = middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger).Wrap
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			if authEnabled {
				r.Use(middleware.OptionalAuth(cfg.TokenVerifier))
			}
			r.Post("/register", cfg.AuthHandler.Register)
			r.Post("/login", cfg.AuthHandler.Login)
		})

		r.Group(func(r chi.Router) {
			if authEnabled {
				r.Use(middleware.AuthMiddleware(cfg.TokenVerifier))
			}
			// After auth, so keys are scoped to the caller.
			if idempotent != nil {
				r.Use(idempotent)
			}

			r.Route("/accounts", func(r chi.Router) {
				r.Post("/", cfg.AccountHandler.Link)
				r.Get("/", cfg.AccountHandler.Directory)
				r.Get("/me", cfg.AccountHandler.Me)
				r.Get("/{handle}", cfg.AccountHandler.Resolve)
				r.Get("/{handle}/transfers", cfg.TransferHandler.ListByHandle)
			})

			r.Route("/transfers", func(r chi.Router) {
				r.Post("/", cfg.TransferHandler.Create)
				r.With(operatorOnly).Get("/flagged", cfg.TransferHandler.Flagged)
				r.Get("/{id}", cfg.TransferHandler.Get)
			})

			r.Route("/requests", func(r chi.Router) {
				r.Post("/", cfg.MoneyRequestHandler.Create)
				r.Get("/", cfg.MoneyRequestHandler.List)
			})

			r.With(operatorOnly).Get("/ledger/consistency", cfg.LedgerHandler.CheckConsistency)
		})
	})

	return r
}
