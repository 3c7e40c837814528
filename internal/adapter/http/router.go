package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/loanledger/internal/adapter/http/handler"
	"github.com/iho/loanledger/internal/adapter/http/middleware"
	"github.com/iho/loanledger/internal/infrastructure/metrics"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler             *handler.AccountHandler
	StandingInstructionHandler *handler.StandingInstructionHandler
	LoanHandler                *handler.LoanHandler
	TransferHandler            *handler.TransferHandler
	HealthHandler              *handler.HealthHandler
	Logger                     zerolog.Logger
	Metrics                    *metrics.Metrics    // optional
	Gatherer                   prometheus.Gatherer // serves /metrics when set
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Accounts
		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", cfg.AccountHandler.Open)
			r.Get("/{id}", cfg.AccountHandler.Get)
		})

		// Standing instructions
		r.Route("/standinginstructions", func(r chi.Router) {
			h := cfg.StandingInstructionHandler
			r.Post("/", h.Create)
			r.Get("/", h.List)
			r.Post("/run", h.Run)
			r.Get("/{id}", h.Get)
			r.Delete("/{id}", h.Delete)
			r.Get("/{id}/history", h.History)
		})

		// Transfers
		r.Get("/transfers/{id}", cfg.TransferHandler.Get)

		// Loans
		r.Route("/loans/{id}", func(r chi.Router) {
			r.Get("/schedulehistory", cfg.LoanHandler.ScheduleHistory)
			r.Get("/schedulehistory/version", cfg.LoanHandler.ScheduleVersion)
		})
	})

	return r
}
