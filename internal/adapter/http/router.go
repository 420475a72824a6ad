package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/jayrakel/sacco-ledger/internal/adapter/http/handler"
	"github.com/jayrakel/sacco-ledger/internal/adapter/http/middleware"
	"github.com/jayrakel/sacco-ledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler   *handler.AccountHandler
	JournalHandler   *handler.JournalHandler
	LoanHandler      *handler.LoanHandler
	LedgerHandler    *handler.LedgerHandler
	HealthHandler    *handler.HealthHandler
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	// RateLimitRPS enables per-IP rate limiting when positive.
	RateLimitRPS   float64
	RateLimitBurst int
	Logger         zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Metrics)
	r.Use(middleware.Recovery)

	if cfg.RateLimitRPS > 0 {
		r.Use(middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).Limit)
	}

	// Health and operational endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Chart of accounts
		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", cfg.AccountHandler.Create)
			r.Get("/", cfg.AccountHandler.List)
			r.Get("/{code}", cfg.AccountHandler.Get)
			r.Delete("/{code}", cfg.AccountHandler.Deactivate)
			r.Get("/{code}/entries", cfg.AccountHandler.ListEntries)
		})

		// Journal
		r.Route("/journal", func(r chi.Router) {
			r.Post("/post", cfg.JournalHandler.Post)
			r.Post("/post-event", cfg.JournalHandler.PostEvent)
			r.Post("/manual", cfg.JournalHandler.PostLines)
			r.Get("/entries/{reference}", cfg.JournalHandler.Get)
			r.Post("/entries/{reference}/reverse", cfg.JournalHandler.Reverse)

			r.Post("/mappings", cfg.JournalHandler.CreateMapping)
			r.Get("/mappings", cfg.JournalHandler.ListMappings)
			r.Get("/mappings/{event}", cfg.JournalHandler.GetMapping)
		})

		// Loans
		r.Route("/loans", func(r chi.Router) {
			r.Post("/disburse", cfg.LoanHandler.Disburse)
			r.Post("/preview-schedule", cfg.LoanHandler.PreviewSchedule)
			r.Get("/", cfg.LoanHandler.List)
			r.Get("/{id}", cfg.LoanHandler.Get)
			r.Get("/{id}/schedule", cfg.LoanHandler.GetSchedule)
			r.Post("/{id}/repayments", cfg.LoanHandler.AllocatePayment)
			r.Get("/{id}/repayments", cfg.LoanHandler.ListRepayments)
			r.Post("/{id}/write-off", cfg.LoanHandler.WriteOff)
		})

		// Reconciliation
		r.Route("/ledger", func(r chi.Router) {
			r.Get("/consistency", cfg.LedgerHandler.CheckConsistency)
			r.Get("/accounts/{code}", cfg.LedgerHandler.CheckAccount)
			r.Get("/loans/{id}", cfg.LedgerHandler.CheckLoan)
		})
	})

	return r
}
