package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"

	httpAdapter "github.com/jayrakel/sacco-ledger/internal/adapter/http"
	"github.com/jayrakel/sacco-ledger/internal/adapter/http/handler"
	postgresRepo "github.com/jayrakel/sacco-ledger/internal/adapter/repository/postgres"
	redisRepo "github.com/jayrakel/sacco-ledger/internal/adapter/repository/redis"
	"github.com/jayrakel/sacco-ledger/internal/infrastructure/config"
	"github.com/jayrakel/sacco-ledger/internal/infrastructure/eventpublisher"
	"github.com/jayrakel/sacco-ledger/internal/infrastructure/logger"
	"github.com/jayrakel/sacco-ledger/internal/infrastructure/metrics"
	"github.com/jayrakel/sacco-ledger/internal/infrastructure/postgres"
	"github.com/jayrakel/sacco-ledger/internal/infrastructure/redis"
	"github.com/jayrakel/sacco-ledger/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	processingFeeRate, err := decimal.NewFromString(cfg.ProcessingFeeRate)
	if err != nil {
		log.Fatal().Err(err).Str("value", cfg.ProcessingFeeRate).Msg("invalid PROCESSING_FEE_RATE")
	}

	ctx := context.Background()

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Run migrations
	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	mappingRepo := postgresRepo.NewMappingRepository(pool)
	journalRepo := postgresRepo.NewJournalRepository(pool)
	loanRepo := postgresRepo.NewLoanRepository(pool)
	scheduleRepo := postgresRepo.NewScheduleRepository(pool)
	repaymentRepo := postgresRepo.NewRepaymentRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	auditRepo := postgresRepo.NewAuditRepository(pool)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	cache := redisRepo.NewCache(redisClient)

	refGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier(log)
	clock := usecase.SystemClock{}
	appMetrics := metrics.New()

	// Initialize use cases
	postingUC := usecase.NewPostingUseCase(
		txManager, accountRepo, mappingRepo, journalRepo, outboxRepo, auditRepo,
		refGen, clock, retrier, appMetrics, log,
	)
	accountUC := usecase.NewAccountUseCase(accountRepo, auditRepo, refGen, clock, appMetrics, log)
	mappingUC := usecase.NewMappingUseCase(mappingRepo, accountRepo, clock, log)
	loanUC := usecase.NewLoanUseCase(
		txManager, loanRepo, scheduleRepo, outboxRepo, auditRepo, postingUC,
		refGen, clock,
		usecase.LoanConfig{
			PeriodsPerYear:    cfg.PeriodsPerYear,
			GracePeriods:      cfg.GracePeriods,
			ProcessingFeeRate: processingFeeRate,
		},
		appMetrics, log,
	)
	repaymentUC := usecase.NewRepaymentUseCase(
		txManager, loanRepo, scheduleRepo, repaymentRepo, outboxRepo, auditRepo,
		postingUC, refGen, clock, retrier, appMetrics, log,
	)
	reconciliationUC := usecase.NewReconciliationUseCase(
		accountRepo, journalRepo, loanRepo, scheduleRepo, cache, log,
	)
	overdueUC := usecase.NewOverdueUseCase(
		txManager, loanRepo, scheduleRepo, outboxRepo, refGen, clock,
		usecase.OverdueConfig{
			SweepInterval:       cfg.SweepInterval,
			DefaultAfterOverdue: cfg.DefaultAfterOverdue,
		},
		appMetrics, log,
	)
	bootstrapUC := usecase.NewBootstrapUseCase(accountRepo, mappingRepo, clock, log)

	// Seed the chart of accounts and event mappings
	if err := bootstrapUC.Seed(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to seed ledger")
	}

	// Background workers
	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  eventpublisher.NewLogPublisher(slogger),
		Logger:     slogger,
		Metrics:    appMetrics,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxPollInterval,
		Retention:  cfg.OutboxRetention,
	})
	go func() {
		if err := publisher.Start(workerCtx); err != nil && workerCtx.Err() == nil {
			log.Error().Err(err).Msg("event publisher stopped")
		}
	}()
	go overdueUC.Start(workerCtx)

	// Initialize handlers
	accountHandler := handler.NewAccountHandler(accountUC, postingUC)
	journalHandler := handler.NewJournalHandler(postingUC, mappingUC)
	loanHandler := handler.NewLoanHandler(loanUC, repaymentUC)
	ledgerHandler := handler.NewLedgerHandler(reconciliationUC)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:   accountHandler,
		JournalHandler:   journalHandler,
		LoanHandler:      loanHandler,
		LedgerHandler:    ledgerHandler,
		HealthHandler:    healthHandler,
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		RateLimitRPS:     cfg.RateLimitRPS,
		RateLimitBurst:   cfg.RateLimitBurst,
		Logger:           log,
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	stopWorkers()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
