package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/iho/loanledger/internal/adapter/http"
	"github.com/iho/loanledger/internal/adapter/http/handler"
	postgresRepo "github.com/iho/loanledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/loanledger/internal/adapter/repository/redis"
	"github.com/iho/loanledger/internal/infrastructure/config"
	"github.com/iho/loanledger/internal/infrastructure/logger"
	"github.com/iho/loanledger/internal/infrastructure/metrics"
	"github.com/iho/loanledger/internal/infrastructure/postgres"
	"github.com/iho/loanledger/internal/infrastructure/redis"
	"github.com/iho/loanledger/internal/infrastructure/scheduler"
	"github.com/iho/loanledger/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	log.Logger = logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log.Logger); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}

	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	if cfg.RunMigrations {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger); err != nil {
			return err
		}
	}

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	logger.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL, cfg.RedisDialTimeout)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	logger.Info().Msg("connected to redis")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	transferRepo := postgresRepo.NewTransferRepository(pool)
	entryRepo := postgresRepo.NewEntryRepository(pool)
	instructionRepo := postgresRepo.NewStandingInstructionRepository(pool)
	historyRepo := postgresRepo.NewInstructionHistoryRepository(pool)
	loanRepo := postgresRepo.NewLoanRepository(pool)
	archiveRepo := postgresRepo.NewScheduleArchiveRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier(logger)

	dues := usecase.NewCachedDuesReader(loanRepo, redisRepo.NewCache(redisClient), cfg.DuesCacheTTL, func(hit bool) {
		result := "miss"
		if hit {
			result = "hit"
		}
		m.DuesCacheLookups.WithLabelValues(result).Inc()
	})

	// Initialize use cases
	accountUC := usecase.NewAccountUseCase(accountRepo, idGen)
	executor := usecase.NewLedgerTransferExecutor(txManager, accountRepo, transferRepo, entryRepo, idGen, retrier)
	instructionUC := usecase.NewStandingInstructionUseCase(usecase.StandingInstructionConfig{
		Repo:     instructionRepo,
		History:  historyRepo,
		Dues:     dues,
		Executor: executor,
		IDGen:    idGen,
		Retrier:  retrier,
		Location: cfg.Location(),
		Workers:  cfg.SchedulerWorkers,
		Logger:   logger.With().Str("component", "standing_instructions").Logger(),
	})
	historyUC := usecase.NewScheduleHistoryUseCase(loanRepo, archiveRepo)

	runner := scheduler.NewRunner(scheduler.Config{
		Job:      instructionUC,
		Lock:     redisRepo.NewRunLock(redisClient),
		Metrics:  m,
		Logger:   logger.With().Str("component", "scheduler").Logger(),
		Interval: cfg.SchedulerInterval,
		LockTTL:  cfg.SchedulerLockTTL,
	})

	health := handler.NewHealthHandler(
		handler.DependencyCheck{Name: "postgres", Check: pool.Ping},
		handler.DependencyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}},
	)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:             handler.NewAccountHandler(accountUC),
		StandingInstructionHandler: handler.NewStandingInstructionHandler(instructionUC, runner),
		LoanHandler:                handler.NewLoanHandler(historyUC, m),
		TransferHandler:            handler.NewTransferHandler(executor),
		HealthHandler:              health,
		Logger:                     logger,
		Metrics:                    m,
		Gatherer:                   reg,
	})

	server := newHTTPServer(cfg, router)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.SchedulerEnabled {
		g.Go(func() error {
			if err := runner.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down server...")

		// Graceful shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      h,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}
}
