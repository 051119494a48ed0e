package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	httpAdapter "github.com/iho/upiledger/internal/adapter/http"
	"github.com/iho/upiledger/internal/adapter/http/handler"
	"github.com/iho/upiledger/internal/adapter/http/middleware"
	"github.com/iho/upiledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/upiledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/upiledger/internal/adapter/repository/redis"
	"github.com/iho/upiledger/internal/domain"
	"github.com/iho/upiledger/internal/infrastructure/auth"
	"github.com/iho/upiledger/internal/infrastructure/config"
	"github.com/iho/upiledger/internal/infrastructure/eventpublisher"
	"github.com/iho/upiledger/internal/infrastructure/logger"
	"github.com/iho/upiledger/internal/infrastructure/metrics"
	"github.com/iho/upiledger/internal/infrastructure/postgres"
	"github.com/iho/upiledger/internal/infrastructure/redis"
	"github.com/iho/upiledger/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
	log.Info().Msg("server stopped")
}

// run serves until ctx is cancelled, then shuts down gracefully.
func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a, err := newApp(ctx, cfg, log, reg)
	if err != nil {
		return err
	}
	defer a.close()

	relayCtx, stopRelay := context.WithCancel(context.WithoutCancel(ctx))
	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		if err := a.relay.Start(relayCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("outbox relay stopped")
		}
	}()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      a.handler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("backend", cfg.StoreBackend).Bool("auth", cfg.AuthEnabled).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			stopRelay()
			<-relayDone
			return fmt.Errorf("http server: %w", err)
		}
	}

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	// In-flight transfers finish before the relay stops, so their events
	// are still picked up on the next start at the latest.
	err = server.Shutdown(shutdownCtx)

	stopRelay()
	<-relayDone

	if err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

type app struct {
	handler http.Handler
	relay   *eventpublisher.EventPublisher
	auth    *usecase.AuthUseCase
	close   func()
}

// newApp wires the stores, use cases and router for cfg.
func newApp(ctx context.Context, cfg *config.Config, log zerolog.Logger, reg *prometheus.Registry) (*app, error) {
	m := metrics.New(reg)

	be, err := openBackend(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	var (
		cache            usecase.Cache
		idempotencyStore usecase.IdempotencyStore
		redisCheck       handler.Check
	)
	closers := []func(){be.close}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.RedisURL != "" {
		client, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		closers = append(closers, func() { _ = client.Close() })
		cache = redisRepo.NewCache(client)
		idempotencyStore = redisRepo.NewIdempotencyStore(client)
		redisCheck = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		log.Info().Msg("connected to redis")
	} else {
		log.Warn().Msg("REDIS_URL is empty, running without directory cache and idempotency keys")
	}

	ids := postgresRepo.NewULIDGenerator()
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)

	transferCfg := usecase.TransferConfig{
		CreditTimeout:               cfg.TransferCreditTimeout,
		CompensationInitialInterval: cfg.TransferCompensationInitialInterval,
		CompensationMaxInterval:     cfg.TransferCompensationMaxInterval,
		CompensationMaxElapsed:      cfg.TransferCompensationMaxElapsed,
	}

	authUC := usecase.NewAuthUseCase(be.users, auth.NewBcryptHasher(bcrypt.DefaultCost), jwtManager, ids, m)
	accountUC := usecase.NewAccountUseCase(be.accounts, be.outbox, cache, ids, m, log, cfg.DirectoryCacheTTL)
	transferUC := usecase.NewTransferUseCase(be.txManager, be.accounts, be.transfers, be.outbox, ids, m, log, transferCfg)
	requestUC := usecase.NewMoneyRequestUseCase(be.txManager, be.requests, be.outbox, ids, m)
	ledgerUC := usecase.NewLedgerUseCase(be.ledger, be.transfers)

	var publisher eventpublisher.Publisher = eventpublisher.NewLogPublisher(log)
	if cfg.OperatorWebhookURL != "" {
		publisher = eventpublisher.MultiPublisher{publisher, eventpublisher.NewWebhookPublisher(cfg.OperatorWebhookURL, nil)}
	}
	relay := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: be.outbox,
		Publisher:  publisher,
		Logger:     log,
		Metrics:    m,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxPollInterval,
	})

	rc := httpAdapter.RouterConfig{
		AuthHandler:         handler.NewAuthHandler(authUC),
		AccountHandler:      handler.NewAccountHandler(accountUC),
		TransferHandler:     handler.NewTransferHandler(transferUC, log),
		MoneyRequestHandler: handler.NewMoneyRequestHandler(requestUC),
		LedgerHandler:       handler.NewLedgerHandler(ledgerUC),
		HealthHandler:       handler.NewHealthHandler(map[string]handler.Check{cfg.StoreBackend: be.ready, "redis": redisCheck}),
		IdempotencyStore:    idempotencyStore,
		IdempotencyTTL:      cfg.IdempotencyTTL,
		Logger:              log,
		Metrics:             m,
		Gatherer:            reg,
	}
	if cfg.AuthEnabled {
		rc.TokenVerifier = jwtManager
	} else {
		log.Warn().Msg("AUTH_ENABLED is false, API requests are not tied to users")
	}

	if err := bootstrapOperator(ctx, authUC, cfg, log); err != nil {
		closeAll()
		return nil, err
	}

	return &app{
		handler: httpAdapter.NewRouter(rc),
		relay:   relay,
		auth:    authUC,
		close:   closeAll,
	}, nil
}

// bootstrapOperator creates the configured operator unless it exists.
func bootstrapOperator(ctx context.Context, authUC *usecase.AuthUseCase, cfg *config.Config, log zerolog.Logger) error {
	if cfg.BootstrapOperatorEmail == "" {
		return nil
	}

	_, err := authUC.Register(ctx, usecase.RegisterInput{
		Email:    cfg.BootstrapOperatorEmail,
		Name:     "Operator",
		Password: cfg.BootstrapOperatorPassword,
		Role:     domain.RoleOperator,
	})
	switch {
	case err == nil:
		log.Info().Str("email", cfg.BootstrapOperatorEmail).Msg("bootstrap operator created")
	case errors.Is(err, domain.ErrEmailTaken):
	default:
		return fmt.Errorf("bootstrap operator: %w", err)
	}
	return nil
}

type backend struct {
	txManager usecase.TransactionManager
	accounts  usecase.AccountStore
	transfers usecase.TransferRepository
	requests  usecase.MoneyRequestRepository
	outbox    usecase.OutboxRepository
	users     usecase.UserRepository
	ledger    usecase.LedgerRepository
	ready     handler.Check
	close     func()
}

func openBackend(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*backend, error) {
	if cfg.StoreBackend == config.BackendMemory {
		log.Warn().Msg("using the in-memory store, data is lost on restart")
		accounts := memory.NewAccountStore()
		return &backend{
			txManager: memory.NewTxManager(),
			accounts:  accounts,
			transfers: memory.NewTransferRepository(),
			requests:  memory.NewMoneyRequestRepository(),
			outbox:    memory.NewOutboxRepository(),
			users:     memory.NewUserRepository(),
			ledger:    memory.NewLedgerRepository(accounts),
			ready:     func(context.Context) error { return nil },
			close:     func() {},
		}, nil
	}

	if cfg.AutoMigrate {
		if err := postgres.RunMigrations(cfg.DatabaseURL, log); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	log.Info().Msg("connected to postgres")

	retrier := postgresRepo.NewRetrier(log)
	return &backend{
		txManager: postgresRepo.NewTxManager(pool),
		accounts:  postgresRepo.NewAccountStore(pool, retrier),
		transfers: postgresRepo.NewTransferRepository(pool),
		requests:  postgresRepo.NewMoneyRequestRepository(pool),
		outbox:    postgresRepo.NewOutboxRepository(pool),
		users:     postgresRepo.NewUserRepository(pool),
		ledger:    postgresRepo.NewLedgerRepository(pool),
		ready:     pool.Ping,
		close:     pool.Close,
	}, nil
}

var _ middleware.TokenVerifier = (*auth.JWTManager)(nil)
