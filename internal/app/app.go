package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/Cesar4422/proyecto-mau/internal/config"
	"github.com/Cesar4422/proyecto-mau/internal/event"
	handler "github.com/Cesar4422/proyecto-mau/internal/handler/http"
	"github.com/Cesar4422/proyecto-mau/internal/lock"
	"github.com/Cesar4422/proyecto-mau/internal/repository"
	"github.com/Cesar4422/proyecto-mau/internal/repository/postgres"
	rediscache "github.com/Cesar4422/proyecto-mau/internal/repository/redis"
	"github.com/Cesar4422/proyecto-mau/internal/service"
	"github.com/Cesar4422/proyecto-mau/migrations"
	"github.com/Cesar4422/proyecto-mau/pkg/database"
	"github.com/Cesar4422/proyecto-mau/pkg/health"
	pkgkafka "github.com/Cesar4422/proyecto-mau/pkg/kafka"
	"github.com/Cesar4422/proyecto-mau/pkg/tracing"
)

const (
	serviceName         = "warehouse"
	consumerGroup       = "warehouse-service-allocation-requested"
	idempotencyTTL      = 24 * time.Hour
	idempotencyKeyspace = "warehouse:events:processed:"
)

// App wires together all dependencies and runs the warehouse service.
type App struct {
	cfg                *config.Config
	logger             *slog.Logger
	pool               *pgxpool.Pool
	redis              *redis.Client
	producer           *pkgkafka.Producer
	dlq                *pkgkafka.DLQProducer
	allocationRequests *pkgkafka.Consumer
	httpServer         *http.Server
	tracerShutdown     func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	// Initialize OpenTelemetry tracing.
	tracerCfg := tracing.DefaultConfig(serviceName)
	tracerCfg.Environment = cfg.Environment
	tracerCfg.OTLPEndpoint = cfg.OTELEndpoint
	tracerCfg.SampleRate = cfg.OTELSampleRate
	tracerCfg.Enabled = cfg.OTELEnabled
	tracerShutdown, err := tracing.InitTracer(ctx, tracerCfg)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	// Initialize PostgreSQL connection pool.
	pgCfg := database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: time.Duration(cfg.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(cfg.DBMaxConnIdleTimeMins) * time.Minute,
	}
	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, serviceName); err != nil {
		logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
	}

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Configure slow query logging.
	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
	}

	// Repositories.
	products := postgres.NewProductRepository(pool)
	orders := postgres.NewOrderRepository(pool)
	movements := postgres.NewMovementRepository(pool)
	ledger := postgres.NewStockLedger(pool)
	var policies repository.PolicyRepository = postgres.NewPolicyRepository(pool)

	// Redis-backed coordination, or in-process fallbacks.
	var (
		locker      lock.Locker
		idempotency pkgkafka.IdempotencyStore
	)
	if cfg.RedisEnabled {
		rdb, err := database.NewRedisClient(ctx, database.RedisConfig{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			PoolSize: int(cfg.DBMaxConns),
		})
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.redis = rdb
		logger.Info("connected to Redis", slog.String("addr", fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort)))

		locker = lock.NewRedisLocker(rdb, lock.RedisConfig{TTL: cfg.LockTTL(), Wait: cfg.LockWait()}, logger)
		if ttl := cfg.PolicyCacheTTL(); ttl > 0 {
			policies = rediscache.NewPolicyRepository(policies, rdb, ttl, logger)
		}
		idempotency = pkgkafka.NewRedisIdempotencyStore(rdb, idempotencyKeyspace, idempotencyTTL)
	} else {
		logger.Warn("redis disabled, allocation locks are local to this instance")
		locker = lock.NewLocalLocker(cfg.LockWait())
		idempotency = pkgkafka.NewMemoryIdempotencyStore(idempotencyTTL)
	}

	// Event publishing.
	var publisher pkgkafka.Publisher = pkgkafka.NoopPublisher{}
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		if err := pingKafkaWithRetry(ctx, a.producer, logger); err != nil {
			logger.Warn("kafka producer ping failed after retries, continuing in degraded mode",
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
		}
		publisher = pkgkafka.NewBreakerPublisher(a.producer, pkgkafka.DefaultBreakerConfig(serviceName+"-events"), logger)
	} else {
		logger.Warn("kafka disabled, domain events are dropped")
	}
	eventProducer := event.NewProducer(publisher, logger)

	// Services.
	policyService := service.NewPolicyService(policies, logger)
	allocationService := service.NewAllocationService(ledger, policyService, locker, eventProducer, logger)
	movementService := service.NewMovementService(ledger, movements, eventProducer, logger)
	salesService := service.NewSalesService(ledger, eventProducer, logger)
	orderService := service.NewOrderService(orders, products, logger)
	productService := service.NewProductService(products, logger)
	ledgerService := service.NewLedgerService(movements, logger)

	// Allocation requests arriving over Kafka.
	if cfg.KafkaEnabled {
		a.dlq = pkgkafka.NewDLQProducer(cfg.KafkaBrokers, logger)
		eventConsumer := event.NewConsumer(allocationService, logger)
		a.allocationRequests = pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
			Brokers:  cfg.KafkaBrokers,
			GroupID:  consumerGroup,
			Topic:    event.TopicAllocationRequested,
			MinBytes: 1,
			MaxBytes: 10e6,
		}, pkgkafka.IdempotentHandler(idempotency, event.TopicAllocationRequested, eventConsumer.HandleAllocationRequested, logger), a.dlq, logger)
	}

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	if a.redis != nil {
		rdb := a.redis
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}
	if a.producer != nil {
		producer := a.producer
		healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
			return producer.Ping(ctx)
		})
	}

	// HTTP router.
	router := handler.NewRouter(handler.Services{
		Allocation: allocationService,
		Policies:   policyService,
		Movements:  movementService,
		Sales:      salesService,
		Orders:     orderService,
		Products:   productService,
		Ledger:     ledgerService,
	}, healthHandler, handler.RouterConfig{
		AllocationRPS:   cfg.AllocationRateLimitRPS,
		AllocationBurst: cfg.AllocationRateBurst,
	}, logger)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// Run starts the HTTP server and the Kafka consumer, then blocks until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	// Start HTTP server.
	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	// Start Kafka consumer.
	if a.allocationRequests != nil {
		go func() {
			if err := a.allocationRequests.Start(ctx); err != nil {
				errCh <- fmt.Errorf("allocation requested consumer: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order: HTTP server, tracer,
// Kafka consumer, Kafka producers, Redis and finally the PostgreSQL pool.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error
	record := func(component string, err error) {
		if err != nil {
			a.logger.Error(component+" shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// Drain in-flight HTTP requests.
	httpCtx, httpCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer httpCancel()
	record("http server", a.httpServer.Shutdown(httpCtx))

	// Flush pending spans after the HTTP drain so in-flight request spans are captured.
	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		record("tracer", a.tracerShutdown(tracerCtx))
	}

	if a.allocationRequests != nil {
		record("allocation requested consumer", a.allocationRequests.Close())
	}
	if a.dlq != nil {
		record("dlq producer", a.dlq.Close())
	}
	if a.producer != nil {
		record("kafka producer", a.producer.Close())
	}
	if a.redis != nil {
		record("redis", a.redis.Close())
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// pingKafkaWithRetry attempts to ping the Kafka producer with exponential
// backoff (3 attempts, 1s/2s/4s with ±25% jitter).
func pingKafkaWithRetry(ctx context.Context, producer *pkgkafka.Producer, logger *slog.Logger) error {
	const attempts = 3
	var lastErr error
	for attempt := range attempts {
		if lastErr = producer.Ping(ctx); lastErr == nil {
			return nil
		}
		if attempt == attempts-1 {
			break
		}
		base := time.Duration(1<<uint(attempt)) * time.Second
		jitter := time.Duration(float64(base) * 0.25 * (2*rand.Float64() - 1)) // #nosec G404 -- retry jitter
		wait := base + jitter
		logger.Warn("kafka producer ping failed, retrying",
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", attempts),
			slog.Duration("backoff", wait),
			slog.String("error", lastErr.Error()),
		)
		select {
		case <-ctx.Done():
			return fmt.Errorf("kafka ping: context canceled during retry: %w", ctx.Err())
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("kafka producer ping failed after %d attempts: %w", attempts, lastErr)
}
