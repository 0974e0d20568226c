package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	adapterevents "github.com/akriventsev/fishmarket/internal/adapters/events"
	"github.com/akriventsev/fishmarket/internal/adapters/messagebus"
	"github.com/akriventsev/fishmarket/internal/api"
	"github.com/akriventsev/fishmarket/internal/application"
	"github.com/akriventsev/fishmarket/internal/config"
	"github.com/akriventsev/fishmarket/internal/domain"
	"github.com/akriventsev/fishmarket/internal/events"
	"github.com/akriventsev/fishmarket/internal/eventsourcing"
	"github.com/akriventsev/fishmarket/internal/infrastructure"
	"github.com/akriventsev/fishmarket/internal/metrics"
	"github.com/akriventsev/fishmarket/internal/transport"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	meterProvider, err := metrics.SetupPrometheus("fishmarket")
	if err != nil {
		logger.Fatal("failed to setup metrics", zap.Error(err))
	}
	defer func() { _ = meterProvider.Shutdown(context.Background()) }()

	m, err := metrics.NewMetrics()
	if err != nil {
		logger.Fatal("failed to create metrics", zap.Error(err))
	}

	// Event store: PostgreSQL при наличии DSN, иначе in-memory
	var eventStore eventsourcing.EventStore
	if cfg.PostgresDSN != "" {
		if err := infrastructure.RunMigrations(cfg.PostgresDSN); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}

		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			logger.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer pool.Close()

		eventStore, err = eventsourcing.NewPostgresEventStore(pool,
			eventsourcing.DefaultPostgresEventStoreConfig(), domain.NewEventSerializer())
		if err != nil {
			logger.Fatal("failed to create event store", zap.Error(err))
		}
		logger.Info("using postgres event store")
	} else {
		eventStore = eventsourcing.NewInMemoryEventStore()
		logger.Info("using in-memory event store")
	}

	repo := eventsourcing.NewRepository(eventStore, func(id string) *domain.Purchase {
		return domain.NewPurchase(id)
	})

	// Message bus
	bus, stopBus, err := buildBus(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to create message bus", zap.Error(err))
	}

	busPublisher, err := adapterevents.NewMessageBusPublisher(adapterevents.MessageBusPublisherConfig{
		Bus:         bus,
		Topic:       cfg.Topic,
		RetryPolicy: events.DefaultRetryConfig(),
	})
	if err != nil {
		logger.Fatal("failed to create event publisher", zap.Error(err))
	}

	publisher := events.NewAsyncPublisher(busPublisher, events.AsyncPublisherConfig{
		Workers:        cfg.PublishWorkers,
		QueueSize:      cfg.PublishQueue,
		PublishTimeout: cfg.PublishTimeout,
	}, logger)

	// Idempotency store: Redis при наличии адреса, иначе in-memory
	var idempotency application.IdempotencyStore
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer func() { _ = client.Close() }()

		idempotency, err = infrastructure.NewRedisIdempotencyStore(client,
			infrastructure.DefaultRedisIdempotencyStoreConfig())
		if err != nil {
			logger.Fatal("failed to create idempotency store", zap.Error(err))
		}
		logger.Info("using redis idempotency store", zap.String("addr", cfg.RedisAddr))
	} else {
		idempotency = infrastructure.NewInMemoryIdempotencyStore()
	}

	accounts := infrastructure.NewStaticAccountDirectory(cfg.SeedAccounts...)
	items := infrastructure.NewStaticItemCatalog(cfg.SeedItems...)

	createPurchase := application.NewCreatePurchaseHandler(repo, accounts, publisher, idempotency, m, logger)
	payStorageFee := application.NewPayStorageFeeHandler(repo, publisher, m, logger)
	recordSale := application.NewRecordSaleHandler(items, publisher, idempotency, m, logger)

	server := api.NewServer(createPurchase, payStorageFee, recordSale, repo, logger)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", server.Handler())

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		logger.Info("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown error", zap.Error(err))
		}
		if err := publisher.Stop(shutdownCtx); err != nil {
			logger.Error("publisher stop error", zap.Error(err))
		}
		if err := stopBus(shutdownCtx); err != nil {
			logger.Error("bus stop error", zap.Error(err))
		}
		cancel()
	}()

	logger.Info("server starting", zap.String("addr", cfg.HTTPAddr), zap.String("bus", cfg.Bus))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}

// buildBus создает message bus по конфигурации и возвращает функцию остановки
func buildBus(ctx context.Context, cfg *config.Config) (transport.MessageBus, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	switch cfg.Bus {
	case config.BusNATS:
		natsCfg := messagebus.DefaultNATSConfig()
		natsCfg.URL = cfg.NATSURL
		adapter, err := messagebus.NewNATSAdapter(natsCfg)
		if err != nil {
			return nil, nil, err
		}
		if err := adapter.Start(ctx); err != nil {
			return nil, nil, err
		}
		return adapter, adapter.Stop, nil

	case config.BusKafka:
		kafkaCfg := messagebus.DefaultKafkaConfig()
		kafkaCfg.Brokers = cfg.KafkaBrokers
		adapter, err := messagebus.NewKafkaAdapter(kafkaCfg)
		if err != nil {
			return nil, nil, err
		}
		if err := adapter.Start(ctx); err != nil {
			return nil, nil, err
		}
		return adapter, adapter.Stop, nil

	default:
		return messagebus.NewInMemoryAdapter(), noop, nil
	}
}
