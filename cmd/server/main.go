package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	encservice "landledger/internal/encumbrance/service"
	"landledger/internal/events"
	"landledger/internal/ledger"
	"landledger/internal/platform/config"
	"landledger/internal/platform/httpserver"
	"landledger/internal/platform/jwtauth"
	"landledger/internal/platform/logger"
	"landledger/internal/platform/metrics"
	"landledger/internal/platform/postgres"
	platformredis "landledger/internal/platform/redis"
	"landledger/internal/query"
	regservice "landledger/internal/registry/service"
	httptransport "landledger/internal/transport/http"
)

// main wires the ledger backend, domain services, event delivery, and the HTTP
// gateway, then runs everything under one cancellable group. Business logic
// lives in the internal service packages.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "landledger: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, cleanup, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	publisher, worker, closePublisher, err := buildPublisher(cfg, log)
	if err != nil {
		return err
	}
	defer closePublisher()

	m := metrics.New()
	indexer := query.NewIndexer(store)
	registry := regservice.NewService(store, indexer, publisher, log, regservice.WithMetrics(m))
	encumbrance := encservice.NewService(store, indexer, publisher, log, encservice.WithMetrics(m))
	queries := query.NewService(store)

	jwtService := jwtauth.NewService(cfg.JWTSigningKey, "landledger", "landledger-api")
	router := httptransport.NewRouter(
		httptransport.NewRegistryHandler(registry),
		httptransport.NewEncumbranceHandler(encumbrance),
		httptransport.NewQueryHandler(queries),
		jwtService,
		log,
	)
	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)

	if worker != nil {
		group.Go(func() error {
			if err := worker.Run(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("event worker: %w", err)
			}
			return nil
		})
	}

	group.Go(func() error {
		log.Info("starting landledger gateway", "addr", cfg.Addr, "backend", cfg.LedgerBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

// openStore selects the ledger backend from configuration. The returned
// cleanup is safe to call even when the backend holds no connection.
func openStore(ctx context.Context, cfg config.Server) (ledger.Store, func(), error) {
	switch cfg.LedgerBackend {
	case "memory":
		return ledger.NewInMemoryStore(), func() {}, nil

	case "postgres":
		db, err := postgres.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		if db == nil {
			return nil, nil, fmt.Errorf("backend postgres requires LANDLEDGER_POSTGRES_DSN")
		}
		store := ledger.NewPostgresStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("ensure ledger schema: %w", err)
		}
		return store, func() { db.Close() }, nil

	case "redis":
		client, err := platformredis.New(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		if client == nil {
			return nil, nil, fmt.Errorf("backend redis requires LANDLEDGER_REDIS_URL")
		}
		return ledger.NewRedisStore(client.Client), func() { client.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown ledger backend %q", cfg.LedgerBackend)
	}
}

// buildPublisher delivers events to Kafka when brokers are configured and to
// the log otherwise. Either way services publish into a non-blocking inbox.
func buildPublisher(cfg config.Server, log *slog.Logger) (events.Publisher, *events.Worker, func(), error) {
	inbox := events.NewInbox(256, log)

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := events.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("kafka producer: %w", err)
		}
		worker := events.NewWorker(inbox.Events(), producer, log)
		return inbox, worker, producer.Close, nil
	}

	worker := events.NewWorker(inbox.Events(), events.LogSink{Logger: log}, log)
	return inbox, worker, func() {}, nil
}
