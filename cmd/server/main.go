package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"ledgerguard/internal/escrow"
	jwttoken "ledgerguard/internal/jwt_token"
	"ledgerguard/internal/platform/config"
	"ledgerguard/internal/platform/httpserver"
	"ledgerguard/internal/platform/logger"
	httpmetrics "ledgerguard/internal/platform/metrics"
	redisclient "ledgerguard/internal/platform/redis"
	"ledgerguard/internal/token"
	tokenhandler "ledgerguard/internal/token/handler"
	tokenmetrics "ledgerguard/internal/token/metrics"
	audit "ledgerguard/pkg/platform/audit"
	audithandler "ledgerguard/pkg/platform/audit/handler"
	"ledgerguard/pkg/platform/audit/publishers/kafka"
	auditredis "ledgerguard/pkg/platform/audit/publishers/redis"
	"ledgerguard/pkg/platform/audit/store/memory"
	"ledgerguard/pkg/platform/audit/store/postgres"
	"ledgerguard/pkg/platform/audit/worker"
	authmw "ledgerguard/pkg/platform/middleware/auth"
	"ledgerguard/pkg/platform/middleware/metadata"
	"ledgerguard/pkg/platform/middleware/request"
)

// main wires the ledger service, its audit pipeline and the HTTP surface,
// then runs them under one errgroup until a signal arrives.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogFormat, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("ledgerguard stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("ledgerguard stopped")
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	store, closeStore, err := buildAuditStore(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer closeStore()

	redisClient, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	g, gctx := errgroup.WithContext(ctx)

	// Events go from the service into a bounded queue; the worker delivers
	// them to every configured sink. With Kafka configured the store is
	// materialized by the consumer rather than written directly.
	var sinks []audit.Sink
	if len(cfg.Kafka.Brokers) > 0 {
		if err := kafka.EnsureTopic(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.Partitions, cfg.Kafka.ReplicationFactor); err != nil {
			return err
		}
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return err
		}
		defer producer.Close()
		consumer, err := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.ConsumerGroup, store, log)
		if err != nil {
			return err
		}
		sinks = append(sinks, producer)
		g.Go(func() error { return ignoreCanceled(consumer.Run(gctx)) })
		log.Info("audit events routed through kafka", "topic", cfg.Kafka.Topic)
	} else {
		sinks = append(sinks, store)
	}
	if redisClient != nil {
		sinks = append(sinks, auditredis.NewPublisher(redisClient.Client, cfg.Redis.Channel))
		log.Info("audit events published to redis", "channel", cfg.Redis.Channel)
	}

	auditMetrics := audit.NewMetrics()
	queue := audit.NewQueue(cfg.Audit.QueueSize, audit.WithQueueMetrics(auditMetrics))
	auditWorker := worker.NewWorker(audit.NewFanout(sinks...), queue.Events(),
		worker.WithLogger(log),
		worker.WithMetrics(auditMetrics),
		worker.WithDrainTimeout(cfg.Audit.DrainTimeout),
	)
	g.Go(func() error { return ignoreCanceled(auditWorker.Run(gctx)) })

	service, err := buildService(cfg.Token, audit.NewPublisher(queue), log)
	if err != nil {
		return err
	}

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
	router := newRouter(routerDeps{
		service:     service,
		store:       store,
		validator:   jwttoken.NewJWTServiceAdapter(jwtService),
		jwtService:  jwtService,
		devTokenTTL: cfg.DevTokenTTL,
		logger:      log,
	})

	srv := httpserver.New(cfg.Addr, otelhttp.NewHandler(router, "ledgerguard"))
	g.Go(func() error {
		log.Info("starting ledgerguard", "addr", cfg.Addr, "logic", service.LogicName())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func buildAuditStore(ctx context.Context, cfg config.PostgresConfig) (audit.Store, func(), error) {
	if cfg.URL == "" {
		return memory.NewInMemoryStore(), func() {}, nil
	}
	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping postgres: %w", err)
	}
	store := postgres.New(db)
	if err := store.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return store, func() { _ = db.Close() }, nil
}

func buildService(cfg config.TokenConfig, publisher token.AuditPublisher, log *slog.Logger) (*token.Service, error) {
	logicAddr, err := token.AddressOf(cfg.Logic)
	if err != nil {
		return nil, fmt.Errorf("LEDGER_LOGIC: %w", err)
	}
	st, err := token.NewState(token.Genesis{
		Owner:            cfg.Owner,
		InitialSupply:    cfg.InitialSupply,
		WhitelistEnabled: cfg.WhitelistEnabled,
		BlacklistEnabled: cfg.BlacklistEnabled,
		Logic:            logicAddr,
		Proposals:        escrow.NewInMemoryStore(),
	})
	if err != nil {
		return nil, err
	}
	return token.New(st, token.NewRegistry(),
		token.WithLogger(log),
		token.WithAuditPublisher(publisher),
		token.WithMetrics(tokenmetrics.New()),
		token.WithTracer(otel.Tracer("ledgerguard/internal/token")),
		token.WithConfig(token.Config{
			AllowOwnerSelfRemoval: cfg.AllowOwnerSelfRemoval,
			ExemptOwners:          cfg.ExemptOwners,
		}),
	)
}

type routerDeps struct {
	service     *token.Service
	store       audit.Store
	validator   authmw.JWTValidator
	jwtService  *jwttoken.JWTService
	devTokenTTL time.Duration
	logger      *slog.Logger
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.RequestTime)
	r.Use(metadata.ClientMetadata)
	r.Use(request.Recovery(d.logger))
	r.Use(request.Logger(d.logger))
	r.Use(httpmetrics.New(prometheus.DefaultRegisterer).Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())
	if d.devTokenTTL > 0 {
		r.Post("/dev/token", devTokenHandler(d.jwtService, d.devTokenTTL, d.logger))
		d.logger.Warn("development token endpoint enabled", "ttl", d.devTokenTTL)
	}

	r.Route("/v1", func(r chi.Router) {
		// Reads are public; every write rejects an anonymous caller.
		r.Use(authmw.OptionalAuth(d.validator, d.logger))
		tokenhandler.New(d.service, d.logger).Register(r)
		audithandler.New(d.store, d.logger).Register(r)
	})
	return r
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
