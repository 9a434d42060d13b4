package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/generative-ai-go/genai"
	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"

	"canon/internal/audit"
	auditmemory "canon/internal/audit/store/memory"
	auditpostgres "canon/internal/audit/store/postgres"
	"canon/internal/extractor"
	httpapi "canon/internal/http"
	"canon/internal/intake"
	"canon/internal/intake/handler"
	intakemetrics "canon/internal/intake/metrics"
	"canon/internal/platform/config"
	"canon/internal/platform/httpserver"
	"canon/internal/platform/kafka"
	"canon/internal/platform/logger"
	platformmetrics "canon/internal/platform/metrics"
	platformredis "canon/internal/platform/redis"
	"canon/internal/schema"
	"canon/internal/session/store"
	sessionmemory "canon/internal/session/store/memory"
	sessionpostgres "canon/internal/session/store/postgres"
	sessionredis "canon/internal/session/store/redis"
)

// main wires the dependency graph and owns the process lifecycle. Business
// logic lives in the internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry, err := schema.Load(cfg.SchemaPath)
	if err != nil {
		return err
	}
	log.Info("schema loaded", "path", cfg.SchemaPath, "fields", len(registry.Fields()))

	checks := map[string]httpapi.HealthChecker{}

	var (
		sessions   store.Store
		auditStore audit.Store
		outbox     audit.OutboxSource
	)

	switch cfg.Store {
	case "postgres":
		db, err := sql.Open("pgx", cfg.Postgres.DSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		checks["postgres"] = pingChecker{db}

		sessions = sessionpostgres.New(db)
		pgAudit := auditpostgres.New(db)
		auditStore = pgAudit
		outbox = pgAudit

	case "redis":
		client, err := platformredis.New(cfg.Redis)
		if err != nil {
			return err
		}
		if client == nil {
			return errors.New("store is redis but INTAKE_REDIS_URL is empty")
		}
		defer client.Close()
		checks["redis"] = client

		sessions = sessionredis.New(client.Client, cfg.Redis.SessionTTL)
		auditStore = auditmemory.NewInMemoryStore()

	case "memory", "":
		sessions = sessionmemory.NewInMemoryStore()
		auditStore = auditmemory.NewInMemoryStore()

	default:
		return errors.New("unknown INTAKE_STORE " + cfg.Store)
	}

	producer, err := kafka.NewProducer(ctx, kafka.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.AuditTopic,
	})
	if err != nil {
		return err
	}

	var relay *audit.Relay
	if producer != nil {
		defer producer.Close()
		checks["kafka"] = producer

		if outbox == nil {
			log.Warn("kafka configured without postgres outbox, audit feed disabled")
		} else {
			relay = audit.NewRelay(outbox, producer, log, cfg.Kafka.RelayInterval, cfg.Kafka.RelayBatch)
		}
	}

	chain := extractor.Chain{extractor.NewDeterministic()}
	if cfg.Gemini.APIKey != "" {
		client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.Gemini.APIKey))
		if err != nil {
			return err
		}
		defer client.Close()
		chain = append(chain, extractor.NewGemini(client, cfg.Gemini.Model, cfg.Gemini.Agent))
	}

	service := intake.New(
		registry,
		sessions,
		audit.NewPublisher(auditStore),
		chain,
		log,
		intakemetrics.New(),
	)

	router := httpapi.New(httpapi.Config{
		Intake:  handler.New(service, log),
		Logger:  log,
		Metrics: platformmetrics.New(),
		Checks:  checks,
	})

	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting intake server", "addr", cfg.Addr, "store", cfg.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if relay != nil {
		g.Go(func() error {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down", "timeout", cfg.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// pingChecker adapts *sql.DB to the health probe interface.
type pingChecker struct {
	db *sql.DB
}

func (p pingChecker) Health(ctx context.Context) error {
	return p.db.PingContext(ctx)
}
