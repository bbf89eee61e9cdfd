package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"

	"github.com/Checker-Finance/zuora-adapter/internal/api"
	"github.com/Checker-Finance/zuora-adapter/internal/auth"
	"github.com/Checker-Finance/zuora-adapter/internal/billing"
	"github.com/Checker-Finance/zuora-adapter/internal/config"
	"github.com/Checker-Finance/zuora-adapter/internal/metrics"
	"github.com/Checker-Finance/zuora-adapter/internal/publisher"
	"github.com/Checker-Finance/zuora-adapter/internal/rabbitmq"
	"github.com/Checker-Finance/zuora-adapter/internal/rate"
	"github.com/Checker-Finance/zuora-adapter/internal/store"
	"github.com/Checker-Finance/zuora-adapter/pkg/logger"
	"github.com/Checker-Finance/zuora-adapter/pkg/secrets"
	"github.com/Checker-Finance/zuora-adapter/pkg/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	// --- Load configuration ---
	cfg := config.Load()

	logger.Init(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	defer logger.Sync()
	logg := logger.S()
	logg.Info("starting [zuora-adapter]...")
	logg.Info("connection to DSN: ", utils.MaskDSN(cfg.DatabaseURL))

	// --- Connect to NATS ---
	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		logg.Fatalw("failed to connect to NATS", "error", err)
	}
	defer nc.Drain() //nolint:errcheck

	// --- AWS Secrets Manager provider (skipped when static creds are set) ---
	var provider secrets.Provider
	if cfg.ZuoraUsername == "" {
		provider, err = secrets.NewAWSProvider(cfg.AWSRegion)
		if err != nil {
			logg.Fatalw("failed to init AWS provider", "error", err)
		}
	} else {
		logg.Warn("static Zuora credentials configured; secrets provider disabled")
	}

	// --- Rate limiter ---
	rateMgr := rate.NewManager(rate.Config{
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		Cooldown:          cfg.RateCooldown,
	})

	// --- Auth Manager (handles Zuora sessions per tenant) ---
	authMgr := auth.NewManager(logg.Desugar(), cfg, provider, rateMgr)

	// --- Publisher ---
	pub, err := publisher.New(nc, cfg.OutboundSubject, cfg.ServiceName, cfg.EventStream)
	if err != nil {
		logg.Fatalw("failed to init publisher", "error", err)
	}

	// --- Store (Redis + Postgres hybrid) ---
	st, err := store.NewHybrid(cfg.RedisAddr, cfg.RedisDB, cfg.DatabaseURL, store.PGPoolConfig{}, logg.Desugar())
	if err != nil {
		logg.Fatalw("failed to init store", "error", err)
	}
	defer st.Close() //nolint:errcheck

	// --- Billing service (core adapter logic) ---
	billingSvc := billing.NewService(logg.Desugar(), authMgr, st, pub)

	app := fiber.New()
	h := api.NewZuoraHandler(logg.Desugar(), billingSvc)
	api.RegisterRoutes(app, nc, st, h)

	go func() {
		logg.Infof("HTTP API listening on :%d", cfg.Port)
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			logg.Fatalw("fiber.listen_failed", "error", err)
		}
	}()

	metrics.StartServer(cfg.MetricsAddr)

	// --- RabbitMQ command consumer (optional) ---
	var consumer *rabbitmq.Consumer
	if cfg.AMQPURL != "" {
		consumer, err = rabbitmq.NewConsumer(cfg.AMQPURL, cfg.RefundQueue, cfg.BillRunQueue, billingSvc, logg.Desugar())
		if err != nil {
			logg.Fatalw("failed to init RabbitMQ consumer", "error", err)
		}
		if err := consumer.Start(ctx); err != nil {
			logg.Fatalw("failed to start RabbitMQ consumer", "error", err)
		}
	} else {
		logg.Warn("no AMQP URL configured; command consumer disabled")
	}

	logg.Infow("[zuora-adapter] running",
		"nats", cfg.NATSURL,
		"sandbox", cfg.ZuoraSandbox)

	<-ctx.Done()
	stop()
	logg.Info("shutting down [zuora-adapter]...")

	if consumer != nil {
		consumer.Close() //nolint:errcheck
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	app.ShutdownWithContext(shutdownCtx) //nolint:errcheck
}
