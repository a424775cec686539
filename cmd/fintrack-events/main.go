package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/cli"
	applog "fintrack/internal/log"
	"fintrack/internal/worker"
)

const (
	reportInterval = 5 * time.Minute
	dedupeWindow   = time.Hour
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required to consume transaction events")
		os.Exit(1)
	}

	ctx, stop := cli.ShutdownContext(logger)
	defer stop()

	// The consumer only reads rows; it never publishes.
	bcfg := backend.ConfigFromAppConfig(cfg)
	bcfg.AMQPURL = ""
	be := cli.InitBackend(ctx, logger, bcfg)
	defer func() {
		if err := be.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}()

	client, err := amqp.NewClient(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.ConnectTimeout)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	audit := worker.NewAuditWorker(be.Repository, logger, dedupeWindow)

	logger.Info("Starting fintrack-events",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue,
		"backend", cfg.DataBackend)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := client.ConsumeTransactionEvents(gctx, audit.HandleEvent)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		return audit.RunReporter(gctx, reportInterval)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Event consumption failed", "error", err)
		os.Exit(1)
	}

	s := audit.Stats()
	logger.WithComponent(applog.ComponentWorker).Info("Worker shutdown complete",
		"audited", s.Audited,
		"duplicates", s.Duplicates,
		"missing", s.Missing,
		"failed", s.Failed)
}
