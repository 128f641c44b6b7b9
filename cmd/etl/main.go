package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/agridata/quickstats-etl/internal/adapter/http"
	kafkaadapter "github.com/agridata/quickstats-etl/internal/adapter/kafka"
	"github.com/agridata/quickstats-etl/internal/adapter/postgres"
	"github.com/agridata/quickstats-etl/internal/adapter/quickstats"
	"github.com/agridata/quickstats-etl/internal/config"
	"github.com/agridata/quickstats-etl/internal/domain"
	"github.com/agridata/quickstats-etl/internal/observability"
	"github.com/agridata/quickstats-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := quickstats.NewClient(cfg.NASSAPIKey, cfg.NASSBaseURL, cfg.NASSTimeout, logger)
	if err != nil {
		logger.Error("failed to create quickstats client", "error", err)
		os.Exit(1)
	}

	var loaders []pipeline.Loader
	var closers []func() error

	if cfg.KafkaEnabled() {
		writer := kafkaadapter.NewWriter(cfg.Brokers(), cfg.KafkaTopic, logger)
		loaders = append(loaders, writer)
		closers = append(closers, writer.Close)
		logger.Info("kafka sink enabled", "topic", cfg.KafkaTopic)
	}
	if cfg.PostgresEnabled() {
		store, err := postgres.NewStore(ctx, cfg.PostgresDSN, logger)
		if err != nil {
			logger.Error("failed to create postgres sink", "error", err)
			os.Exit(1)
		}
		loaders = append(loaders, store)
		closers = append(closers, store.Close)
		logger.Info("postgres sink enabled")
	}
	if len(loaders) == 0 {
		logger.Error("no sink configured: set QSETL_KAFKA_BROKERS or QSETL_POSTGRES_DSN")
		os.Exit(1)
	}

	query := domain.Query{
		Commodity:  cfg.Commodity,
		MinYear:    cfg.MinYear,
		StateAlpha: cfg.StateAlpha,
	}
	opts := domain.NormalizeOptions{DomainCategory: cfg.DomainCategory}

	p := pipeline.New(client, loaders, query, opts, cfg.PollInterval, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	exitCode := 0
	pipelineDone := make(chan struct{})
	go func() {
		defer close(pipelineDone)
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
			exitCode = 1
		}
		stop() // one-shot mode: bring the process down once the cycle finishes
	}()

	<-ctx.Done()
	<-pipelineDone
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.Error("sink close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
	os.Exit(exitCode)
}
