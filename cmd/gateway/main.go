package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/coastalmesh/geocode-gateway/internal/adapter/http"
	kafkaadapter "github.com/coastalmesh/geocode-gateway/internal/adapter/kafka"
	"github.com/coastalmesh/geocode-gateway/internal/adapter/mapbox"
	"github.com/coastalmesh/geocode-gateway/internal/config"
	"github.com/coastalmesh/geocode-gateway/internal/observability"
	"github.com/coastalmesh/geocode-gateway/internal/resolve"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	geocoder := mapbox.NewClient(cfg, metrics, logger)

	// Lookup auditing is feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS.
	var publisher resolve.Publisher
	var kafkaPublisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		kafkaPublisher = kafkaadapter.NewPublisher(cfg, logger)
		publisher = kafkaPublisher
		logger.Info("lookup publishing enabled", "topic", cfg.KafkaLookupsTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("lookup publishing disabled")
	}

	resolver := resolve.New(geocoder, publisher, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, resolver, resolver, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	logger.Info("gateway started", "addr", cfg.HTTPAddr)

	<-ctx.Done()
	logger.Info("shutting down")

	// Stop accepting lookups before draining the HTTP server.
	resolver.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
