package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/cyclone-outage-monitor/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/cyclone-outage-monitor/internal/adapter/kafka"
	"github.com/couchcryptid/cyclone-outage-monitor/internal/adapter/ws"
	"github.com/couchcryptid/cyclone-outage-monitor/internal/config"
	"github.com/couchcryptid/cyclone-outage-monitor/internal/domain"
	"github.com/couchcryptid/cyclone-outage-monitor/internal/history"
	"github.com/couchcryptid/cyclone-outage-monitor/internal/monitor"
	"github.com/couchcryptid/cyclone-outage-monitor/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	evaluator := domain.NewEvaluator(cfg.GridAge)
	ctrl := monitor.New(
		domain.NewGenerator(cfg.RandomSeed),
		evaluator,
		history.NewWindow(cfg.HistoryCapacity),
		logger,
		metrics,
		monitor.Options{
			Interval:       cfg.TickInterval,
			ConnectDelay:   cfg.ConnectDelay,
			PublishTimeout: cfg.PublishTimeout,
		},
	)

	// WebSocket stream (feature-flagged via WS_ENABLED).
	var hub *ws.Hub
	var stream httpadapter.Stream
	if cfg.WSEnabled {
		hub = ws.NewHub(ctrl, logger)
		stream = hub
		ctrl.Subscribe("websocket", hub)
		logger.Info("websocket stream enabled")
	}

	// Kafka publisher (feature-flagged via KAFKA_ENABLED).
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		ctrl.Subscribe("kafka", writer)
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, ctrl, evaluator.GridAge(), stream, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// Start the update cycle.
	if err := ctrl.Start(ctx); err != nil {
		logger.Error("monitor start error", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	ctrl.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if hub != nil {
		if err := hub.Close(); err != nil {
			logger.Error("websocket hub close error", "error", err)
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
