package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/edf-plant-map/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/edf-plant-map/internal/adapter/kafka"
	"github.com/couchcryptid/edf-plant-map/internal/adapter/opendata"
	"github.com/couchcryptid/edf-plant-map/internal/config"
	"github.com/couchcryptid/edf-plant-map/internal/domain"
	"github.com/couchcryptid/edf-plant-map/internal/observability"
	"github.com/couchcryptid/edf-plant-map/internal/pipeline"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	client := opendata.NewClient(cfg.FetchTimeout, metrics, logger)

	// Record export is feature-flagged via KAFKA_ENABLED.
	var publisher pipeline.Publisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		publisher = writer
		logger.Info("record export enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
	}

	p := pipeline.New(client, publisher, pipeline.Options{
		Datasets: []domain.Dataset{
			{Family: domain.Hydraulic, URL: cfg.HydroURL},
			{Family: domain.Nuclear, URL: cfg.NuclearURL},
			{Family: domain.Thermal, URL: cfg.ThermalURL},
		},
		OutputPath: cfg.OutputPath,
		CenterLat:  cfg.CenterLat,
		CenterLon:  cfg.CenterLon,
		Zoom:       cfg.Zoom,
	}, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !cfg.Serving() {
		if _, err := p.Run(ctx); err != nil {
			return 1
		}
		return 0
	}
	return serve(ctx, cfg, p, logger)
}

// serve generates the map once, then keeps serving it and refreshing it on
// the configured schedule until a signal arrives.
func serve(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, logger *slog.Logger) int {
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// A failed initial run leaves /readyz at 503 until a scheduled run succeeds.
	go func() {
		_, _ = p.Run(ctx)
	}()

	var sched *pipeline.Scheduler
	if cfg.RefreshSchedule != "" {
		var err error
		sched, err = pipeline.NewScheduler(ctx, cfg.RefreshSchedule, p, logger)
		if err != nil {
			logger.Error("invalid refresh schedule", "error", err)
			return 1
		}
		sched.Start()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if sched != nil {
		sched.Stop(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return 0
}
