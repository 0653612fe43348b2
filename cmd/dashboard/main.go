package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/emissions-dashboard/internal/adapter/boundary"
	httpadapter "github.com/couchcryptid/emissions-dashboard/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/emissions-dashboard/internal/adapter/kafka"
	"github.com/couchcryptid/emissions-dashboard/internal/adapter/mapbox"
	"github.com/couchcryptid/emissions-dashboard/internal/adapter/spreadsheet"
	"github.com/couchcryptid/emissions-dashboard/internal/config"
	"github.com/couchcryptid/emissions-dashboard/internal/dashboard"
	"github.com/couchcryptid/emissions-dashboard/internal/observability"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	start := time.Now()
	ds, err := spreadsheet.Load(cfg.DataFile, spreadsheet.Options{Sheet: cfg.DataSheet})
	if err != nil {
		logger.Error("failed to load dataset", "error", err)
		os.Exit(1)
	}
	metrics.DatasetLoadDuration.Set(time.Since(start).Seconds())
	logger.Info("dataset loaded",
		"file", cfg.DataFile,
		"records", ds.Len(),
		"pollutants", len(ds.Pollutants()),
		"duration", time.Since(start),
	)

	opts := httpadapter.Options{
		Map: httpadapter.MapSettings{
			CenterLat: cfg.MapCenterLat,
			CenterLon: cfg.MapCenterLon,
			Zoom:      cfg.MapZoom,
		},
	}

	if cfg.BoundaryFile != "" {
		b, err := boundary.Load(cfg.BoundaryFile)
		if err != nil {
			logger.Warn("boundary layer unavailable", "file", cfg.BoundaryFile, "error", err)
		} else {
			opts.Boundary = b
			logger.Info("boundary layer loaded", "file", cfg.BoundaryFile, "features", b.Features())
		}
	}

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger).
			WithProximity(cfg.MapCenterLat, cfg.MapCenterLon)
		cached, err := mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		if err != nil {
			logger.Error("failed to create geocoder cache", "error", err)
			os.Exit(1)
		}
		opts.Geocoder = cached
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	var publisher dashboard.ReportPublisher
	var kafkaPublisher *kafkaadapter.Publisher
	if cfg.PublishEnabled() {
		kafkaPublisher = kafkaadapter.NewPublisher(cfg, logger)
		publisher = kafkaPublisher
		logger.Info("report publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaReportTopic)
	}

	svc := dashboard.New(ds, publisher, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, opts, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// Start report publisher.
	go func() {
		if err := svc.Run(ctx); err != nil {
			logger.Error("report publisher error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

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

	logger.Info("shutdown complete", "loaded_at", ds.LoadedAt().Format(time.RFC3339))
}
