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

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	httpadapter "github.com/couchcryptid/weathernow-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/weathernow-service/internal/adapter/kafka"
	"github.com/couchcryptid/weathernow-service/internal/adapter/objectstore"
	"github.com/couchcryptid/weathernow-service/internal/adapter/openmeteo"
	"github.com/couchcryptid/weathernow-service/internal/assignment"
	"github.com/couchcryptid/weathernow-service/internal/config"
	"github.com/couchcryptid/weathernow-service/internal/display"
	"github.com/couchcryptid/weathernow-service/internal/domain"
	"github.com/couchcryptid/weathernow-service/internal/observability"
	"github.com/couchcryptid/weathernow-service/internal/search"
	"github.com/couchcryptid/weathernow-service/internal/storage"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err := run(cfg, logger); err != nil {
		logger.Error("service stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics()
	var ready readinessChecks

	backend, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open %s backend: %w", cfg.AssignmentBackend, err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Error("assignment backend close error", "error", err)
		}
	}()
	ready = append(ready, backend)
	if backend.Name == config.BackendMemory {
		logger.Warn("assignment backend is memory, assignments are lost on restart")
	}

	assignments, err := assignment.Open(ctx, backend, metrics, logger)
	if err != nil {
		return fmt.Errorf("open assignments: %w", err)
	}

	gateway := openmeteo.NewClient(openmeteo.Options{
		GeocodingURL:   cfg.GeocodingURL,
		ForecastURL:    cfg.ForecastURL,
		Timeout:        cfg.ProviderTimeout,
		BreakerEnabled: cfg.BreakerEnabled,
	}, metrics, logger)
	controller := search.New(gateway, metrics, logger)

	// Search transition feed (feature-flagged via KAFKA_ENABLED).
	if cfg.KafkaEnabled {
		publisher := kafkaadapter.NewPublisher(cfg, metrics, logger)
		unsubscribe := controller.Subscribe(publisher.Handle)
		defer func() {
			unsubscribe()
			if err := publisher.Close(); err != nil {
				logger.Error("kafka publisher close error", "error", err)
			}
		}()
		logger.Info("search transition feed enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("search transition feed disabled")
	}

	// Photo catalog (feature-flagged via PHOTO_CATALOG_ENABLED).
	var photos domain.PhotoCatalog
	if cfg.PhotoCatalogEnabled {
		catalog, err := objectstore.NewCatalog(objectstore.Config{
			Endpoint:  cfg.PhotoEndpoint,
			AccessKey: cfg.PhotoAccessKey,
			SecretKey: cfg.PhotoSecretKey,
			Bucket:    cfg.PhotoBucket,
			Prefix:    cfg.PhotoPrefix,
			Region:    cfg.PhotoRegion,
		}, logger)
		if err != nil {
			return err
		}
		photos = catalog
		ready = append(ready, catalog)
		logger.Info("photo catalog enabled", "endpoint", cfg.PhotoEndpoint, "bucket", cfg.PhotoBucket)
	} else {
		logger.Info("photo catalog disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Deps{
		Search:      controller,
		Assignments: assignments,
		Display:     display.NewComposer(assignments, photos, logger),
		Photos:      photos,
		Ready:       ready,
	}, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
		return nil
	})

	err = g.Wait()
	logger.Info("shutdown complete")
	return err
}

// readinessChecks is ready when every backing store answers.
type readinessChecks []sharedobs.ReadinessChecker

func (r readinessChecks) CheckReadiness(ctx context.Context) error {
	for _, c := range r {
		if err := c.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}
