// Command etl decodes MSG.1 archives into row collections and saves them to
// the local store, optionally publishing every row to Kafka as well.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/icoads-msg1-etl/internal/adapter/archive"
	httpadapter "github.com/couchcryptid/icoads-msg1-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/icoads-msg1-etl/internal/adapter/kafka"
	pebblestore "github.com/couchcryptid/icoads-msg1-etl/internal/adapter/pebble"
	"github.com/couchcryptid/icoads-msg1-etl/internal/config"
	"github.com/couchcryptid/icoads-msg1-etl/internal/observability"
	"github.com/couchcryptid/icoads-msg1-etl/internal/pipeline"
)

const storeMaxOpenFiles = 256

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)

	// Nothing is read before the output location and archives are known good.
	if err := cfg.Preflight(); err != nil {
		logger.Error("preflight failed", "error", err)
		os.Exit(1)
	}

	os.Exit(run(cfg, logger))
}

func run(cfg *config.Config, logger *slog.Logger) int {
	metrics := observability.NewMetrics()

	store, err := pebblestore.Open(pebblestore.Options{
		Path:         cfg.OutputPath,
		ChunkRows:    cfg.StoreChunkRows,
		CacheSize:    cfg.StoreCacheSize,
		MaxOpenFiles: storeMaxOpenFiles,
	}, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		return 1
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("store close error", "error", err)
		}
	}()

	savers := pipeline.MultiSaver{store}
	if cfg.KafkaEnabled() {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		savers = append(savers, writer)
		logger.Info("kafka publication enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("kafka publication disabled")
	}

	reader := archive.NewReader(cfg.ArchiveDir, logger)
	decoder := pipeline.NewDecoder(cfg.IncludeAuxiliary)
	p := pipeline.New(reader, decoder, savers, logger, metrics, pipeline.Options{
		ChunkSize:      cfg.ChunkSize,
		SeparateGroups: cfg.SeparateGroups,
	})

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	report, runErr := p.Run(ctx, cfg.Archives)

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	if runErr != nil {
		logger.Error("pipeline error", "error", runErr, "report", report)
		return 1
	}
	logger.Info("extraction complete",
		"output", cfg.OutputPath,
		"rows", report.TotalRows(),
		"skipped_sources", len(report.SourceErrors),
	)
	return 0
}
