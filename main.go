// Command z-odi ingests bulk cricket match archives into an embedded
// DuckDB database: it downloads and extracts the configured archive,
// validates each match record, flattens the nested innings data into
// relational rows, and loads them transactionally.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jeffekeanyanwu/z-odi/config"
	"github.com/jeffekeanyanwu/z-odi/fetch"
	"github.com/jeffekeanyanwu/z-odi/ingest"
	"github.com/jeffekeanyanwu/z-odi/loader"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	limit := flag.Int("limit", 0, "override ingest.limit: process only the first N files")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	if *limit > 0 {
		cfg.Ingest.Limit = *limit
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("run failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Database.Reset {
		if err := os.Remove(cfg.Database.Path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove existing database %s: %w", cfg.Database.Path, err)
		}
		logger.Info("removed existing database", zap.String("path", cfg.Database.Path))
	}

	if cfg.Source.Download {
		if err := fetch.Download(ctx, cfg.Source.ArchiveURL, cfg.Source.DataDir, logger); err != nil {
			return err
		}
	}

	ldr, err := loader.Open(cfg.Database.Path, logger)
	if err != nil {
		return err
	}
	defer ldr.Close()

	if err := ldr.InitSchema(ctx); err != nil {
		return err
	}

	ing := ingest.New(cfg, ldr, logger)

	if cfg.Service.HealthPort != 0 {
		hs := ingest.NewHealthServer(cfg.Service.HealthPort, ing.RunID(), ing.Metrics(), logger)
		hs.Start()
		defer hs.Stop()
	}

	summary, err := ing.Run(ctx)
	if summary != nil {
		logger.Info("summary",
			zap.Int("attempted", summary.Attempted),
			zap.Int("loaded", summary.Loaded),
			zap.Int("rejected", summary.Rejected),
			zap.Int("failed", summary.Failed))
	}
	return err
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.Logging.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	level, err := zapcore.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid logging.level %q: %w", cfg.Logging.Level, err)
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
