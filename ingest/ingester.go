// Package ingest orchestrates an ingestion run: it enumerates the
// extracted match files, validates and normalizes each record,
// partitions them into transactional batches, and drives the loader.
// Execution is single-threaded; each unit of work commits or rolls
// back before the next one starts.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jeffekeanyanwu/z-odi/config"
	"github.com/jeffekeanyanwu/z-odi/loader"
	"github.com/jeffekeanyanwu/z-odi/normalize"
	"github.com/jeffekeanyanwu/z-odi/schema"
)

// Summary is the end-of-run accounting: every enumerated file lands in
// exactly one of Loaded, Rejected, or Failed.
type Summary struct {
	Attempted int
	Loaded    int
	Rejected  int
	Failed    int
}

// Ingester drives one ingestion run.
type Ingester struct {
	cfg     *config.Config
	loader  *loader.Loader
	logger  *zap.Logger
	metrics *Metrics
	runID   string
}

// New creates an Ingester. Each run carries a unique id, threaded
// through logs and the health endpoint.
func New(cfg *config.Config, l *loader.Loader, logger *zap.Logger) *Ingester {
	runID := uuid.NewString()
	return &Ingester{
		cfg:     cfg,
		loader:  l,
		logger:  logger.With(zap.String("run_id", runID)),
		metrics: NewMetrics(),
		runID:   runID,
	}
}

// Metrics returns the run's live metrics.
func (ing *Ingester) Metrics() *Metrics { return ing.metrics }

// RunID returns the run's unique identifier.
func (ing *Ingester) RunID() string { return ing.runID }

// Run ingests every JSON file in the configured data directory and
// returns the run summary. Individual record rejections and load
// failures are logged and counted but do not stop the run unless
// fail_fast is set; only resource-level failures return an error.
func (ing *Ingester) Run(ctx context.Context) (*Summary, error) {
	files, err := ing.listFiles()
	if err != nil {
		return nil, err
	}
	ing.logger.Info("starting ingestion run",
		zap.Int("files", len(files)),
		zap.Int("batch_size", ing.cfg.Ingest.BatchSize))

	summary := &Summary{}
	batch := make([]*normalize.Rows, 0, ing.cfg.Ingest.BatchSize)

	flush := func() error {
		n, err := ing.flushBatch(ctx, batch)
		summary.Loaded += n
		if err != nil {
			summary.Failed += len(batch) - n
			if ing.cfg.Ingest.FailFast {
				batch = batch[:0]
				return err
			}
		}
		batch = batch[:0]
		return nil
	}

	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Attempted++
		ing.metrics.RecordAttempt()
		ing.logger.Info("processing file",
			zap.Int("index", i+1),
			zap.Int("total", len(files)),
			zap.String("file", filepath.Base(file)))

		rows, ok := ing.prepare(file)
		if !ok {
			summary.Rejected++
			continue
		}

		batch = append(batch, rows)
		if len(batch) >= ing.cfg.Ingest.BatchSize {
			if err := flush(); err != nil {
				return summary, err
			}
		}
	}
	if err := flush(); err != nil {
		return summary, err
	}

	ing.logger.Info("ingestion run complete",
		zap.Int("attempted", summary.Attempted),
		zap.Int("loaded", summary.Loaded),
		zap.Int("rejected", summary.Rejected),
		zap.Int("failed", summary.Failed))
	return summary, nil
}

// prepare reads, validates, and normalizes one file. Rejections are
// logged with the file identity and the failing fields so bad records
// can be reproduced and fixed upstream, never silently dropped.
func (ing *Ingester) prepare(file string) (*normalize.Rows, bool) {
	data, err := os.ReadFile(file)
	if err != nil {
		ing.metrics.RecordRejected()
		ing.logger.Warn("skipping unreadable file", zap.String("file", file), zap.Error(err))
		return nil, false
	}

	rec, err := schema.Parse(data)
	if err != nil {
		ing.metrics.RecordRejected()
		var verr *schema.ValidationError
		if errors.As(err, &verr) {
			fields := make([]string, len(verr.Fields))
			for i, f := range verr.Fields {
				fields[i] = f.String()
			}
			ing.logger.Warn("record rejected",
				zap.String("file", filepath.Base(file)),
				zap.Strings("fields", fields))
		} else {
			ing.logger.Warn("record rejected", zap.String("file", filepath.Base(file)), zap.Error(err))
		}
		return nil, false
	}

	if len(rec.Skipped) > 0 {
		ing.metrics.RecordSkippedInnings(len(rec.Skipped))
		for _, f := range rec.Skipped {
			ing.logger.Warn("innings skipped",
				zap.String("file", filepath.Base(file)),
				zap.String("reason", f.String()))
		}
	}

	rows := normalize.Flatten(rec)
	rows.SourceFile = filepath.Base(file)
	return rows, true
}

// flushBatch writes the pending batch and returns how many records
// committed. With batch_size 1 each record gets its own transaction;
// larger batches share one transaction and fail all-or-nothing.
func (ing *Ingester) flushBatch(ctx context.Context, batch []*normalize.Rows) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	if len(batch) == 1 {
		rows := batch[0]
		matchID, err := ing.loader.LoadOne(ctx, rows)
		if err != nil {
			ing.metrics.RecordFailure(1, err)
			ing.logger.Error("record load failed",
				zap.String("file", rows.SourceFile),
				zap.Error(err))
			return 0, err
		}
		ing.metrics.RecordLoaded(len(rows.Deliveries))
		ing.logger.Info("record loaded",
			zap.String("file", rows.SourceFile),
			zap.String("match_id", matchID))
		return 1, nil
	}

	n, err := ing.loader.LoadBatch(ctx, batch)
	if err != nil {
		ing.metrics.RecordFailure(len(batch), err)
		ing.logger.Error("batch load failed, all records rolled back",
			zap.Int("batch_size", len(batch)),
			zap.Error(err))
		return 0, err
	}
	for _, rows := range batch {
		ing.metrics.RecordLoaded(len(rows.Deliveries))
	}
	ing.logger.Info("batch loaded", zap.Int("records", n))
	return n, nil
}

// listFiles enumerates the data directory's JSON files in sorted
// order, truncated to the configured limit.
func (ing *Ingester) listFiles() ([]string, error) {
	pattern := filepath.Join(ing.cfg.Source.DataDir, "*.json")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", pattern, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no JSON files found in %s", ing.cfg.Source.DataDir)
	}
	sort.Strings(files)
	if limit := ing.cfg.Ingest.Limit; limit > 0 && limit < len(files) {
		ing.logger.Info("limiting run to first files", zap.Int("limit", limit))
		files = files[:limit]
	}
	return files, nil
}
