package service

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/dsaingest/internal/domain"
	"github.com/timmy/dsaingest/internal/land"
	"github.com/timmy/dsaingest/internal/logger"
	"github.com/timmy/dsaingest/internal/repository"
	"github.com/timmy/dsaingest/internal/shard"
	"github.com/timmy/dsaingest/internal/transform"
)

const (
	defaultShardWorkers = 5
	platformColumn      = "platform_name"
)

// Downloader acquires a day's dump archive and returns its local path.
type Downloader interface {
	FetchDay(ctx context.Context, day string) (string, error)
}

// Extractor expands an archive into a target directory.
type Extractor interface {
	Extract(ctx context.Context, archivePath, targetDir string) (string, error)
}

// ShardFinder enumerates Parquet shards under an extraction directory.
type ShardFinder interface {
	FindShards(ctx context.Context, dir string) ([]string, error)
}

// ShardReader materializes one shard fully into memory.
type ShardReader interface {
	ReadFile(ctx context.Context, path string) (*shard.Table, error)
}

// IngestService drives the per-date ingestion pipeline: land the archive,
// extract it, discover shards, transform and load each shard on a bounded
// worker pool, and finalize the ledger.
type IngestService struct {
	ledger       *repository.LedgerRepository
	loader       *BatchLoader
	download     Downloader
	extract      Extractor
	finder       ShardFinder
	reader       ShardReader
	schema       domain.Schema
	shardWorkers int
}

// IngestServiceConfig holds tuning knobs for the ingest service.
type IngestServiceConfig struct {
	ShardWorkers int
}

// NewIngestService creates a new ingest service.
func NewIngestService(
	ledger *repository.LedgerRepository,
	loader *BatchLoader,
	download Downloader,
	extract Extractor,
	finder ShardFinder,
	reader ShardReader,
	cfg *IngestServiceConfig,
) *IngestService {
	workers := defaultShardWorkers
	if cfg != nil && cfg.ShardWorkers > 0 {
		workers = cfg.ShardWorkers
	}
	return &IngestService{
		ledger:       ledger,
		loader:       loader,
		download:     download,
		extract:      extract,
		finder:       finder,
		reader:       reader,
		schema:       domain.StatementSchema(),
		shardWorkers: workers,
	}
}

// IngestDate runs the whole pipeline for one calendar date. A ledger row is
// created at the start and finalized exactly once, success or failure, before
// the error (if any) is returned. A malformed date fails fast before any
// network call and before a ledger row exists.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - day: calendar date in YYYY-MM-DD form.
//   - platform: exact platform name rows must match to be kept.
// Returns:
//   - int64: total rows ingested across all shards.
//   - error: non-nil if the run failed; the ledger reflects the failure.
func (s *IngestService) IngestDate(ctx context.Context, day, platform string) (int64, error) {
	if err := land.ValidateDate(day); err != nil {
		return 0, err
	}
	fileDate, _ := time.Parse("2006-01-02", day)

	eventID := uuid.New().String()
	ctx = logger.WithFields(ctx, logger.Fields{
		logger.FieldEventID:  eventID,
		logger.FieldFileDate: day,
	})

	run, err := s.ledger.StartRun(ctx, fileDate, eventID)
	if err != nil {
		return 0, err
	}
	ctx = logger.WithField(ctx, logger.FieldRunID, run.UUID)

	start := time.Now()
	total, runErr := s.runPipeline(ctx, day, platform, run.UUID)
	if runErr != nil {
		if mErr := s.ledger.MarkFailure(ctx, run, runErr.Error()); mErr != nil {
			return 0, mErr
		}
		return 0, runErr
	}

	if err := s.ledger.MarkSuccess(ctx, run, total); err != nil {
		return 0, err
	}

	logger.With(logger.Fields{
		logger.FieldRows:       total,
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
	}).Info(ctx, "Ingested %d rows for %s", total, day)
	return total, nil
}

// runPipeline executes landing through processing. Temporary artifacts are
// owned by this run and removed on every exit path.
func (s *IngestService) runPipeline(ctx context.Context, day, platform, runID string) (int64, error) {
	archive, err := s.download.FetchDay(ctx, day)
	if err != nil {
		return 0, err
	}

	extractDir, err := os.MkdirTemp("", "dsa_extract_"+day+"_")
	if err != nil {
		land.DeleteFile(ctx, archive, "landing cleanup")
		return 0, fmt.Errorf("creating extraction dir: %w", err)
	}
	defer land.DeleteTree(ctx, extractDir, "run cleanup")

	// The archive is not needed once extraction has run, whatever its outcome
	_, extractErr := s.extract.Extract(ctx, archive, extractDir)
	land.DeleteFile(ctx, archive, "post-unzip cleanup")
	if extractErr != nil {
		return 0, extractErr
	}

	shards, err := s.finder.FindShards(ctx, extractDir)
	if err != nil {
		return 0, err
	}

	return s.processShards(ctx, shards, platform, runID)
}

type shardResult struct {
	shard string
	rows  int64
	err   error
}

// processShards fans shard processing out over a bounded worker pool and
// waits for every dispatched shard before returning. The first captured
// failure is reported; siblings already in flight still run to completion
// and their outcomes are counted.
func (s *IngestService) processShards(ctx context.Context, shards []string, platform, runID string) (int64, error) {
	if len(shards) == 0 {
		return 0, nil
	}

	jobs := make(chan string)
	results := make(chan shardResult, len(shards))

	var wg sync.WaitGroup
	for i := 0; i < s.shardWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				rows, err := s.processShard(ctx, path, platform, runID)
				results <- shardResult{shard: path, rows: rows, err: err}
			}
		}()
	}

	for _, p := range shards {
		jobs <- p
	}
	close(jobs)
	wg.Wait()
	close(results)

	var total int64
	var firstErr error
	for res := range results {
		if res.err != nil {
			logger.FromContext(ctx).WithField(logger.FieldShard, res.shard).
				WithError(res.err).Error("Shard processing failed")
			if firstErr == nil {
				firstErr = res.err
			}
			continue
		}
		total += res.rows
	}

	if firstErr != nil {
		return total, firstErr
	}
	return total, nil
}

// processShard transforms and loads one shard: read fully, free the file,
// filter to the target platform, normalize, and hand off to the loader. A
// shard left with zero rows after filtering is skipped, not an error.
func (s *IngestService) processShard(ctx context.Context, path, platform, runID string) (int64, error) {
	tbl, err := s.reader.ReadFile(ctx, path)
	land.DeleteFile(ctx, path, "post-read cleanup")
	if err != nil {
		return 0, err
	}

	filtered := filterPlatform(tbl, platform)
	if len(filtered.Rows) == 0 {
		logger.FromContext(ctx).WithField(logger.FieldShard, path).
			Infof("Skipped %s (no rows after platform filter)", path)
		return 0, nil
	}

	rows := transform.Normalize(ctx, filtered, s.schema, path)
	return s.loader.Load(ctx, rows, runID, path)
}

// filterPlatform keeps rows whose platform-name column equals the target
// platform exactly.
func filterPlatform(tbl *shard.Table, platform string) *shard.Table {
	out := &shard.Table{Columns: tbl.Columns}
	for _, row := range tbl.Rows {
		if v, ok := row[platformColumn].(string); ok && v == platform {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}
