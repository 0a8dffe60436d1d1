package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/timmy/dsaingest/internal/domain"
	"github.com/timmy/dsaingest/internal/land"
	"github.com/timmy/dsaingest/internal/repository"
	"github.com/timmy/dsaingest/internal/shard"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("getting sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&domain.IngestionRun{}, &domain.Statement{}); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return db
}

// fakeDownloader counts calls and materializes an empty archive file so the
// pipeline has something to clean up.
type fakeDownloader struct {
	mu    sync.Mutex
	calls int
	dir   string
	err   error
}

func (f *fakeDownloader) FetchDay(ctx context.Context, day string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	path := filepath.Join(f.dir, land.ArchiveName(day))
	if err := os.WriteFile(path, []byte("archive"), 0644); err != nil {
		return "", err
	}
	return path, nil
}

func (f *fakeDownloader) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeExtractor struct{}

func (fakeExtractor) Extract(ctx context.Context, archivePath, targetDir string) (string, error) {
	return targetDir, nil
}

type fakeFinder struct {
	shards []string
}

func (f fakeFinder) FindShards(ctx context.Context, dir string) ([]string, error) {
	return f.shards, nil
}

// fakeReader serves canned tables keyed by shard base name.
type fakeReader struct {
	tables map[string]*shard.Table
	errs   map[string]error
}

func (f fakeReader) ReadFile(ctx context.Context, path string) (*shard.Table, error) {
	name := filepath.Base(path)
	if err, ok := f.errs[name]; ok {
		return nil, err
	}
	tbl, ok := f.tables[name]
	if !ok {
		return nil, errors.New("unknown shard " + name)
	}
	// Callers may mutate rows during normalization, so hand out a copy.
	out := &shard.Table{Columns: tbl.Columns}
	for _, row := range tbl.Rows {
		cp := make(shard.Row, len(row))
		for k, v := range row {
			cp[k] = v
		}
		out.Rows = append(out.Rows, cp)
	}
	return out, nil
}

func statementRow(id, platform string) shard.Row {
	return shard.Row{
		"uuid":          id,
		"platform_name": platform,
		"created_at":    int64(1700000000000),
	}
}

func newTestService(t *testing.T, db *gorm.DB, dl Downloader, finder ShardFinder, reader ShardReader) (*IngestService, *repository.LedgerRepository, *repository.StatementRepository) {
	t.Helper()
	ledger := repository.NewLedgerRepository(db)
	statements := repository.NewStatementRepository(db)
	loader := NewBatchLoader(statements, 2)
	svc := NewIngestService(ledger, loader, dl, fakeExtractor{}, finder, reader, &IngestServiceConfig{ShardWorkers: 2})
	return svc, ledger, statements
}

// TestIngestDate runs the pipeline end to end over two shards: one holding
// three matching-platform rows plus one foreign row, one holding no matching
// rows at all.
func TestIngestDate(t *testing.T) {
	db := newTestDB(t)
	dl := &fakeDownloader{dir: t.TempDir()}
	columns := []string{"uuid", "platform_name", "created_at"}
	reader := fakeReader{tables: map[string]*shard.Table{
		"part-0001.parquet": {
			Columns: columns,
			Rows: []shard.Row{
				statementRow("11111111-1111-1111-1111-111111111111", "Google Maps"),
				statementRow("22222222-2222-2222-2222-222222222222", "Google Maps"),
				statementRow("33333333-3333-3333-3333-333333333333", "Google Maps"),
				statementRow("44444444-4444-4444-4444-444444444444", "TikTok"),
			},
		},
		"part-0002.parquet": {
			Columns: columns,
			Rows: []shard.Row{
				statementRow("55555555-5555-5555-5555-555555555555", "TikTok"),
			},
		},
	}}
	finder := fakeFinder{shards: []string{"part-0001.parquet", "part-0002.parquet"}}
	svc, ledger, statements := newTestService(t, db, dl, finder, reader)

	ctx := context.Background()
	rows, err := svc.IngestDate(ctx, "2024-01-05", "Google Maps")
	if err != nil {
		t.Fatalf("IngestDate failed: %v", err)
	}
	if rows != 3 {
		t.Errorf("rows ingested = %d, want 3", rows)
	}
	if dl.callCount() != 1 {
		t.Errorf("downloader called %d times, want 1", dl.callCount())
	}

	runs, err := ledger.GetByDate(ctx, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("GetByDate failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d ledger rows, want 1", len(runs))
	}
	run := runs[0]
	if !run.Success {
		t.Error("run not marked success")
	}
	if run.RowsIngested != 3 {
		t.Errorf("ledger rows_ingested = %d, want 3", run.RowsIngested)
	}
	if run.FinishedAt == nil {
		t.Error("ledger finished_at not set")
	}

	loaded, err := statements.CountByRun(ctx, run.UUID)
	if err != nil {
		t.Fatalf("CountByRun failed: %v", err)
	}
	if loaded != 3 {
		t.Errorf("statements loaded = %d, want 3", loaded)
	}
}

// TestIngestDateInvalidDate verifies the fast-fail path: no network call, no
// ledger row.
func TestIngestDateInvalidDate(t *testing.T) {
	db := newTestDB(t)
	dl := &fakeDownloader{dir: t.TempDir()}
	svc, ledger, _ := newTestService(t, db, dl, fakeFinder{}, fakeReader{})

	ctx := context.Background()
	_, err := svc.IngestDate(ctx, "2024-13-99", "Google Maps")
	if !errors.Is(err, land.ErrInvalidDate) {
		t.Fatalf("IngestDate = %v, want ErrInvalidDate", err)
	}
	if dl.callCount() != 0 {
		t.Errorf("downloader called %d times, want 0", dl.callCount())
	}

	latest, err := ledger.GetLatest(ctx)
	if err != nil {
		t.Fatalf("GetLatest failed: %v", err)
	}
	if latest != nil {
		t.Errorf("ledger row created for a malformed date: %+v", latest)
	}
}

// TestIngestDateShardFailure verifies that one failing shard marks the run
// failed while sibling shards still run to completion.
func TestIngestDateShardFailure(t *testing.T) {
	db := newTestDB(t)
	dl := &fakeDownloader{dir: t.TempDir()}
	columns := []string{"uuid", "platform_name", "created_at"}
	reader := fakeReader{
		tables: map[string]*shard.Table{
			"part-0001.parquet": {
				Columns: columns,
				Rows: []shard.Row{
					statementRow("11111111-1111-1111-1111-111111111111", "Google Maps"),
					statementRow("22222222-2222-2222-2222-222222222222", "Google Maps"),
					statementRow("33333333-3333-3333-3333-333333333333", "Google Maps"),
				},
			},
		},
		errs: map[string]error{
			"part-0002.parquet": errors.New("unreadable shard"),
		},
	}
	finder := fakeFinder{shards: []string{"part-0001.parquet", "part-0002.parquet"}}
	svc, ledger, statements := newTestService(t, db, dl, finder, reader)

	ctx := context.Background()
	_, err := svc.IngestDate(ctx, "2024-01-05", "Google Maps")
	if err == nil || !strings.Contains(err.Error(), "unreadable shard") {
		t.Fatalf("IngestDate = %v, want the shard failure", err)
	}

	runs, err := ledger.GetByDate(ctx, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("GetByDate failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d ledger rows, want 1", len(runs))
	}
	run := runs[0]
	if run.Success {
		t.Error("failed run marked success")
	}
	if run.ErrorMessage == "" {
		t.Error("ledger error_message is empty")
	}
	if run.FinishedAt == nil {
		t.Error("ledger finished_at not set")
	}

	// The healthy shard's batches stay committed under the failed run.
	loaded, err := statements.CountByRun(ctx, run.UUID)
	if err != nil {
		t.Fatalf("CountByRun failed: %v", err)
	}
	if loaded != 3 {
		t.Errorf("statements loaded = %d, want 3", loaded)
	}
}

func TestIngestRangeStride(t *testing.T) {
	db := newTestDB(t)
	dl := &fakeDownloader{dir: t.TempDir()}
	svc, ledger, _ := newTestService(t, db, dl, fakeFinder{}, fakeReader{})

	ctx := context.Background()
	dates, err := ParseDateRange("2024-01-01:2024-01-05")
	if err != nil {
		t.Fatalf("ParseDateRange failed: %v", err)
	}

	outcomes := svc.IngestRange(ctx, dates, RangeOptions{
		Platform: "Google Maps",
		Workers:  2,
		Stride:   2,
	})

	want := []string{"2024-01-01", "2024-01-03", "2024-01-05"}
	if len(outcomes) != len(want) {
		t.Fatalf("got %d outcomes, want %d", len(outcomes), len(want))
	}
	for i, o := range outcomes {
		if o.Date != want[i] {
			t.Errorf("outcome[%d].Date = %s, want %s", i, o.Date, want[i])
		}
		if o.Err != nil {
			t.Errorf("outcome[%d].Err = %v, want nil", i, o.Err)
		}
	}

	// Only the strided dates got ledger rows.
	for _, day := range []string{"2024-01-02", "2024-01-04"} {
		fileDate, _ := time.Parse("2006-01-02", day)
		runs, err := ledger.GetByDate(ctx, fileDate)
		if err != nil {
			t.Fatalf("GetByDate failed: %v", err)
		}
		if len(runs) != 0 {
			t.Errorf("date %s has %d runs, want 0", day, len(runs))
		}
	}
}

func TestIngestRangeSkipSucceeded(t *testing.T) {
	db := newTestDB(t)
	dl := &fakeDownloader{dir: t.TempDir()}
	svc, _, _ := newTestService(t, db, dl, fakeFinder{}, fakeReader{})

	ctx := context.Background()
	if _, err := svc.IngestDate(ctx, "2024-01-05", "Google Maps"); err != nil {
		t.Fatalf("seeding successful run: %v", err)
	}
	if dl.callCount() != 1 {
		t.Fatalf("downloader called %d times after seed, want 1", dl.callCount())
	}

	outcomes := svc.IngestRange(ctx, []string{"2024-01-05"}, RangeOptions{
		Platform:      "Google Maps",
		Workers:       1,
		SkipSucceeded: true,
	})

	if len(outcomes) != 1 {
		t.Fatalf("got %d outcomes, want 1", len(outcomes))
	}
	if !outcomes[0].Skipped {
		t.Error("already-ingested date not skipped")
	}
	if dl.callCount() != 1 {
		t.Errorf("downloader called %d times, want 1 (skip must not re-download)", dl.callCount())
	}
}

// TestIngestRangeFailureIsolation verifies one bad date never aborts its
// siblings.
func TestIngestRangeFailureIsolation(t *testing.T) {
	db := newTestDB(t)
	dl := &fakeDownloader{dir: t.TempDir()}
	svc, _, _ := newTestService(t, db, dl, fakeFinder{}, fakeReader{})

	ctx := context.Background()
	outcomes := svc.IngestRange(ctx, []string{"2024-01-05", "2024-13-99", "2024-01-07"}, RangeOptions{
		Platform: "Google Maps",
		Workers:  1,
	})

	if len(outcomes) != 3 {
		t.Fatalf("got %d outcomes, want 3", len(outcomes))
	}
	if outcomes[0].Err != nil {
		t.Errorf("outcome[0].Err = %v, want nil", outcomes[0].Err)
	}
	if !errors.Is(outcomes[1].Err, land.ErrInvalidDate) {
		t.Errorf("outcome[1].Err = %v, want ErrInvalidDate", outcomes[1].Err)
	}
	if outcomes[2].Err != nil {
		t.Errorf("outcome[2].Err = %v, want nil", outcomes[2].Err)
	}
}
