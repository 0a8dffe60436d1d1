package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/timmy/dsaingest/internal/config"
	"github.com/timmy/dsaingest/internal/land"
	"github.com/timmy/dsaingest/internal/logger"
	"github.com/timmy/dsaingest/internal/repository"
	"github.com/timmy/dsaingest/internal/service"
	"github.com/timmy/dsaingest/internal/shard"
)

func main() {
	// Parse command line flags
	date := flag.String("date", "", "Single date YYYY-MM-DD")
	dateRange := flag.String("range", "", "Date range YYYY-MM-DD:YYYY-MM-DD")
	platform := flag.String("platform", "", "Target platform filter (default from config)")
	workers := flag.Int("workers", 0, "Max parallel dates in range mode (default from config)")
	stride := flag.Int("stride", 1, "Take every Nth day of the range")
	skipSucceeded := flag.Bool("skip-succeeded", false, "Skip dates with a prior successful run")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.GetDefault().WithError(err).Fatal("Failed to load config")
	}

	// Initialize logger
	appLogger := logger.New(&logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		ServiceName: "dsaingest-worker",
	})
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	if *date == "" && *dateRange == "" {
		appLogger.Fatal("Pass either -date or -range")
	}
	if *date != "" && *dateRange != "" {
		appLogger.Fatal("Only specify one of -date or -range")
	}
	if *platform == "" {
		*platform = cfg.Ingest.Platform
	}
	if *workers <= 0 {
		*workers = cfg.Ingest.DateWorkers
	}

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	// Initialize repositories and pipeline collaborators
	ledgerRepo := repository.NewLedgerRepository(db)
	statementRepo := repository.NewStatementRepository(db)
	loader := service.NewBatchLoader(statementRepo, cfg.Ingest.BatchSize)

	downloader, err := buildDownloader(&cfg.Download)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize downloader")
	}

	ingestService := service.NewIngestService(
		ledgerRepo,
		loader,
		downloader,
		land.ZipExtractor{},
		land.WalkFinder{},
		shard.NewReader(),
		&service.IngestServiceConfig{ShardWorkers: cfg.Ingest.ShardWorkers},
	)

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, canceling...")
		cancel()
	}()

	if *date != "" {
		// Single date mode: the failure propagates after the ledger is marked
		rows, err := ingestService.IngestDate(ctx, *date, *platform)
		if err != nil {
			appLogger.WithError(err).Fatalf("Ingestion failed for %s", *date)
		}
		appLogger.WithField(logger.FieldRows, rows).Infof("Ingestion complete for %s", *date)
		return
	}

	// Range mode: per-date failures are reported, siblings keep going
	dates, err := service.ParseDateRange(*dateRange)
	if err != nil {
		appLogger.WithError(err).Fatal("Invalid -range value")
	}

	outcomes := ingestService.IngestRange(ctx, dates, service.RangeOptions{
		Platform:      *platform,
		Workers:       *workers,
		Stride:        *stride,
		SkipSucceeded: *skipSucceeded,
	})

	var failed int
	var totalRows int64
	for _, o := range outcomes {
		switch {
		case o.Err != nil:
			failed++
			appLogger.WithError(o.Err).Errorf("Date %s failed", o.Date)
		case o.Skipped:
			appLogger.Infof("Date %s skipped", o.Date)
		default:
			totalRows += o.Rows
			appLogger.WithField(logger.FieldRows, o.Rows).Infof("Date %s complete", o.Date)
		}
	}

	appLogger.WithFields(logger.Fields{
		logger.FieldCount: len(outcomes),
		logger.FieldRows:  totalRows,
		"failed":          failed,
	}).Info("Range run finished")
	if failed > 0 {
		os.Exit(1)
	}
}

// buildDownloader selects the archive source from configuration.
func buildDownloader(cfg *config.DownloadConfig) (service.Downloader, error) {
	if cfg.Source == "s3" {
		return land.NewS3Downloader(&land.S3Config{
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			Bucket:    cfg.S3.Bucket,
			Prefix:    cfg.S3.Prefix,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			UseSSL:    cfg.S3.UseSSL,
		})
	}
	return land.NewHTTPDownloader(&land.DownloadConfig{
		BaseURL:         cfg.BaseURL,
		ConnectTimeout:  cfg.ConnectTimeout,
		TransferTimeout: cfg.TransferTimeout,
		RetryCount:      cfg.RetryCount,
		RetryWait:       cfg.RetryWait,
		RetryMaxWait:    cfg.RetryMaxWait,
	}), nil
}
