package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/timmy/dsaingest/internal/land"
	"github.com/timmy/dsaingest/internal/logger"
)

// RangeOptions tunes a multi-date ingestion run.
type RangeOptions struct {
	Platform      string
	Workers       int  // bounded date-level pool, independent of shard workers
	Stride        int  // take every Nth day; <=1 means every day
	SkipSucceeded bool // skip dates that already have a successful ledger row
}

// DateOutcome is the result of one date within a range run.
type DateOutcome struct {
	Date    string
	Rows    int64
	Skipped bool
	Err     error
}

// ParseDateRange expands "YYYY-MM-DD:YYYY-MM-DD" into the inclusive list of
// days it covers.
// Parameters:
//   - rng: range expression.
// Returns:
//   - []string: each day in the range, in order.
//   - error: non-nil for malformed expressions or end before start.
func ParseDateRange(rng string) ([]string, error) {
	parts := strings.Split(rng, ":")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid range %q: expected YYYY-MM-DD:YYYY-MM-DD", rng)
	}
	if err := land.ValidateDate(parts[0]); err != nil {
		return nil, fmt.Errorf("invalid range %q: %w", rng, err)
	}
	if err := land.ValidateDate(parts[1]); err != nil {
		return nil, fmt.Errorf("invalid range %q: %w", rng, err)
	}

	start, _ := time.Parse("2006-01-02", parts[0])
	end, _ := time.Parse("2006-01-02", parts[1])
	if end.Before(start) {
		return nil, fmt.Errorf("invalid range %q: end date must be >= start date", rng)
	}

	var dates []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format("2006-01-02"))
	}
	return dates, nil
}

// IngestRange runs the pipeline for each date on a bounded pool. One date's
// failure is captured in its outcome and never aborts sibling dates.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - dates: calendar dates to ingest.
//   - opts: platform, pool size, stride, skip behavior.
// Returns:
//   - []DateOutcome: one outcome per attempted date, in input order.
func (s *IngestService) IngestRange(ctx context.Context, dates []string, opts RangeOptions) []DateOutcome {
	stride := opts.Stride
	if stride < 1 {
		stride = 1
	}
	var selected []string
	for i := 0; i < len(dates); i += stride {
		selected = append(selected, dates[i])
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(selected) {
		workers = len(selected)
	}

	logger.FromContext(ctx).WithField(logger.FieldCount, len(selected)).
		Infof("Processing %d dates with %d workers", len(selected), workers)

	outcomes := make([]DateOutcome, len(selected))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = s.ingestOne(ctx, selected[i], opts)
			}
		}()
	}
	for i := range selected {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return outcomes
}

// ingestOne handles one date of a range run, including the optional
// already-succeeded check.
func (s *IngestService) ingestOne(ctx context.Context, day string, opts RangeOptions) DateOutcome {
	if opts.SkipSucceeded {
		fileDate, err := time.Parse("2006-01-02", day)
		if err == nil {
			done, lErr := s.ledger.HasSucceeded(ctx, fileDate)
			if lErr != nil {
				return DateOutcome{Date: day, Err: lErr}
			}
			if done {
				logger.FromContext(ctx).WithField(logger.FieldFileDate, day).
					Infof("Skipping %s: already ingested successfully", day)
				return DateOutcome{Date: day, Skipped: true}
			}
		}
	}

	rows, err := s.IngestDate(ctx, day, opts.Platform)
	return DateOutcome{Date: day, Rows: rows, Err: err}
}
