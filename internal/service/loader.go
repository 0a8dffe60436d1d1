package service

import (
	"context"
	"fmt"

	"github.com/timmy/dsaingest/internal/logger"
)

const defaultBatchSize = 10000

// BatchInserter commits one batch of normalized rows in its own transaction.
type BatchInserter interface {
	InsertBatch(ctx context.Context, rows []map[string]interface{}) error
}

// BatchLoader commits normalized rows to the store in bounded batches.
// Batches are independent: a failed batch is rolled back and re-raised, but
// batches committed before it stay committed. Loading is at-least-once per
// shard, not atomic.
type BatchLoader struct {
	inserter  BatchInserter
	batchSize int
}

// NewBatchLoader creates a BatchLoader. A non-positive batchSize falls back
// to the default of 10000.
func NewBatchLoader(inserter BatchInserter, batchSize int) *BatchLoader {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &BatchLoader{inserter: inserter, batchSize: batchSize}
}

// Load tags every row with the owning run id and inserts them batch by
// batch, preserving row order within the shard.
// Parameters:
//   - ctx: context carrying the run's log fields.
//   - rows: normalized rows for one shard.
//   - runID: ledger run id injected as the foreign key.
//   - shardPath: source shard, for diagnostics.
// Returns:
//   - int64: rows committed (all of them on success, the committed prefix on
//     failure).
//   - error: non-nil if a batch insert fails.
func (l *BatchLoader) Load(ctx context.Context, rows []map[string]interface{}, runID, shardPath string) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	for i := range rows {
		rows[i]["ingestion_run_id"] = runID
	}

	log := logger.FromContext(ctx).WithField(logger.FieldShard, shardPath)
	total := len(rows)
	for start := 0; start < total; start += l.batchSize {
		end := start + l.batchSize
		if end > total {
			end = total
		}
		batch := rows[start:end]
		batchIdx := start/l.batchSize + 1

		if err := l.inserter.InsertBatch(ctx, batch); err != nil {
			log.WithFields(logger.Fields{
				logger.FieldBatch: batchIdx,
				logger.FieldRows:  len(batch),
			}).WithError(err).Errorf("Failed inserting batch %d for %s", batchIdx, shardPath)
			return int64(start), fmt.Errorf("inserting batch %d (%d rows) for %s: %w", batchIdx, len(batch), shardPath, err)
		}

		log.WithFields(logger.Fields{
			logger.FieldBatch: batchIdx,
			logger.FieldRows:  len(batch),
		}).Infof("Inserted batch %d for %s", batchIdx, shardPath)
	}

	return int64(total), nil
}
