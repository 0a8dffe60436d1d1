package repository

import (
	"context"

	"github.com/timmy/dsaingest/internal/domain"
	"gorm.io/gorm"
)

// StatementRepository writes normalized rows into the wide fact table.
// Rows arrive as column maps (the normalizer's output shape), so inserts go
// through the table name rather than the model struct.
type StatementRepository struct {
	db *gorm.DB
}

// NewStatementRepository creates a new StatementRepository.
// Parameters:
//   - db: GORM database handle used for inserts.
// Returns:
//   - *StatementRepository: repository instance bound to db.
func NewStatementRepository(db *gorm.DB) *StatementRepository {
	return &StatementRepository{db: db}
}

// InsertBatch inserts one batch of normalized rows in a single transaction.
// Each call begins its own transaction on its own pooled connection, so
// concurrent shard workers never share a session.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - rows: normalized rows keyed by target column name.
// Returns:
//   - error: non-nil if the batch insert fails; the batch is rolled back.
func (r *StatementRepository) InsertBatch(ctx context.Context, rows []map[string]interface{}) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Table(domain.Statement{}.TableName()).Create(&rows).Error
	})
}

// CountByRun counts fact rows owned by an ingestion run.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - runID: ledger run id.
// Returns:
//   - int64: number of rows tagged with the run id.
//   - error: non-nil if the query fails.
func (r *StatementRepository) CountByRun(ctx context.Context, runID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Statement{}).
		Where("ingestion_run_id = ?", runID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
