package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/dsaingest/internal/domain"
	"github.com/timmy/dsaingest/internal/logger"
	"gorm.io/gorm"
)

// LedgerRepository tracks ingestion run outcomes. Every write runs in its own
// transaction and a failed write is returned to the caller unswallowed: the
// ledger is the audit trail, so a run must not continue past a ledger error.
type LedgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates a new LedgerRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *LedgerRepository: repository instance bound to db.
func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// StartRun inserts a new ledger row for one ingestion attempt.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - fileDate: logical calendar date being ingested.
//   - eventID: correlation id for this attempt's log events.
// Returns:
//   - *domain.IngestionRun: the created run, success=false and unfinished.
//   - error: non-nil if the insert fails.
func (r *LedgerRepository) StartRun(ctx context.Context, fileDate time.Time, eventID string) (*domain.IngestionRun, error) {
	run := &domain.IngestionRun{
		UUID:      uuid.New().String(),
		FileDate:  fileDate,
		EventID:   eventID,
		StartedAt: time.Now().UTC(),
		Success:   false,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(run).Error
	})
	if err != nil {
		logger.FromContext(ctx).WithError(err).WithField(logger.FieldFileDate, fileDate.Format("2006-01-02")).
			Error("Failed to create ingestion ledger entry")
		return nil, err
	}

	logger.FromContext(ctx).WithFields(logger.Fields{
		logger.FieldRunID:    run.UUID,
		logger.FieldFileDate: fileDate.Format("2006-01-02"),
	}).Info("Ingestion run started")
	return run, nil
}

// MarkSuccess finalizes a run as successful with its total row count.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - run: run handle returned by StartRun.
//   - rowsIngested: total rows loaded across all shards.
// Returns:
//   - error: non-nil if the update fails.
func (r *LedgerRepository) MarkSuccess(ctx context.Context, run *domain.IngestionRun, rowsIngested int64) error {
	now := time.Now().UTC()
	run.Success = true
	run.RowsIngested = rowsIngested
	run.FinishedAt = &now

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Model(&domain.IngestionRun{}).Where("uuid = ?", run.UUID).Updates(map[string]interface{}{
			"success":       true,
			"rows_ingested": rowsIngested,
			"finished_at":   now,
		}).Error
	})
	if err != nil {
		logger.FromContext(ctx).WithError(err).WithField(logger.FieldRunID, run.UUID).
			Error("Failed to mark ingestion success")
		return err
	}

	logger.FromContext(ctx).WithFields(logger.Fields{
		logger.FieldRunID: run.UUID,
		logger.FieldRows:  rowsIngested,
	}).Info("Ingestion completed successfully")
	return nil
}

// MarkFailure finalizes a run as failed with the captured error message.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - run: run handle returned by StartRun.
//   - errorMessage: message of the failure that aborted the run.
// Returns:
//   - error: non-nil if the update fails.
func (r *LedgerRepository) MarkFailure(ctx context.Context, run *domain.IngestionRun, errorMessage string) error {
	now := time.Now().UTC()
	run.Success = false
	run.ErrorMessage = errorMessage
	run.FinishedAt = &now

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Model(&domain.IngestionRun{}).Where("uuid = ?", run.UUID).Updates(map[string]interface{}{
			"success":       false,
			"error_message": errorMessage,
			"finished_at":   now,
		}).Error
	})
	if err != nil {
		logger.FromContext(ctx).WithError(err).WithField(logger.FieldRunID, run.UUID).
			Error("Failed to mark ingestion failure")
		return err
	}

	logger.FromContext(ctx).WithFields(logger.Fields{
		logger.FieldRunID: run.UUID,
		"error":           errorMessage,
	}).Error("Ingestion failed")
	return nil
}

// GetByDate retrieves all runs (including failed and retried ones) for a date.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - fileDate: logical calendar date.
// Returns:
//   - []domain.IngestionRun: matching runs in insertion order.
//   - error: non-nil if the query fails.
func (r *LedgerRepository) GetByDate(ctx context.Context, fileDate time.Time) ([]domain.IngestionRun, error) {
	var runs []domain.IngestionRun
	if err := r.db.WithContext(ctx).
		Where("file_date = ?", fileDate).
		Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

// GetLatest retrieves the run with the most recent start timestamp.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - *domain.IngestionRun: latest run, or nil when the ledger is empty.
//   - error: non-nil if the query fails.
func (r *LedgerRepository) GetLatest(ctx context.Context) (*domain.IngestionRun, error) {
	var run domain.IngestionRun
	err := r.db.WithContext(ctx).Order("started_at DESC").First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}

// HasSucceeded reports whether any run for the date finished successfully.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - fileDate: logical calendar date.
// Returns:
//   - bool: true if at least one successful run exists.
//   - error: non-nil if the query fails.
func (r *LedgerRepository) HasSucceeded(ctx context.Context, fileDate time.Time) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.IngestionRun{}).
		Where("file_date = ? AND success = ?", fileDate, true).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
