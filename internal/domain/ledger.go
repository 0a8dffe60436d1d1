package domain

import "time"

// IngestionRun is one attempt to ingest one calendar date. Runs are never
// deleted; re-running a date creates a new row, and "has this date succeeded"
// is a query over all of its runs.
type IngestionRun struct {
	UUID         string     `gorm:"type:varchar(36);primaryKey" json:"uuid"`
	FileDate     time.Time  `gorm:"type:date;not null;index" json:"file_date"`
	EventID      string     `gorm:"type:varchar(36);not null" json:"event_id"`
	StartedAt    time.Time  `gorm:"not null" json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	Success      bool       `gorm:"not null;default:false" json:"success"`
	RowsIngested int64      `gorm:"not null;default:0" json:"rows_ingested"`
	ErrorMessage string     `gorm:"type:text" json:"error_message,omitempty"`
}

// TableName returns the database table name for IngestionRun.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (IngestionRun) TableName() string {
	return "ingestion_ledger"
}
