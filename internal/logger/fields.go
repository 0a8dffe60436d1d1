package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// ============================================
// Standard Tracing Fields (Context level)
// These fields are propagated through the call chain
// ============================================

const (
	// FieldEventID is the correlation id threaded through all log events of one run
	FieldEventID = "event_id"

	// FieldRunID is the ledger run id (UUID)
	FieldRunID = "run_id"

	// FieldFileDate is the logical calendar date being ingested
	FieldFileDate = "file_date"

	// FieldRequestID is the HTTP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldComponent is the component/module name
	FieldComponent = "component"
)

// ============================================
// Standard Metric Fields (Entry level)
// These fields are used for aggregation and alerting
// ============================================

const (
	// FieldShard is the Parquet shard path within a day's archive
	FieldShard = "shard"

	// FieldColumn is the target column a value belongs to
	FieldColumn = "column"

	// FieldRows is a row count
	FieldRows = "rows"

	// FieldBatch is a 1-based batch index within a shard load
	FieldBatch = "batch"

	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldCount is a generic count field
	FieldCount = "count"

	// FieldSize is the data size in bytes
	FieldSize = "size"

	// FieldStatus is the operation status
	FieldStatus = "status"
)
