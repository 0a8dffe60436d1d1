package transform

import (
	"context"

	"github.com/timmy/dsaingest/internal/domain"
	"github.com/timmy/dsaingest/internal/logger"
	"github.com/timmy/dsaingest/internal/shard"
)

// Normalize conforms a raw shard table to the target schema. The output rows
// have exactly the schema's column set, in any input shape: declared columns
// missing from the shard are filled with nil (warned once per column), and
// shard columns outside the schema are dropped (warned, informational only).
// Normalization never fails; bad cells degrade to nil via coercion.
// Parameters:
//   - ctx: context carrying the run's log fields.
//   - tbl: raw shard table.
//   - schema: target column set, applied in schema order.
//   - shardPath: source shard, for diagnostics.
// Returns:
//   - []map[string]interface{}: normalized rows keyed by target column name.
func Normalize(ctx context.Context, tbl *shard.Table, schema domain.Schema, shardPath string) []map[string]interface{} {
	log := logger.FromContext(ctx).WithField(logger.FieldShard, shardPath)

	present := make(map[string]bool, len(tbl.Columns))
	for _, c := range tbl.Columns {
		present[c] = true
	}

	rows := make([]map[string]interface{}, len(tbl.Rows))
	for i := range rows {
		rows[i] = make(map[string]interface{}, len(schema))
	}

	for _, col := range schema {
		if !present[col.Name] {
			for i := range rows {
				rows[i][col.Name] = nil
			}
			log.WithField(logger.FieldColumn, col.Name).
				Warnf("Missing column %s in parquet", col.Name)
			continue
		}
		for i, raw := range tbl.Rows {
			rows[i][col.Name] = Coerce(ctx, raw[col.Name], col, shardPath)
		}
	}

	for _, c := range tbl.Columns {
		if !schema.Contains(c) {
			log.WithField(logger.FieldColumn, c).
				Warnf("Unexpected column found in parquet: %s", c)
		}
	}

	return rows
}
