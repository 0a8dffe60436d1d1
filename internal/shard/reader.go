// Package shard reads one Parquet shard of a day's dump fully into memory.
package shard

import (
	"context"
	"fmt"
	"os"

	"github.com/apache/arrow/go/v10/arrow"
	"github.com/apache/arrow/go/v10/arrow/array"
	"github.com/apache/arrow/go/v10/arrow/memory"
	"github.com/apache/arrow/go/v10/parquet/file"
	"github.com/apache/arrow/go/v10/parquet/pqarrow"
	"github.com/timmy/dsaingest/internal/logger"
)

// Row is one raw record: an open-ended mapping of column name to a
// dynamically-typed value. No fixed shape is guaranteed.
type Row map[string]interface{}

// Table is a fully-materialized shard: the column names present in the file
// plus every row.
type Table struct {
	Columns []string
	Rows    []Row
}

// Reader loads Parquet shards via the arrow parquet reader.
type Reader struct {
	mem memory.Allocator
}

// NewReader creates a Reader with a default allocator.
func NewReader() *Reader {
	return &Reader{mem: memory.NewGoAllocator()}
}

// ReadFile reads the whole shard at path into memory.
// Parameters:
//   - ctx: context for cancellation and log fields.
//   - path: shard file path.
// Returns:
//   - *Table: materialized rows and column names.
//   - error: non-nil if the file cannot be opened or decoded.
func (r *Reader) ReadFile(ctx context.Context, path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening shard %s: %w", path, err)
	}
	defer f.Close()

	pf, err := file.NewParquetReader(f)
	if err != nil {
		return nil, fmt.Errorf("reading shard %s: %w", path, err)
	}

	reader, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, r.mem)
	if err != nil {
		return nil, fmt.Errorf("reading shard %s: %w", path, err)
	}

	tbl, err := reader.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("decoding shard %s: %w", path, err)
	}
	defer tbl.Release()

	out := &Table{
		Columns: make([]string, int(tbl.NumCols())),
		Rows:    make([]Row, int(tbl.NumRows())),
	}
	for i := range out.Rows {
		out.Rows[i] = make(Row, int(tbl.NumCols()))
	}

	schema := tbl.Schema()
	for ci := 0; ci < int(tbl.NumCols()); ci++ {
		name := schema.Field(ci).Name
		out.Columns[ci] = name

		offset := 0
		for _, chunk := range tbl.Column(ci).Data().Chunks() {
			for ri := 0; ri < chunk.Len(); ri++ {
				out.Rows[offset+ri][name] = valueAt(chunk, ri)
			}
			offset += chunk.Len()
		}
	}

	logger.FromContext(ctx).WithFields(logger.Fields{
		logger.FieldShard: path,
		logger.FieldRows:  len(out.Rows),
	}).Debugf("Read %d rows from %s", len(out.Rows), path)
	return out, nil
}

// valueAt converts one arrow cell into a plain Go value. Scalar types map to
// string/int64/float64/bool/time.Time; nested types fall back to the arrow
// marshal representation so variant coercion can serialize them.
func valueAt(arr arrow.Array, i int) interface{} {
	if arr.IsNull(i) {
		return nil
	}
	switch a := arr.(type) {
	case *array.String:
		return a.Value(i)
	case *array.LargeString:
		return a.Value(i)
	case *array.Boolean:
		return a.Value(i)
	case *array.Int8:
		return int64(a.Value(i))
	case *array.Int16:
		return int64(a.Value(i))
	case *array.Int32:
		return int64(a.Value(i))
	case *array.Int64:
		return a.Value(i)
	case *array.Uint8:
		return int64(a.Value(i))
	case *array.Uint16:
		return int64(a.Value(i))
	case *array.Uint32:
		return int64(a.Value(i))
	case *array.Uint64:
		return int64(a.Value(i))
	case *array.Float32:
		return float64(a.Value(i))
	case *array.Float64:
		return a.Value(i)
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return a.Value(i).ToTime(unit)
	case *array.Date32:
		return a.Value(i).ToTime()
	case *array.Date64:
		return a.Value(i).ToTime()
	default:
		if m, ok := arr.(interface{ GetOneForMarshal(int) interface{} }); ok {
			return m.GetOneForMarshal(i)
		}
		return nil
	}
}
