package shard

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/apache/arrow/go/v10/arrow"
	"github.com/apache/arrow/go/v10/arrow/array"
	"github.com/apache/arrow/go/v10/arrow/memory"
	"github.com/apache/arrow/go/v10/parquet"
	"github.com/apache/arrow/go/v10/parquet/pqarrow"
)

// writeTestShard round-trips an arrow table through the parquet writer so the
// reader is exercised against a real file.
func writeTestShard(t *testing.T, path string) {
	t.Helper()
	mem := memory.NewGoAllocator()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "platform_name", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "row_count", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		{Name: "automated_detection", Type: arrow.FixedWidthTypes.Boolean, Nullable: true},
		{Name: "created_at", Type: arrow.FixedWidthTypes.Timestamp_ms, Nullable: true},
	}, nil)

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()
	b.Field(0).(*array.StringBuilder).AppendValues([]string{"Google Maps", "TikTok", ""}, []bool{true, true, false})
	b.Field(1).(*array.Int64Builder).AppendValues([]int64{1, 2, 3}, nil)
	b.Field(2).(*array.BooleanBuilder).AppendValues([]bool{true, false, true}, nil)
	b.Field(3).(*array.TimestampBuilder).AppendValues([]arrow.Timestamp{1700000000000, 1700000000001, 1700000000002}, nil)

	rec := b.NewRecord()
	defer rec.Release()
	tbl := array.NewTableFromRecords(schema, []arrow.Record{rec})
	defer tbl.Release()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating shard file: %v", err)
	}
	defer f.Close()
	if err := pqarrow.WriteTable(tbl, f, 1024, parquet.NewWriterProperties(), pqarrow.DefaultWriterProps()); err != nil {
		t.Fatalf("writing shard file: %v", err)
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "part-0001.parquet")
	writeTestShard(t, path)

	tbl, err := NewReader().ReadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	wantColumns := []string{"platform_name", "row_count", "automated_detection", "created_at"}
	if len(tbl.Columns) != len(wantColumns) {
		t.Fatalf("got columns %v, want %v", tbl.Columns, wantColumns)
	}
	for i, want := range wantColumns {
		if tbl.Columns[i] != want {
			t.Errorf("column[%d] = %q, want %q", i, tbl.Columns[i], want)
		}
	}
	if len(tbl.Rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(tbl.Rows))
	}

	first := tbl.Rows[0]
	if first["platform_name"] != "Google Maps" {
		t.Errorf("platform_name = %v, want Google Maps", first["platform_name"])
	}
	if first["row_count"] != int64(1) {
		t.Errorf("row_count = %v (%T), want int64 1", first["row_count"], first["row_count"])
	}
	if first["automated_detection"] != true {
		t.Errorf("automated_detection = %v, want true", first["automated_detection"])
	}
	ts, ok := first["created_at"].(time.Time)
	if !ok {
		t.Fatalf("created_at is %T, want time.Time", first["created_at"])
	}
	if !ts.Equal(time.UnixMilli(1700000000000)) {
		t.Errorf("created_at = %v, want %v", ts, time.UnixMilli(1700000000000).UTC())
	}

	// The third platform_name cell was written as null.
	if tbl.Rows[2]["platform_name"] != nil {
		t.Errorf("null cell = %v, want nil", tbl.Rows[2]["platform_name"])
	}
}

func TestReadFileMissing(t *testing.T) {
	_, err := NewReader().ReadFile(context.Background(), filepath.Join(t.TempDir(), "absent.parquet"))
	if err == nil {
		t.Fatal("ReadFile succeeded on a missing file")
	}
}

func TestReadFileNotParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.parquet")
	if err := os.WriteFile(path, []byte("not parquet at all"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := NewReader().ReadFile(context.Background(), path)
	if err == nil {
		t.Fatal("ReadFile succeeded on a non-parquet file")
	}
}
