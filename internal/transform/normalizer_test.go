package transform

import (
	"context"
	"testing"

	"github.com/timmy/dsaingest/internal/domain"
	"github.com/timmy/dsaingest/internal/shard"
)

func testSchema() domain.Schema {
	return domain.Schema{
		{Name: "uuid", Type: domain.TypeUUIDString},
		{Name: "platform_name", Type: domain.TypeText},
		{Name: "automated_detection", Type: domain.TypeBoolean},
	}
}

func TestNormalizeColumnSet(t *testing.T) {
	testCases := []struct {
		name string
		tbl  *shard.Table
	}{
		{
			name: "shard is a superset of the schema",
			tbl: &shard.Table{
				Columns: []string{"uuid", "platform_name", "automated_detection", "extra_col"},
				Rows: []shard.Row{
					{"uuid": "a", "platform_name": "X", "automated_detection": true, "extra_col": 1},
				},
			},
		},
		{
			name: "shard is a subset of the schema",
			tbl: &shard.Table{
				Columns: []string{"platform_name"},
				Rows: []shard.Row{
					{"platform_name": "X"},
					{"platform_name": "Y"},
				},
			},
		},
		{
			name: "shard is disjoint from the schema",
			tbl: &shard.Table{
				Columns: []string{"something_else"},
				Rows: []shard.Row{
					{"something_else": 1},
				},
			},
		},
	}

	schema := testSchema()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rows := Normalize(context.Background(), tc.tbl, schema, "part-0001.parquet")
			if len(rows) != len(tc.tbl.Rows) {
				t.Fatalf("got %d rows, want %d", len(rows), len(tc.tbl.Rows))
			}
			for i, row := range rows {
				if len(row) != len(schema) {
					t.Errorf("row %d has %d columns, want %d", i, len(row), len(schema))
				}
				for _, col := range schema {
					if _, ok := row[col.Name]; !ok {
						t.Errorf("row %d missing column %s", i, col.Name)
					}
				}
				for name := range row {
					if !schema.Contains(name) {
						t.Errorf("row %d carries column %s outside the schema", i, name)
					}
				}
			}
		})
	}
}

func TestNormalizeMissingColumnsAreNil(t *testing.T) {
	tbl := &shard.Table{
		Columns: []string{"platform_name"},
		Rows: []shard.Row{
			{"platform_name": "X"},
		},
	}

	rows := Normalize(context.Background(), tbl, testSchema(), "part-0001.parquet")
	if rows[0]["uuid"] != nil {
		t.Errorf("missing uuid column = %v, want nil", rows[0]["uuid"])
	}
	if rows[0]["automated_detection"] != nil {
		t.Errorf("missing automated_detection column = %v, want nil", rows[0]["automated_detection"])
	}
	if rows[0]["platform_name"] != "X" {
		t.Errorf("platform_name = %v, want X", rows[0]["platform_name"])
	}
}

func TestNormalizeCoercesCells(t *testing.T) {
	tbl := &shard.Table{
		Columns: []string{"uuid", "platform_name", "automated_detection"},
		Rows: []shard.Row{
			{"uuid": "D9428888-122B-11E1-B85C-61CD3CBB3210", "platform_name": 7, "automated_detection": "Yes"},
		},
	}

	rows := Normalize(context.Background(), tbl, testSchema(), "part-0001.parquet")
	if got := rows[0]["uuid"]; got != "d9428888-122b-11e1-b85c-61cd3cbb3210" {
		t.Errorf("uuid = %v, want canonical lowercase form", got)
	}
	if got := rows[0]["platform_name"]; got != "7" {
		t.Errorf("platform_name = %v, want stringified 7", got)
	}
	if got := rows[0]["automated_detection"]; got != true {
		t.Errorf("automated_detection = %v, want true", got)
	}
}
