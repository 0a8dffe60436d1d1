// Package transform conforms raw shard rows to the target schema.
package transform

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/dsaingest/internal/domain"
	"github.com/timmy/dsaingest/internal/logger"
)

// CoercionWarning describes a value that could not be converted to its
// declared type. It is an internal result, collapsed to a nil cell plus a
// structured log line at the Coerce boundary; conversion problems never
// abort the pipeline.
type CoercionWarning struct {
	Kind string // "date_parse", "timestamp_parse" or "conversion"
	Err  error
}

// Coerce converts a raw scalar into a schema-typed value. It never fails:
// on any conversion problem it logs a diagnostic with the column and shard
// context and returns nil for that cell.
// Parameters:
//   - ctx: context carrying the run's log fields.
//   - value: raw value from the shard.
//   - col: target column (name and declared type).
//   - shardPath: source shard, for diagnostics.
// Returns:
//   - interface{}: the coerced value, or nil.
func Coerce(ctx context.Context, value interface{}, col domain.Column, shardPath string) interface{} {
	out, warn := coerceValue(value, col.Type)
	if warn == nil {
		return out
	}

	log := logger.FromContext(ctx).WithFields(logger.Fields{
		logger.FieldColumn: col.Name,
		logger.FieldShard:  shardPath,
		"declared_type":    col.Type.String(),
	}).WithError(warn.Err)

	switch warn.Kind {
	case "date_parse", "timestamp_parse":
		log.Warnf("Unparsable %s value for %s", col.Type, col.Name)
	default:
		log.Errorf("Conversion failed for %s", col.Name)
	}
	return out
}

// coerceValue applies the conversion rules in priority order. Pure function:
// no logging, no side effects.
func coerceValue(value interface{}, t domain.ColumnType) (interface{}, *CoercionWarning) {
	if isMissing(value) {
		return nil, nil
	}

	switch t {
	case domain.TypeUUIDString:
		// Best-effort column: a failed parse keeps the raw string
		s := stringify(value)
		if u, err := uuid.Parse(s); err == nil {
			return u.String(), nil
		}
		return s, nil

	case domain.TypeDate:
		ts, err := parseInstant(value)
		if err != nil {
			return nil, &CoercionWarning{Kind: "date_parse", Err: err}
		}
		y, m, d := ts.UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil

	case domain.TypeTimestampTZ:
		ts, err := parseInstant(value)
		if err != nil {
			return nil, &CoercionWarning{Kind: "timestamp_parse", Err: err}
		}
		return ts.UTC(), nil

	case domain.TypeBoolean:
		return coerceBool(value), nil

	case domain.TypeVariant:
		return coerceVariant(value)

	case domain.TypeText:
		return stringify(value), nil

	default:
		// Unrecognized declared type: passthrough unchanged
		return value, nil
	}
}

// isMissing treats nil and NaN as absent, regardless of declared type.
func isMissing(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(v)
	case float32:
		return math.IsNaN(float64(v))
	default:
		return false
	}
}

func stringify(value interface{}) string {
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}

// instantLayouts are the ISO-like string forms accepted for dates and
// timestamps, tried in order.
var instantLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseInstant resolves a raw value to an absolute instant. Numeric inputs
// are epoch milliseconds.
func parseInstant(value interface{}) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case int64:
		return time.UnixMilli(v), nil
	case int:
		return time.UnixMilli(int64(v)), nil
	case int32:
		return time.UnixMilli(int64(v)), nil
	case float64:
		return time.UnixMilli(int64(v)), nil
	case float32:
		return time.UnixMilli(int64(v)), nil
	case string:
		s := strings.TrimSpace(v)
		if isAllDigits(s) {
			var ms int64
			if _, err := fmt.Sscan(s, &ms); err == nil {
				return time.UnixMilli(ms), nil
			}
		}
		for _, layout := range instantLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("unparsable instant %q", s)
	default:
		return time.Time{}, fmt.Errorf("unparsable instant of type %T", value)
	}
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// coerceBool maps numeric values to nonzero, strings to membership in
// {"1","true","yes"} (case-insensitive, trimmed), and anything else to its
// generic truthiness.
func coerceBool(value interface{}) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes":
			return true
		}
		return false
	case int:
		return v != 0
	case int32:
		return v != 0
	case int64:
		return v != 0
	case float32:
		return v != 0
	case float64:
		return v != 0
	case []interface{}:
		return len(v) > 0
	case map[string]interface{}:
		return len(v) > 0
	default:
		return true
	}
}

// coerceVariant serializes a value for a variant column. Every non-nil
// result is a valid JSON string: nested structures are marshaled, strings
// that already hold JSON pass through, strings that do not are wrapped as
// {"raw": s}, and primitive scalars are marshaled to their JSON encoding.
func coerceVariant(value interface{}) (interface{}, *CoercionWarning) {
	switch v := value.(type) {
	case json.RawMessage:
		if json.Valid(v) {
			return string(v), nil
		}
		return wrapRaw(string(v))
	case string:
		if json.Valid([]byte(v)) {
			return v, nil
		}
		return wrapRaw(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, &CoercionWarning{Kind: "conversion", Err: err}
		}
		return string(b), nil
	}
}

func wrapRaw(s string) (interface{}, *CoercionWarning) {
	b, err := json.Marshal(map[string]string{"raw": s})
	if err != nil {
		return nil, &CoercionWarning{Kind: "conversion", Err: err}
	}
	return string(b), nil
}
