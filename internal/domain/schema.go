package domain

// ColumnType is the declared semantic type of a target column. The coercion
// layer dispatches on it; it is defined as plain data so the transform
// components stay pure functions, not ORM introspection.
type ColumnType int

const (
	// TypeText stringifies any value (default for plain string columns).
	TypeText ColumnType = iota
	// TypeUUIDString is a 36-char identifier column; parse is best-effort.
	TypeUUIDString
	// TypeDate is a calendar date without time of day.
	TypeDate
	// TypeTimestampTZ is an absolute instant, normalized to UTC.
	TypeTimestampTZ
	// TypeBoolean accepts numeric, string and truthy representations.
	TypeBoolean
	// TypeVariant holds JSON-like nested data or raw scalars.
	TypeVariant
)

// String returns a short name for the column type, used in log fields.
func (t ColumnType) String() string {
	switch t {
	case TypeText:
		return "text"
	case TypeUUIDString:
		return "uuid"
	case TypeDate:
		return "date"
	case TypeTimestampTZ:
		return "timestamptz"
	case TypeBoolean:
		return "boolean"
	case TypeVariant:
		return "variant"
	default:
		return "unknown"
	}
}

// Column is one target column: its name and declared type.
type Column struct {
	Name string
	Type ColumnType
}

// Schema is the ordered target column set a raw shard is conformed to.
type Schema []Column

// Names returns the column names in schema order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

// Contains reports whether the schema declares the given column.
func (s Schema) Contains(name string) bool {
	for _, c := range s {
		if c.Name == name {
			return true
		}
	}
	return false
}

// StatementSchema returns the target schema of the statement_of_reasons
// table. It is built once per destination table and does not change during
// a run. The run-id foreign key and loaded_at are injected downstream and
// are deliberately not part of the source-facing schema.
func StatementSchema() Schema {
	return Schema{
		{Name: "uuid", Type: TypeUUIDString},

		{Name: "decision_visibility", Type: TypeVariant},
		{Name: "decision_visibility_other", Type: TypeText},
		{Name: "end_date_visibility_restriction", Type: TypeDate},

		{Name: "decision_monetary", Type: TypeText},
		{Name: "decision_monetary_other", Type: TypeText},
		{Name: "end_date_monetary_restriction", Type: TypeDate},

		{Name: "decision_provision", Type: TypeText},
		{Name: "end_date_service_restriction", Type: TypeDate},

		{Name: "decision_account", Type: TypeText},
		{Name: "end_date_account_restriction", Type: TypeDate},
		{Name: "account_type", Type: TypeText},

		{Name: "decision_ground", Type: TypeText},
		{Name: "decision_ground_reference_url", Type: TypeText},
		{Name: "illegal_content_legal_ground", Type: TypeText},
		{Name: "illegal_content_explanation", Type: TypeText},
		{Name: "incompatible_content_ground", Type: TypeText},
		{Name: "incompatible_content_explanation", Type: TypeText},
		{Name: "incompatible_content_illegal", Type: TypeText},

		{Name: "category", Type: TypeText},
		{Name: "category_addition", Type: TypeText},
		{Name: "category_specification", Type: TypeText},
		{Name: "category_specification_other", Type: TypeText},

		{Name: "content_type", Type: TypeVariant},
		{Name: "content_type_other", Type: TypeText},
		{Name: "content_language", Type: TypeText},
		{Name: "content_date", Type: TypeDate},
		{Name: "content_id_ean", Type: TypeText},

		{Name: "territorial_scope", Type: TypeVariant},
		{Name: "application_date", Type: TypeDate},
		{Name: "decision_facts", Type: TypeText},

		{Name: "source_type", Type: TypeText},
		{Name: "source_identity", Type: TypeText},

		{Name: "automated_detection", Type: TypeBoolean},
		{Name: "automated_decision", Type: TypeText},

		{Name: "platform_name", Type: TypeText},
		{Name: "platform_uid", Type: TypeText},

		{Name: "created_at", Type: TypeTimestampTZ},
	}
}
