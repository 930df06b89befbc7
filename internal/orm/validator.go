package orm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rzpsarthak13/mgmt-repository/internal/core"
)

// ErrSchemaMismatch is returned when a mapping does not fit the live table.
var ErrSchemaMismatch = errors.New("mapping does not match table schema")

// compatibleTypes lists the database type families each column type can be
// stored in.
var compatibleTypes = map[ColumnType][]string{
	TypeText:      {"char", "text", "enum", "set"},
	TypeTimestamp: {"date", "time", "year", "bigint"},
	TypeBoolean:   {"bool", "tinyint", "bit", "smallint", "int"},
	TypeEnum:      {"char", "text", "enum"},
	TypeJSON:      {"json", "text", "char", "blob"},
}

// Validate checks that every mapped column exists in schema with a compatible
// type and that both sides agree on the primary key.
func (m *ObjectMapper[T]) Validate(schema *core.Schema) error {
	if schema == nil {
		return fmt.Errorf("%w: no schema for table '%s'", ErrSchemaMismatch, m.table)
	}

	if schema.PrimaryKey != "" && !strings.EqualFold(schema.PrimaryKey, m.idColumn) {
		return fmt.Errorf("%w: table '%s' has primary key '%s', mapping uses '%s'",
			ErrSchemaMismatch, m.table, schema.PrimaryKey, m.idColumn)
	}

	var problems []string
	for _, col := range m.columns {
		dbCol, ok := schema.Column(col.Name)
		if !ok {
			problems = append(problems, fmt.Sprintf("column '%s' is missing", col.Name))
			continue
		}
		if !typeCompatible(col.Type, dbCol.Type) {
			problems = append(problems, fmt.Sprintf("column '%s' is %s, cannot hold %s", col.Name, dbCol.Type, col.Type))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: table '%s': %s", ErrSchemaMismatch, m.table, strings.Join(problems, "; "))
	}
	return nil
}

// typeCompatible reports whether a database type can store a column type.
// Unknown database types are accepted.
func typeCompatible(columnType ColumnType, dbType string) bool {
	families, ok := compatibleTypes[columnType]
	if !ok || dbType == "" {
		return true
	}
	dbType = strings.ToLower(dbType)
	for _, family := range families {
		if strings.Contains(dbType, family) {
			return true
		}
	}
	return false
}
